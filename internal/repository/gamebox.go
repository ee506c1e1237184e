package repository

import (
	"context"
	"errors"

	"github.com/wfunc/pulltab-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrBoxNotFound 没有可用奖箱
var ErrBoxNotFound = errors.New("奖箱不存在")

// GameBoxRepository 奖箱仓储接口
type GameBoxRepository interface {
	BaseRepository
	Create(ctx context.Context, box *models.GameBox) error
	Update(ctx context.Context, box *models.GameBox) error
	FindByID(ctx context.Context, id uint) (*models.GameBox, error)
	FindActive(ctx context.Context) (*models.GameBox, error)
	FindLatest(ctx context.Context) (*models.GameBox, error)
	LockActiveForUpdate(ctx context.Context) (*models.GameBox, error)
	LockForUpdate(ctx context.Context, id uint) (*models.GameBox, error)
	CountCompleted(ctx context.Context) (int64, error)
}

// gameBoxRepo 奖箱仓储实现
type gameBoxRepo struct {
	*BaseRepo
}

// NewGameBoxRepository 创建奖箱仓储
func NewGameBoxRepository(db *gorm.DB) GameBoxRepository {
	return &gameBoxRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建奖箱
func (r *gameBoxRepo) Create(ctx context.Context, box *models.GameBox) error {
	return r.db.WithContext(ctx).Create(box).Error
}

// Update 保存奖箱（票位、奖池计数、完成时间）
func (r *gameBoxRepo) Update(ctx context.Context, box *models.GameBox) error {
	return r.db.WithContext(ctx).Save(box).Error
}

// FindByID 根据ID查找奖箱
func (r *gameBoxRepo) FindByID(ctx context.Context, id uint) (*models.GameBox, error) {
	var box models.GameBox
	err := r.db.WithContext(ctx).First(&box, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoxNotFound
		}
		return nil, err
	}
	return &box, nil
}

// FindActive 查找当前可售奖箱（无锁，只读查询用）
func (r *gameBoxRepo) FindActive(ctx context.Context) (*models.GameBox, error) {
	var box models.GameBox
	err := r.db.WithContext(ctx).
		Where("completed_at IS NULL AND remaining_tickets > 0").
		Order("id ASC").
		First(&box).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoxNotFound
		}
		return nil, err
	}
	return &box, nil
}

// FindLatest 查找最近的奖箱，无论是否售罄。
// 状态接口在没有活跃奖箱时用它报告上一箱的终态。
func (r *gameBoxRepo) FindLatest(ctx context.Context) (*models.GameBox, error) {
	var box models.GameBox
	err := r.db.WithContext(ctx).
		Order("id DESC").
		First(&box).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoxNotFound
		}
		return nil, err
	}
	return &box, nil
}

// LockActiveForUpdate 锁定当前可售奖箱（悲观锁）
// 必须在事务内调用：行锁把同一奖箱上的并发购票串行化。
func (r *gameBoxRepo) LockActiveForUpdate(ctx context.Context) (*models.GameBox, error) {
	var box models.GameBox
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("completed_at IS NULL AND remaining_tickets > 0").
		Order("id ASC").
		First(&box).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoxNotFound
		}
		return nil, err
	}
	return &box, nil
}

// LockForUpdate 按ID锁定奖箱（悲观锁）
func (r *gameBoxRepo) LockForUpdate(ctx context.Context, id uint) (*models.GameBox, error) {
	var box models.GameBox
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&box, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoxNotFound
		}
		return nil, err
	}
	return &box, nil
}

// CountCompleted 统计已完成奖箱数
func (r *gameBoxRepo) CountCompleted(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GameBox{}).
		Where("completed_at IS NOT NULL").
		Count(&count).Error
	return count, err
}

// WithTx 使用事务
func (r *gameBoxRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &gameBoxRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

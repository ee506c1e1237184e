package repository

import (
	"context"
	"errors"

	"github.com/wfunc/pulltab-game/internal/models"
	"gorm.io/gorm"
)

// PlayerStatsRepository 玩家统计仓储接口
type PlayerStatsRepository interface {
	BaseRepository
	Create(ctx context.Context, stats *models.PlayerStats) error
	Update(ctx context.Context, stats *models.PlayerStats) error
	FindByUserID(ctx context.Context, userID uint) (*models.PlayerStats, error)
	GetOrCreate(ctx context.Context, userID uint) (*models.PlayerStats, error)
	IncrementSessions(ctx context.Context, userID uint) error
}

// playerStatsRepo 玩家统计仓储实现
type playerStatsRepo struct {
	*BaseRepo
}

// NewPlayerStatsRepository 创建玩家统计仓储
func NewPlayerStatsRepository(db *gorm.DB) PlayerStatsRepository {
	return &playerStatsRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建统计记录
func (r *playerStatsRepo) Create(ctx context.Context, stats *models.PlayerStats) error {
	return r.db.WithContext(ctx).Create(stats).Error
}

// Update 保存统计记录
func (r *playerStatsRepo) Update(ctx context.Context, stats *models.PlayerStats) error {
	return r.db.WithContext(ctx).Save(stats).Error
}

// FindByUserID 根据用户ID查找统计
func (r *playerStatsRepo) FindByUserID(ctx context.Context, userID uint) (*models.PlayerStats, error) {
	var stats models.PlayerStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetOrCreate 获取统计记录，不存在则创建零值记录
func (r *playerStatsRepo) GetOrCreate(ctx context.Context, userID uint) (*models.PlayerStats, error) {
	stats, err := r.FindByUserID(ctx, userID)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	stats = &models.PlayerStats{UserID: userID}
	if err := r.Create(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// IncrementSessions 会话数加一（登录流程调用）
func (r *playerStatsRepo) IncrementSessions(ctx context.Context, userID uint) error {
	stats, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.PlayerStats{}).
		Where("id = ?", stats.ID).
		Update("sessions_played", gorm.Expr("sessions_played + ?", 1)).Error
}

// WithTx 使用事务
func (r *playerStatsRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &playerStatsRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

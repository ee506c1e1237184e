package repository

import (
	"context"
	"errors"

	"github.com/wfunc/pulltab-game/internal/models"
	"gorm.io/gorm"
)

// ErrTicketNotFound 彩票不存在（或不属于请求用户）
var ErrTicketNotFound = errors.New("彩票不存在")

// TicketRepository 彩票仓储接口
type TicketRepository interface {
	BaseRepository
	Create(ctx context.Context, ticket *models.Ticket) error
	Update(ctx context.Context, ticket *models.Ticket) error
	FindByID(ctx context.Context, id uint) (*models.Ticket, error)
	FindByIDAndUser(ctx context.Context, id, userID uint) (*models.Ticket, error)
	FindByUser(ctx context.Context, userID uint, pagination *Pagination) ([]*models.Ticket, error)
	CountByBox(ctx context.Context, boxID uint) (int64, error)
	CountWinnersByBox(ctx context.Context, boxID uint) (int64, error)
}

// ticketRepo 彩票仓储实现
type ticketRepo struct {
	*BaseRepo
}

// NewTicketRepository 创建彩票仓储
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建彩票
func (r *ticketRepo) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

// Update 保存彩票（刮开进度）
func (r *ticketRepo) Update(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

// FindByID 根据ID查找彩票
func (r *ticketRepo) FindByID(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).First(&ticket, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// FindByIDAndUser 查找属于指定用户的彩票
// 他人的彩票与不存在的彩票返回同一错误，避免泄露存在性。
func (r *ticketRepo) FindByIDAndUser(ctx context.Context, id, userID uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// FindByUser 分页查询用户购票历史（最新在前）
func (r *ticketRepo) FindByUser(ctx context.Context, userID uint, pagination *Pagination) ([]*models.Ticket, error) {
	var tickets []*models.Ticket

	query := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("user_id = ?", userID)

	if err := query.Count(&pagination.Total).Error; err != nil {
		return nil, err
	}

	err := query.
		Order("created_at DESC, id DESC").
		Scopes(Paginate(pagination)).
		Find(&tickets).Error
	return tickets, err
}

// CountByBox 统计一箱已售票数
func (r *ticketRepo) CountByBox(ctx context.Context, boxID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("box_id = ?", boxID).
		Count(&count).Error
	return count, err
}

// CountWinnersByBox 统计一箱已售中奖票数
func (r *ticketRepo) CountWinnersByBox(ctx context.Context, boxID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("box_id = ? AND is_winner = ?", boxID, true).
		Count(&count).Error
	return count, err
}

// WithTx 使用事务
func (r *ticketRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &ticketRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

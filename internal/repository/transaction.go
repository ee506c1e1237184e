package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// TransactionManager 事务管理器接口
type TransactionManager interface {
	// Begin 开始事务
	Begin(ctx context.Context) (*Transaction, error)
	// WithTransaction 在事务中执行函数
	WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error
}

// Transaction 事务包装器
// 购票流程的全部写操作都经由同一个事务实例，保证整体提交或整体回滚。
type Transaction struct {
	tx         *gorm.DB
	ctx        context.Context
	committed  bool
	rolledback bool

	// 事务中的仓储实例（懒加载）
	gameBox     GameBoxRepository
	ticket      TicketRepository
	playerStats PlayerStatsRepository
	user        UserRepository
	userAuth    UserAuthRepository
	userSession UserSessionRepository
}

// txManager 事务管理器实现
type txManager struct {
	db *gorm.DB
}

// NewTransactionManager 创建事务管理器
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &txManager{db: db}
}

// Begin 开始事务
func (m *txManager) Begin(ctx context.Context) (*Transaction, error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	return &Transaction{
		tx:  tx,
		ctx: ctx,
	}, nil
}

// WithTransaction 在事务中执行函数
func (m *txManager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	// 确保事务被处理
	defer func() {
		if !tx.committed && !tx.rolledback {
			tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if t.committed {
		return fmt.Errorf("事务已提交")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Commit().Error; err != nil {
		return err
	}

	t.committed = true
	return nil
}

// Rollback 回滚事务
func (t *Transaction) Rollback() error {
	if t.committed {
		return fmt.Errorf("事务已提交，无法回滚")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Rollback().Error; err != nil {
		return err
	}

	t.rolledback = true
	return nil
}

// GetDB 获取事务中的数据库实例
func (t *Transaction) GetDB() *gorm.DB {
	return t.tx
}

// GameBox 获取事务中的奖箱仓储
func (t *Transaction) GameBox() GameBoxRepository {
	if t.gameBox == nil {
		t.gameBox = &gameBoxRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.gameBox
}

// Ticket 获取事务中的彩票仓储
func (t *Transaction) Ticket() TicketRepository {
	if t.ticket == nil {
		t.ticket = &ticketRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.ticket
}

// PlayerStats 获取事务中的玩家统计仓储
func (t *Transaction) PlayerStats() PlayerStatsRepository {
	if t.playerStats == nil {
		t.playerStats = &playerStatsRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.playerStats
}

// User 获取事务中的用户仓储
func (t *Transaction) User() UserRepository {
	if t.user == nil {
		t.user = &userRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.user
}

// UserAuth 获取事务中的用户认证仓储
func (t *Transaction) UserAuth() UserAuthRepository {
	if t.userAuth == nil {
		t.userAuth = &userAuthRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.userAuth
}

// UserSession 获取事务中的用户会话仓储
func (t *Transaction) UserSession() UserSessionRepository {
	if t.userSession == nil {
		t.userSession = &userSessionRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.userSession
}

// IsRetryableError 判断事务错误是否可重试（死锁、锁超时）
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	// MySQL死锁
	if strings.Contains(msg, "Deadlock") {
		return true
	}
	// PostgreSQL死锁
	if strings.Contains(msg, "deadlock detected") {
		return true
	}
	// 锁等待超时
	if strings.Contains(msg, "Lock wait timeout") {
		return true
	}
	return false
}

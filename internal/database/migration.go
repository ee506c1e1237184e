package database

import (
	"fmt"

	"github.com/wfunc/pulltab-game/internal/game/pulltab"
	"github.com/wfunc/pulltab-game/internal/logger"
	"github.com/wfunc/pulltab-game/internal/models"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	dbPath := getDBPath()
	if dbPath != "" {
		lock, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer lock.release()
	}

	// 定义需要迁移的模型
	migrationModels := []interface{}{
		// 用户相关
		&models.User{},
		&models.UserAuth{},
		&models.UserSession{},

		// 拉拉彩相关
		&models.GameBox{},
		&models.Ticket{},
		&models.PlayerStats{},
	}

	// 执行迁移
	logger.Info("开始数据库迁移...")

	// 设置 SQLite 专用配置，避免锁定问题
	if DB.Dialector.Name() == "sqlite" {
		// 禁用外键约束，避免重建表时的问题
		DB.Exec("PRAGMA foreign_keys = OFF")
		defer DB.Exec("PRAGMA foreign_keys = ON")
	}

	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	// 创建索引
	if err := createIndexes(); err != nil {
		return err
	}

	// 初始化默认数据
	if err := initDefaultData(); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建数据库索引
func createIndexes() error {
	// 用户表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_users_username"), zap.Error(err))
	}

	// 彩票表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_tickets_user_id ON tickets(user_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_tickets_user_id"), zap.Error(err))
	}

	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_tickets_box_id ON tickets(box_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_tickets_box_id"), zap.Error(err))
	}

	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_tickets_created_at"), zap.Error(err))
	}

	// 奖箱表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_game_boxes_completed_at ON game_boxes(completed_at)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_game_boxes_completed_at"), zap.Error(err))
	}

	logger.Info("数据库索引创建完成")
	return nil
}

// initDefaultData 初始化默认数据
func initDefaultData() error {
	// 检查是否已有活跃奖箱
	var count int64
	DB.Model(&models.GameBox{}).
		Where("completed_at IS NULL AND remaining_tickets > 0").
		Count(&count)
	if count > 0 {
		return nil
	}

	// 创建首个奖箱
	box := models.NewGameBox()
	if err := DB.Create(box).Error; err != nil {
		logger.Error("创建初始奖箱失败", zap.Error(err))
		return err
	}

	logger.Info("初始奖箱已创建",
		zap.Uint("box_id", box.ID),
		zap.Int("total_tickets", box.TotalTickets),
		zap.Int("winners", pulltab.TotalWinners),
	)
	return nil
}

// DropAllTables 删除所有表（仅用于测试环境）
func DropAllTables() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 获取所有表名
	var tables []string
	if err := DB.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tables).Error; err != nil {
		return err
	}

	// 删除所有表
	for _, table := range tables {
		if err := DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			logger.Error("删除表失败", zap.String("table", table), zap.Error(err))
			return err
		}
	}

	logger.Info("所有表已删除")
	return nil
}

package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/pulltab-game/internal/logger"
)

const (
	lockRetries       = 30
	lockRetryInterval = time.Second
	lockStaleAfter    = 5 * time.Minute
)

// migrationLock 基于独占锁文件的进程间互斥，
// 防止多个实例同时对同一个SQLite文件做迁移
type migrationLock struct {
	file *os.File
}

func acquireMigrationLock(dbPath string) (*migrationLock, error) {
	lockPath := dbPath + ".migration.lock"

	for i := 0; i < lockRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			logger.Debug("获取迁移锁成功", zap.String("lock", lockPath))
			return &migrationLock{file: f}, nil
		}

		// 持有者崩溃会留下陈旧的锁文件
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			logger.Warn("迁移锁文件过期，删除后重试", zap.String("lock", lockPath))
			os.Remove(lockPath)
			continue
		}

		logger.Debug("等待迁移锁", zap.Int("attempt", i+1))
		time.Sleep(lockRetryInterval)
	}

	return nil, fmt.Errorf("无法获取迁移锁，可能有其他进程正在执行迁移")
}

func (l *migrationLock) release() {
	if l == nil || l.file == nil {
		return
	}
	lockPath := l.file.Name()
	l.file.Close()
	os.Remove(lockPath)
	logger.Debug("释放迁移锁", zap.String("lock", lockPath))
}

// getDBPath SQLite返回数据库文件路径，其他驱动返回空（无需文件锁）
func getDBPath() string {
	if DB == nil {
		return ""
	}

	switch DB.Dialector.Name() {
	case "sqlite", "sqlite3":
		if sqlDB, err := DB.DB(); err == nil {
			var seq int
			var name, file string
			row := sqlDB.QueryRow("PRAGMA database_list")
			if err := row.Scan(&seq, &name, &file); err == nil && file != "" {
				return file
			}
		}
		return "./data/pulltab-game.db"
	default:
		return ""
	}
}

// CleanupStaleLocks 启动时清理上次异常退出遗留的锁文件
func CleanupStaleLocks() {
	patterns := []string{"./data/*.lock", "./*.lock"}

	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
		for _, lockFile := range matches {
			info, err := os.Stat(lockFile)
			if err != nil {
				continue
			}
			if time.Since(info.ModTime()) > 2*lockStaleAfter {
				logger.Info("清理过期锁文件", zap.String("file", lockFile))
				os.Remove(lockFile)
			}
		}
	}
}

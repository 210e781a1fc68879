package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"hoa-vote-service/internal/infrastructure/config"

	"github.com/go-sql-driver/mysql"
	"gorm.io/driver/sqlite"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mysql 唯一键冲突错误码
const mysqlDuplicateEntry = 1062

// ConnectionPool 数据库连接池管理
type ConnectionPool struct {
	DB              *gorm.DB
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// NewConnectionPool 根据配置创建数据库连接池并验证连通性
func NewConnectionPool(cfg *config.Config) (*ConnectionPool, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		dialector = gormmysql.Open(cfg.GetDSN())
	}

	level := logger.Warn
	if cfg.DBLogSQL {
		level = logger.Info
	}

	pool, err := NewConnectionPoolWithDialector(dialector, level)
	if err != nil {
		return nil, err
	}

	// sqlite 只允许单写连接
	if cfg.DBDriver == "sqlite" {
		pool.MaxIdleConns = 1
		pool.MaxOpenConns = 1
	}

	if err := pool.ConfigurePool(); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return pool, nil
}

// NewConnectionPoolWithDialector 使用给定方言创建连接池（不执行 Ping）
func NewConnectionPoolWithDialector(dialector gorm.Dialector, level logger.LogLevel) (*ConnectionPool, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             500 * time.Millisecond,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
			},
		),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &ConnectionPool{
		DB:              db,
		MaxIdleConns:    10,
		MaxOpenConns:    50,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}, nil
}

// ConfigurePool 配置连接池参数并测试连接
func (p *ConnectionPool) ConfigurePool() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(p.MaxIdleConns)
	sqlDB.SetMaxOpenConns(p.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(p.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(p.ConnMaxIdleTime)

	return p.HealthCheck()
}

// Stats 获取连接池统计信息
func (p *ConnectionPool) Stats() (map[string]interface{}, error) {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return nil, err
	}

	stats := sqlDB.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
	}, nil
}

// Close 关闭连接池
func (p *ConnectionPool) Close() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTransaction 在事务中执行函数，fn 返回错误时回滚
func (p *ConnectionPool) WithTransaction(fn func(tx *gorm.DB) error) error {
	return p.DB.Transaction(fn)
}

// HealthCheck 健康检查
func (p *ConnectionPool) HealthCheck() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// GetDB 获取GORM数据库实例
func (p *ConnectionPool) GetDB() *gorm.DB {
	return p.DB
}

// IsDuplicateEntry 判断错误是否为唯一键冲突
func IsDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}

package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"prima-sync-service/internal/infrastructure/config"
	"prima-sync-service/pkg/logger"
)

const (
	// 慢查询阈值
	slowQueryThreshold = 500 * time.Millisecond
	pingTimeout        = 5 * time.Second
)

// PoolOptions 连接池参数
type PoolOptions struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolOptions 同步服务的请求量很小，连接数不需要太多
var DefaultPoolOptions = PoolOptions{
	MaxIdleConns:    5,
	MaxOpenConns:    20,
	ConnMaxLifetime: time.Hour,
	ConnMaxIdleTime: 30 * time.Minute,
}

// PoolStats 连接池统计信息
type PoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

// ConnectionPool 数据库连接池管理
type ConnectionPool struct {
	db   *gorm.DB
	opts PoolOptions
}

// NewConnectionPool 按配置连接 MySQL
func NewConnectionPool(cfg *config.Config) (*ConnectionPool, error) {
	pool, err := NewConnectionPoolWithDialector(mysql.Open(cfg.GetDSN()), gormLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("连接数据库 %s:%s/%s 失败: %w", cfg.DBHost, cfg.DBPort, cfg.DBName, err)
	}
	return pool, nil
}

// NewConnectionPoolWithDialector 使用指定的驱动创建连接池，测试中传入 sqlite
func NewConnectionPoolWithDialector(dialector gorm.Dialector, level gormlogger.LogLevel) (*ConnectionPool, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	pool := &ConnectionPool{db: db}
	if err := pool.Configure(DefaultPoolOptions); err != nil {
		return nil, err
	}
	return pool, nil
}

// gormWriter 把 gorm 日志转到应用日志
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Warning("[GORM] "+format, args...)
}

// gormLogLevel 应用日志为 debug 时输出 SQL
func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug", "trace":
		return gormlogger.Info
	case "disabled":
		return gormlogger.Silent
	default:
		return gormlogger.Warn
	}
}

// Configure 应用连接池参数并测试连接
func (p *ConnectionPool) Configure(opts PoolOptions) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	p.opts = opts

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}

	logger.Info("数据库连接池已配置: 最大空闲连接数=%d, 最大连接数=%d", opts.MaxIdleConns, opts.MaxOpenConns)
	return nil
}

// UpdatePoolConfig 更新连接池配置
func (p *ConnectionPool) UpdatePoolConfig(maxIdle, maxOpen int, maxLifetime, maxIdleTime time.Duration) error {
	return p.Configure(PoolOptions{
		MaxIdleConns:    maxIdle,
		MaxOpenConns:    maxOpen,
		ConnMaxLifetime: maxLifetime,
		ConnMaxIdleTime: maxIdleTime,
	})
}

// Options 当前连接池参数
func (p *ConnectionPool) Options() PoolOptions {
	return p.opts
}

// Stats 获取连接池统计信息
func (p *ConnectionPool) Stats() (*PoolStats, error) {
	sqlDB, err := p.db.DB()
	if err != nil {
		return nil, err
	}

	stats := sqlDB.Stats()
	return &PoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}, nil
}

// HealthCheck 在 ctx 的期限内 ping 数据库
func (p *ConnectionPool) HealthCheck(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭连接池
func (p *ConnectionPool) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB 获取GORM数据库实例
func (p *ConnectionPool) GetDB() *gorm.DB {
	return p.db
}

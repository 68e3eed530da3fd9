package container

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"prima-sync-service/internal/domain/services"
	"prima-sync-service/internal/infrastructure/config"
	"prima-sync-service/internal/infrastructure/database"
	"prima-sync-service/pkg/logger"
)

// submissionTimeout 单条表单提交消息的处理上限，覆盖一次登录和一次查询
const submissionTimeout = 60 * time.Second

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	pool   *database.ConnectionPool
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 日志
	activityLogger *logger.ActivityLogger

	// 数据存储服务
	entryService    services.InterfaceEntryService
	settingsService services.InterfaceSettingsService
	redisService    services.InterfaceRedisService

	// 消息服务
	mqttService services.InterfaceMQTTService

	// 同步服务
	syncService services.InterfaceSyncService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器。redisClient 为 nil 时按配置创建，连接失败则不使用Redis
func NewServiceContainer(pool *database.ConnectionPool, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if pool == nil || pool.GetDB() == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	container := &ServiceContainer{
		pool:   pool,
		db:     pool.GetDB(),
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化数据存储服务
	c.entryService = services.NewEntryService(c.db, c.config)
	c.settingsService = services.NewSettingsService(c.db, c.config)

	// 初始化活动日志，日志模式每次写入时从设置读取
	var activity logger.InterfaceActivityLogger = logger.NopActivityLogger{}
	activityLogger, err := logger.NewActivityLogger(c.config.LogDir, c.settingsService.GetLogMode)
	if err != nil {
		logger.Error("活动日志初始化失败: %v", err)
	} else {
		c.activityLogger = activityLogger
		activity = activityLogger
	}

	// 初始化Redis服务
	if c.redis != nil {
		c.redisService = services.NewRedisServiceWithClient(c.redis)
	} else {
		c.redisService = services.NewRedisService(c.config)
	}
	if err := c.redisService.Ping(); err != nil {
		logger.Warning("Redis连接测试失败: %v，批量进度只保存在内存中", err)
		c.redisService = nil
	}

	// 初始化MQTT服务
	if c.config.MQTTEnabled {
		c.mqttService = services.NewMQTTService(c.config)
		if err := c.mqttService.Connect(); err != nil {
			logger.Error("MQTT服务连接失败: %v", err)
		}
	}

	// 初始化同步服务
	c.syncService = services.NewSyncService(
		c.db,
		c.config,
		c.entryService,
		c.settingsService,
		c.redisService,
		c.mqttService,
		activity,
	)

	// 表单提交消息和 HTTP 钩子使用同一个处理入口
	if c.mqttService != nil {
		syncService := c.syncService
		c.mqttService.OnEntrySubmitted(func(submission *services.EntrySubmission) {
			ctx, cancel := context.WithTimeout(context.Background(), submissionTimeout)
			defer cancel()
			if _, err := syncService.HandleSubmission(ctx, submission.FormID, submission.Fields); err != nil {
				logger.Warning("[MQTT] 处理表单提交失败: form=%d, err=%v", submission.FormID, err)
			}
		})
	}
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "pool":
		return c.pool
	case "entry":
		return c.entryService
	case "settings":
		return c.settingsService
	case "redis":
		return c.redisService
	case "mqtt":
		return c.mqttService
	case "sync":
		return c.syncService
	case "activity":
		return c.activityLogger
	default:
		return nil
	}
}

// Close 断开MQTT并关闭活动日志
func (c *ServiceContainer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mqttService != nil {
		c.mqttService.Disconnect()
	}
	if c.activityLogger != nil {
		if err := c.activityLogger.Close(); err != nil {
			logger.Warning("关闭活动日志失败: %v", err)
		}
	}
}

package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "prima-sync-service/docs"
	"prima-sync-service/internal/app/controllers"
	"prima-sync-service/internal/app/middleware"
	"prima-sync-service/internal/domain/services/container"
	"prima-sync-service/internal/error/response"
	"prima-sync-service/internal/infrastructure/config"
	"prima-sync-service/pkg/logger"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(serviceContainer *container.ServiceContainer, cfg *config.Config) *gin.Engine {
	// 初始化 Gin
	r := gin.New()
	r.Use(gin.Logger(), gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("请求处理异常: %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		response.ServerError(c)
	}))

	// 添加 CORS 中间件
	allowOrigin := cfg.CORSAllowOrigin
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "接口不存在: "+c.Request.URL.Path)
	})
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 添加IP限流中间件 - 每秒允许10个请求，最多突发20个请求
	api.Use(middleware.IPRateLimiter(10, 20))

	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册同步路由
	registerSyncRoutes(api, container)
}

// registerPublicRoutes 注册健康检查和表单提交钩子
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查路由
	api.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	api.GET("/health", controllers.HandleHealthFunc(container, "ping")) // 兼容Docker健康检查

	// 健康状态路由组
	healthGroup := api.Group("/health")
	healthGroup.GET("/status", middleware.CacheFor(5*time.Second), controllers.HandleHealthFunc(container, "status"))

	// 表单提交钩子，表单系统每提交一条记录调用一次
	hookGroup := api.Group("/hooks")
	hookGroup.Use(middleware.PathRateLimiter(20, 40)) // 每秒20个请求，最多突发40个
	hookGroup.POST("/entries", controllers.HandleEntryFunc(container, "entryHook"))
}

// registerSyncRoutes 注册操作员同步路由
func registerSyncRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 同步路由，每个请求都会访问控制器
	syncGroup := api.Group("/sync")
	syncGroup.Use(middleware.PathRateLimiter(5, 10)) // 每秒5个请求，最多突发10个
	{
		syncGroup.POST("/test-connection", controllers.HandleSyncFunc(container, "testConnection"))
		syncGroup.POST("/batch", controllers.HandleSyncFunc(container, "runLookupBatch"))
		syncGroup.GET("/batch/progress", controllers.HandleSyncFunc(container, "getBatchProgress"))
		// 同一条记录每秒最多查询或推送一次，最多突发5次
		perEntry := middleware.EntryRateLimiter(1, 5)
		syncGroup.POST("/entries/:id/lookup", perEntry, controllers.HandleSyncFunc(container, "lookupOne"))
		syncGroup.PUT("/entries/:id/rfid", controllers.HandleSyncFunc(container, "updateLocalRFID"))
		syncGroup.POST("/entries/:id/push", perEntry, controllers.HandleSyncFunc(container, "syncOne"))
		syncGroup.GET("/pending", controllers.HandleSyncFunc(container, "getPendingRecords"))
		syncGroup.GET("/operations", controllers.HandleSyncFunc(container, "getOperationLogs"))
	}

	// 表单记录路由
	entryGroup := api.Group("/entries")
	entryGroup.GET("/:id", controllers.HandleEntryFunc(container, "getEntry"))

	// 设置路由
	settingsGroup := api.Group("/settings")
	settingsGroup.Use(middleware.CombinedRateLimiter(2, 10)) // 每个IP每秒2个请求，最多突发10个
	settingsGroup.GET("", controllers.HandleSettingsFunc(container, "getSettings"))
	settingsGroup.PUT("", controllers.HandleSettingsFunc(container, "updateSettings"))

	// 活动日志路由
	logGroup := api.Group("/logs")
	logGroup.GET("", controllers.HandleLogFunc(container, "getLogs"))
	logGroup.DELETE("", controllers.HandleLogFunc(container, "clearLogs"))
}

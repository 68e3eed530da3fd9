package controllers

import (
	"context"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"prima-sync-service/internal/domain/services"
	"prima-sync-service/internal/domain/services/container"
	"prima-sync-service/internal/error/code"
	"prima-sync-service/internal/error/response"
	"prima-sync-service/internal/infrastructure/database"
)

// startedAt 进程启动时间
var startedAt = time.Now()

const healthCheckTimeout = 2 * time.Second

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(ctx *gin.Context, container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{
		Ctx:       ctx,
		Container: container,
	}
}

// Ping 健康检查端点
// @Summary      健康检查
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /ping [get]
func (h *HealthCheckController) Ping() {
	response.Success(h.Ctx, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// Status 依赖服务状态
// @Summary      服务状态
// @Description  数据库、Redis 和 MQTT 的连接状态。数据库不可用时返回 503
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  ErrorResponse
// @Router       /health/status [get]
func (h *HealthCheckController) Status() {
	status := gin.H{
		"uptime":     time.Since(startedAt).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
	}

	healthy := true
	dbStatus := gin.H{"status": "up"}
	if pool, ok := h.Container.GetService("pool").(*database.ConnectionPool); ok && pool != nil {
		ctx, cancel := context.WithTimeout(h.Ctx.Request.Context(), healthCheckTimeout)
		defer cancel()
		if err := pool.HealthCheck(ctx); err != nil {
			healthy = false
			dbStatus = gin.H{"status": "down", "error": err.Error()}
		} else if stats, err := pool.Stats(); err == nil {
			dbStatus["stats"] = stats
		}
	}
	status["database"] = dbStatus

	redisStatus := gin.H{"status": "disabled"}
	if redisService, ok := h.Container.GetService("redis").(services.InterfaceRedisService); ok {
		if err := redisService.Ping(); err != nil {
			redisStatus = gin.H{"status": "down", "error": err.Error()}
		} else {
			redisStatus["status"] = "up"
		}
	}
	status["redis"] = redisStatus

	mqttStatus := "disabled"
	if mqttService, ok := h.Container.GetService("mqtt").(services.InterfaceMQTTService); ok {
		mqttStatus = "down"
		if mqttService.IsConnected() {
			mqttStatus = "up"
		}
	}
	status["mqtt"] = gin.H{"status": mqttStatus}

	if !healthy {
		response.Fail(h.Ctx, code.ErrConnectionFailed, status)
		return
	}
	response.Success(h.Ctx, status)
}

// HandleHealthFunc 返回一个处理健康检查请求的Gin处理函数
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHealthCheckController(ctx, container)

		switch method {
		case "ping":
			controller.Ping()
		case "status":
			controller.Status()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

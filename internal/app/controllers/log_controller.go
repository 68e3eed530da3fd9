package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"prima-sync-service/internal/domain/services/container"
	"prima-sync-service/internal/error/code"
	"prima-sync-service/internal/error/response"
	"prima-sync-service/pkg/logger"
)

// defaultLogLines 默认返回的日志行数
const defaultLogLines = 200

// LogController 处理活动日志请求
type LogController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewLogController 创建一个新的日志控制器
func NewLogController(ctx *gin.Context, container *container.ServiceContainer) *LogController {
	return &LogController{
		Ctx:       ctx,
		Container: container,
	}
}

func (c *LogController) activity() *logger.ActivityLogger {
	activity, _ := c.Container.GetService("activity").(*logger.ActivityLogger)
	return activity
}

// GetLogs 获取活动日志
// @Summary      获取活动日志
// @Description  返回 prima_activity.log 的最后若干行
// @Tags         Log
// @Produce      json
// @Param        lines query int false "行数，默认为200，最大2000"
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  ErrorResponse
// @Router       /logs [get]
func (c *LogController) GetLogs() {
	activity := c.activity()
	if activity == nil {
		response.Fail(c.Ctx, code.ErrLogUnavailable, nil)
		return
	}

	lines, _ := strconv.Atoi(c.Ctx.DefaultQuery("lines", strconv.Itoa(defaultLogLines)))
	if lines < 1 || lines > 2000 {
		lines = defaultLogLines
	}

	entries, err := activity.Tail(lines)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrLogUnavailable, "读取活动日志失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"lines": entries,
		"count": len(entries),
	})
}

// ClearLogs 清空活动日志
// @Summary      清空活动日志
// @Tags         Log
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  ErrorResponse
// @Router       /logs [delete]
func (c *LogController) ClearLogs() {
	activity := c.activity()
	if activity == nil {
		response.Fail(c.Ctx, code.ErrLogUnavailable, nil)
		return
	}

	if err := activity.ClearLogs(); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrLogUnavailable, err.Error(), nil)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Log cleared.", nil)
}

// HandleLogFunc 返回一个处理日志请求的Gin处理函数
func HandleLogFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewLogController(ctx, container)

		switch method {
		case "getLogs":
			controller.GetLogs()
		case "clearLogs":
			controller.ClearLogs()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

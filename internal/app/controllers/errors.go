package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"prima-sync-service/internal/domain/services"
	"prima-sync-service/internal/error/code"
	"prima-sync-service/internal/error/response"
	"prima-sync-service/internal/infrastructure/prima"
)

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Code    int         `json:"code" example:"103001"`
	Message string      `json:"message" example:"Error 5: Wrong user name or password."`
	Data    interface{} `json:"data"`
}

// errorCode 将同步错误映射为错误码
func errorCode(err error) int {
	var (
		cfgErr       *prima.ConfigError
		authErr      *prima.AuthError
		transportErr *prima.TransportError
		parseErr     *prima.ParseError
		statusErr    *prima.APIStatusError
		mappingErr   *services.MissingMappingError
	)

	switch {
	case errors.Is(err, services.ErrEntryNotFound):
		return code.ErrEntryNotFound
	case errors.Is(err, services.ErrRFIDRequired):
		return code.ErrRFIDRequired
	case errors.Is(err, services.ErrFormNotConfigured),
		errors.Is(err, services.ErrAddressFieldNotConfigured),
		errors.Is(err, services.ErrRFIDFieldNotConfigured):
		return code.ErrSettingsIncomplete
	case errors.Is(err, services.ErrInvalidLogMode):
		return code.ErrSettingsInvalid
	case errors.As(err, &mappingErr):
		return code.ErrMissingMapping
	case errors.As(err, &cfgErr):
		return code.ErrControllerConfig
	// 登录失败可能包装了网络错误，先判断
	case errors.As(err, &authErr):
		return code.ErrControllerAuth
	case errors.As(err, &transportErr):
		return code.ErrControllerTransport
	case errors.As(err, &parseErr):
		return code.ErrControllerResponse
	case errors.As(err, &statusErr):
		return code.ErrControllerStatus
	default:
		return code.ErrDatabase
	}
}

// failWithError 使用错误本身的消息响应，操作员看到的是控制器错误原文
func failWithError(ctx *gin.Context, err error, data interface{}) {
	response.FailWithMessage(ctx, errorCode(err), err.Error(), data)
}

// parseIDParam 解析路径中的记录ID
func parseIDParam(ctx *gin.Context) (uint, bool) {
	id, ok := parseUint(ctx.Param("id"))
	if !ok {
		response.ParamError(ctx, "无效的记录ID")
		return 0, false
	}
	return id, true
}

func parseUint(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parsePage 解析分页参数
func parsePage(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

package controllers

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/domain/services"
	"prima-sync-service/internal/domain/services/container"
	"prima-sync-service/internal/error/code"
	"prima-sync-service/internal/error/response"
)

// InterfaceSyncController 定义同步控制器接口
type InterfaceSyncController interface {
	TestConnection()
	RunLookupBatch()
	GetBatchProgress()
	LookupOne()
	UpdateLocalRFID()
	SyncOne()
	GetPendingRecords()
	GetOperationLogs()
}

// SyncController 处理操作员同步请求
type SyncController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewSyncController 创建一个新的同步控制器
func NewSyncController(ctx *gin.Context, container *container.ServiceContainer) *SyncController {
	return &SyncController{
		Ctx:       ctx,
		Container: container,
	}
}

// BatchRequest 批量查询请求
type BatchRequest struct {
	Offset int `json:"offset" binding:"min=0" example:"0"` // 从第几条记录开始
}

// PageResponse 分页列表响应
type PageResponse struct {
	models.PaginationResult
	Data interface{} `json:"data"`
}

// RFIDRequest 更新本地卡号请求，rfid 为空时清除本地卡号
type RFIDRequest struct {
	RFID string `json:"rfid" example:"A1B2C3"`
}

// PushRequest 推送卡号请求，rfid 为空时使用记录中保存的卡号
type PushRequest struct {
	RFID string `json:"rfid" example:"A1B2C3"`
}

func (c *SyncController) service() services.InterfaceSyncService {
	return c.Container.GetService("sync").(services.InterfaceSyncService)
}

// requestContext 控制器调用不随客户端断开而取消
func (c *SyncController) requestContext() context.Context {
	return context.WithoutCancel(c.Ctx.Request.Context())
}

// TestConnection 测试控制器连接
// @Summary      测试控制器连接
// @Description  使用当前设置登录 Prima 控制器
// @Tags         Sync
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Failure      504  {object}  ErrorResponse
// @Router       /sync/test-connection [post]
func (c *SyncController) TestConnection() {
	message, err := c.service().TestConnection(c.requestContext())
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}
	response.SuccessWithMessage(c.Ctx, message, nil)
}

// RunLookupBatch 批量按地址查询控制器用户
// @Summary      批量查询
// @Description  从 offset 开始查询一页表单记录，返回进度。单条失败不会中断批量
// @Tags         Sync
// @Accept       json
// @Produce      json
// @Param        request body BatchRequest false "起始位置"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /sync/batch [post]
func (c *SyncController) RunLookupBatch() {
	var req BatchRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	progress, err := c.service().RunLookupBatch(c.requestContext(), req.Offset)
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}
	response.Success(c.Ctx, progress)
}

// GetBatchProgress 获取批量查询进度
// @Summary      批量查询进度
// @Tags         Sync
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /sync/batch/progress [get]
func (c *SyncController) GetBatchProgress() {
	progress, err := c.service().GetBatchProgress()
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}
	response.Success(c.Ctx, progress)
}

// LookupOne 查询单条记录
// @Summary      查询单条记录
// @Description  按记录地址查询控制器用户并更新同步状态
// @Tags         Sync
// @Produce      json
// @Param        id path int true "记录ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      504  {object}  ErrorResponse
// @Router       /sync/entries/{id}/lookup [post]
func (c *SyncController) LookupOne() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	record, err := c.service().LookupOne(c.requestContext(), id)
	if err != nil {
		failWithError(c.Ctx, err, record)
		return
	}
	response.Success(c.Ctx, record)
}

// UpdateLocalRFID 只更新本地卡号
// @Summary      更新本地卡号
// @Tags         Sync
// @Accept       json
// @Produce      json
// @Param        id path int true "记录ID"
// @Param        request body RFIDRequest true "卡号"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /sync/entries/{id}/rfid [put]
func (c *SyncController) UpdateLocalRFID() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	var req RFIDRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	message, err := c.service().UpdateLocalRFID(id, req.RFID)
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}
	response.SuccessWithMessage(c.Ctx, message, nil)
}

// SyncOne 推送卡号到控制器
// @Summary      推送卡号
// @Description  将卡号写入控制器用户。记录必须先查询到控制器用户
// @Tags         Sync
// @Accept       json
// @Produce      json
// @Param        id path int true "记录ID"
// @Param        request body PushRequest false "卡号"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /sync/entries/{id}/push [post]
func (c *SyncController) SyncOne() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	var req PushRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	record, message, err := c.service().SyncOne(c.requestContext(), id, req.RFID)
	if err != nil {
		failWithError(c.Ctx, err, record)
		return
	}
	response.SuccessWithMessage(c.Ctx, message, record)
}

// GetPendingRecords 获取等待推送卡号的记录
// @Summary      待同步记录
// @Description  状态为 Found 的记录
// @Tags         Sync
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Success      200  {object}  PageResponse
// @Router       /sync/pending [get]
func (c *SyncController) GetPendingRecords() {
	page, pageSize := parsePage(c.Ctx)

	records, total, err := c.service().GetPendingRecords(page, pageSize)
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}

	response.Success(c.Ctx, PageResponse{
		PaginationResult: models.NewPaginationResult(total, page, pageSize),
		Data:             records,
	})
}

// GetOperationLogs 获取操作日志
// @Summary      操作日志
// @Tags         Sync
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Param        entry_id query int false "记录ID"
// @Success      200  {object}  PageResponse
// @Router       /sync/operations [get]
func (c *SyncController) GetOperationLogs() {
	page, pageSize := parsePage(c.Ctx)

	var entryID uint
	if raw := c.Ctx.Query("entry_id"); raw != "" {
		id, ok := parseUint(raw)
		if !ok {
			response.ParamError(c.Ctx, "无效的记录ID")
			return
		}
		entryID = id
	}

	logs, total, err := c.service().GetOperationLogs(page, pageSize, entryID)
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}

	response.Success(c.Ctx, PageResponse{
		PaginationResult: models.NewPaginationResult(total, page, pageSize),
		Data:             logs,
	})
}

// HandleSyncFunc 返回一个处理同步请求的Gin处理函数
func HandleSyncFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewSyncController(ctx, container)

		switch method {
		case "testConnection":
			controller.TestConnection()
		case "runLookupBatch":
			controller.RunLookupBatch()
		case "getBatchProgress":
			controller.GetBatchProgress()
		case "lookupOne":
			controller.LookupOne()
		case "updateLocalRFID":
			controller.UpdateLocalRFID()
		case "syncOne":
			controller.SyncOne()
		case "getPendingRecords":
			controller.GetPendingRecords()
		case "getOperationLogs":
			controller.GetOperationLogs()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

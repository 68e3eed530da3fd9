package controllers

import (
	"context"

	"github.com/gin-gonic/gin"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/domain/services"
	"prima-sync-service/internal/domain/services/container"
	"prima-sync-service/internal/error/code"
	"prima-sync-service/internal/error/response"
)

// EntryController 处理表单记录和提交钩子请求
type EntryController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewEntryController 创建一个新的表单记录控制器
func NewEntryController(ctx *gin.Context, container *container.ServiceContainer) *EntryController {
	return &EntryController{
		Ctx:       ctx,
		Container: container,
	}
}

// EntryHookRequest 表单提交钩子请求。entry_id 不为空时处理已存在的记录
type EntryHookRequest struct {
	EntryID uint              `json:"entry_id" example:"0"`
	FormID  uint              `json:"form_id" example:"7"`
	Fields  map[string]string `json:"fields"`
}

// GetEntry 获取表单记录
// @Summary      获取表单记录
// @Description  返回记录的字段、元数据、备注和同步视图
// @Tags         Entry
// @Produce      json
// @Param        id path int true "记录ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /entries/{id} [get]
func (c *EntryController) GetEntry() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	entryService := c.Container.GetService("entry").(services.InterfaceEntryService)
	entry, err := entryService.GetEntry(id)
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}

	syncService := c.Container.GetService("sync").(services.InterfaceSyncService)
	record, err := syncService.GetRecord(id)
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"entry":  entry,
		"record": record,
	})
}

// EntryHook 表单提交钩子
// @Summary      表单提交钩子
// @Description  保存新提交的表单记录，属于同步表单时立即按地址查询控制器
// @Tags         Entry
// @Accept       json
// @Produce      json
// @Param        request body EntryHookRequest true "表单提交"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /hooks/entries [post]
func (c *EntryController) EntryHook() {
	var req EntryHookRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}
	if req.EntryID == 0 && req.FormID == 0 {
		response.ParamError(c.Ctx, "必须提供 entry_id 或 form_id")
		return
	}

	ctx := context.WithoutCancel(c.Ctx.Request.Context())
	syncService := c.Container.GetService("sync").(services.InterfaceSyncService)

	var (
		record *models.ResidentRecord
		err    error
	)
	if req.EntryID != 0 {
		record, err = syncService.HandleEntryCreated(ctx, req.EntryID)
	} else {
		record, err = syncService.HandleSubmission(ctx, req.FormID, req.Fields)
	}
	if err != nil {
		failWithError(c.Ctx, err, record)
		return
	}
	response.Success(c.Ctx, record)
}

// HandleEntryFunc 返回一个处理表单记录请求的Gin处理函数
func HandleEntryFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewEntryController(ctx, container)

		switch method {
		case "getEntry":
			controller.GetEntry()
		case "entryHook":
			controller.EntryHook()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

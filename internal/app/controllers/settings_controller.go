package controllers

import (
	"github.com/gin-gonic/gin"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/domain/services"
	"prima-sync-service/internal/domain/services/container"
	"prima-sync-service/internal/error/code"
	"prima-sync-service/internal/error/response"
)

// maskedPassword 返回给前端的密码占位符
const maskedPassword = "********"

// SettingsController 处理同步设置请求
type SettingsController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewSettingsController 创建一个新的设置控制器
func NewSettingsController(ctx *gin.Context, container *container.ServiceContainer) *SettingsController {
	return &SettingsController{
		Ctx:       ctx,
		Container: container,
	}
}

// SettingsRequest 更新同步设置请求。password 为空或等于占位符时保留原密码
type SettingsRequest struct {
	EndpointURL    string `json:"endpoint_url" example:"http://192.168.1.20"`
	Username       string `json:"username" example:"admin"`
	Password       string `json:"password" example:"secret"`
	FormID         uint   `json:"form_id" example:"7"`
	AddressFieldID string `json:"address_field_id" example:"3"`
	RFIDFieldID    string `json:"rfid_field_id" example:"9"`
	LogMode        string `json:"log_mode" example:"simple"`
}

func (c *SettingsController) service() services.InterfaceSettingsService {
	return c.Container.GetService("settings").(services.InterfaceSettingsService)
}

// GetSettings 获取同步设置
// @Summary      获取同步设置
// @Description  密码以占位符返回
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /settings [get]
func (c *SettingsController) GetSettings() {
	settings, err := c.service().GetSettings()
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}
	response.Success(c.Ctx, maskSettings(settings))
}

// UpdateSettings 更新同步设置
// @Summary      更新同步设置
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        request body SettingsRequest true "同步设置"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /settings [put]
func (c *SettingsController) UpdateSettings() {
	var req SettingsRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	password := req.Password
	if password == maskedPassword {
		password = ""
	}

	err := c.service().SaveSettings(&models.SyncSettings{
		EndpointURL:    req.EndpointURL,
		Username:       req.Username,
		Password:       password,
		FormID:         req.FormID,
		AddressFieldID: req.AddressFieldID,
		RFIDFieldID:    req.RFIDFieldID,
		LogMode:        req.LogMode,
	})
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}

	settings, err := c.service().GetSettings()
	if err != nil {
		failWithError(c.Ctx, err, nil)
		return
	}
	response.Success(c.Ctx, maskSettings(settings))
}

func maskSettings(settings *models.SyncSettings) *models.SyncSettings {
	if settings.Password != "" {
		settings.Password = maskedPassword
	}
	return settings
}

// HandleSettingsFunc 返回一个处理设置请求的Gin处理函数
func HandleSettingsFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewSettingsController(ctx, container)

		switch method {
		case "getSettings":
			controller.GetSettings()
		case "updateSettings":
			controller.UpdateSettings()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

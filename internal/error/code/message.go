package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrTooManyRequests: "请求频率过高，请稍后再试",

	// 表单记录相关错误码
	ErrEntryNotFound: "表单记录不存在",
	ErrRFIDRequired:  "RFID is required.",

	// 同步设置相关错误码
	ErrSettingsInvalid:    "同步设置无效",
	ErrSettingsIncomplete: "表单或字段映射未配置",

	// 控制器相关错误码
	ErrControllerConfig:    "URL not configured.",
	ErrControllerAuth:      "API Login failed. Please check credentials.",
	ErrControllerTransport: "控制器不可达",
	ErrControllerResponse:  "Invalid XML format.",
	ErrControllerStatus:    "控制器返回错误",
	ErrMissingMapping:      "Missing Name mapping. Re-run Initial Setup Sync.",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",

	// 依赖服务相关错误码
	ErrConnectionFailed: "连接失败",
	ErrLogUnavailable:   "活动日志不可用",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTooManyRequests: StatusTooManyRequests,

	// 表单记录相关错误码
	ErrEntryNotFound: StatusNotFound,
	ErrRFIDRequired:  StatusBadRequest,

	// 同步设置相关错误码
	ErrSettingsInvalid:    StatusBadRequest,
	ErrSettingsIncomplete: StatusBadRequest,

	// 控制器相关错误码
	ErrControllerConfig:    StatusBadRequest,
	ErrControllerAuth:      StatusBadGateway,
	ErrControllerTransport: StatusGatewayTimeout,
	ErrControllerResponse:  StatusBadGateway,
	ErrControllerStatus:    StatusBadGateway,
	ErrMissingMapping:      StatusConflict,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	// 依赖服务相关错误码
	ErrConnectionFailed: StatusServiceUnavailable,
	ErrLogUnavailable:   StatusServiceUnavailable,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}

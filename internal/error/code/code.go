package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 当前状态不允许该操作.
	StatusConflict = 409
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusBadGateway - 502: 控制器返回错误.
	StatusBadGateway = 502
	// StatusServiceUnavailable - 503: 依赖服务不可用.
	StatusServiceUnavailable = 503
	// StatusGatewayTimeout - 504: 控制器无响应.
	StatusGatewayTimeout = 504
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 表单记录相关错误码 (101xxx).
const (
	// ErrEntryNotFound - 404: 表单记录不存在.
	ErrEntryNotFound int = iota + 101000
	// ErrRFIDRequired - 400: 未提供卡号.
	ErrRFIDRequired
)

// 同步设置相关错误码 (102xxx).
const (
	// ErrSettingsInvalid - 400: 设置无效.
	ErrSettingsInvalid int = iota + 102000
	// ErrSettingsIncomplete - 400: 表单或字段映射未配置.
	ErrSettingsIncomplete
)

// 控制器相关错误码 (103xxx).
const (
	// ErrControllerConfig - 400: 控制器地址或凭据未配置.
	ErrControllerConfig int = iota + 103000
	// ErrControllerAuth - 502: 控制器登录失败.
	ErrControllerAuth
	// ErrControllerTransport - 504: 控制器不可达或超时.
	ErrControllerTransport
	// ErrControllerResponse - 502: 控制器响应无法解析.
	ErrControllerResponse
	// ErrControllerStatus - 502: 控制器返回非零状态.
	ErrControllerStatus
	// ErrMissingMapping - 409: 记录尚未缓存控制器姓名.
	ErrMissingMapping
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)

// 依赖服务相关错误码 (109xxx).
const (
	// ErrConnectionFailed - 503: 连接失败.
	ErrConnectionFailed int = iota + 109000
	// ErrLogUnavailable - 503: 活动日志不可用.
	ErrLogUnavailable
)

package prima

import (
	"errors"
	"fmt"
)

// 控制器返回的状态码
const (
	StatusOK              = 0
	StatusAuthFailed      = 5
	StatusMatchFailed     = 8
	StatusCardInUse       = 15
	StatusLicenseRequired = 22

	// statusMissing 响应中没有 status 属性时使用的非零值
	statusMissing = 1
)

// 固定的错误码消息
var statusMessages = map[int]string{
	StatusAuthFailed:      "Error 5: Wrong user name or password.",
	StatusMatchFailed:     "Error 8: Match failed. Check name mapping.",
	StatusCardInUse:       "Error 15: RFID already in use elsewhere.",
	StatusLicenseRequired: "Error 22: XML Integration license needed.",
}

// StatusMessage 返回状态码对应的消息。不在映射表内的状态码优先使用服务器消息
func StatusMessage(status int, serverMessage string) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	if serverMessage != "" {
		return serverMessage
	}
	return fmt.Sprintf("Error %d", status)
}

// ConfigError 控制器地址或凭据缺失
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	switch e.Field {
	case "endpoint":
		return "URL not configured."
	default:
		return fmt.Sprintf("Controller %s not configured.", e.Field)
	}
}

// TransportError 网络、超时或连接失败
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Controller %s request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError 响应不是合法的 XML
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "Invalid XML format."
}

func (e *ParseError) Unwrap() error { return e.Err }

// AuthError 登录被拒绝或会话失效后重新登录失败
type AuthError struct {
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return "API Login failed: " + e.Err.Error()
	}
	return "API Login failed. Please check credentials."
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIStatusError 控制器返回的非零状态
type APIStatusError struct {
	Status  int
	Message string
}

func (e *APIStatusError) Error() string {
	return e.Message
}

// newStatusError 按固定映射表生成状态错误
func newStatusError(resp *Response) *APIStatusError {
	return &APIStatusError{
		Status:  resp.Status,
		Message: StatusMessage(resp.Status, resp.Message),
	}
}

// IsSessionRejected 判断已认证请求的失败是否由会话失效引起
func IsSessionRejected(err error) bool {
	var statusErr *APIStatusError
	return errors.As(err, &statusErr) && statusErr.Status == StatusAuthFailed
}

package prima

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"prima-sync-service/pkg/logger"
)

const (
	// GatewayPath 控制器二进制网关路径
	GatewayPath = "/bin/sysfcgi.fx"

	DefaultLoginTimeout   = 20 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// ControllerConfig 控制器连接配置，创建 Client 时注入一次
type ControllerConfig struct {
	EndpointURL    string
	Username       string
	Password       string
	LoginTimeout   time.Duration
	RequestTimeout time.Duration
}

// NormalizeEndpoint 保证地址指向二进制网关
func NormalizeEndpoint(raw string) string {
	url := strings.TrimRight(strings.TrimSpace(raw), "/")
	if url == "" {
		return ""
	}
	if strings.Contains(url, "sysfcgi.fx") {
		return url
	}
	return url + GatewayPath
}

// Validate 检查地址和凭据
func (c ControllerConfig) Validate() error {
	if strings.TrimSpace(c.EndpointURL) == "" {
		return &ConfigError{Field: "endpoint"}
	}
	if strings.TrimSpace(c.Username) == "" {
		return &ConfigError{Field: "username"}
	}
	return nil
}

// ResidentMatch 按地址精确匹配到的控制器用户
type ResidentMatch struct {
	ControllerUserID string `json:"controller_user_id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Address          string `json:"address"`
	ExistingCards    string `json:"existing_cards"`
}

// InterfaceControllerClient 定义控制器客户端接口
type InterfaceControllerClient interface {
	TestConnection(ctx context.Context) error
	LookupResidentByAddress(ctx context.Context, address string) ([]ResidentMatch, error)
	UpsertResidentCard(ctx context.Context, firstName, lastName, card string) error
}

// Client 唯一执行网络 I/O 的组件
type Client struct {
	cfg       ControllerConfig
	transport *transport
	session   *SessionManager
}

// Option 客户端可选项
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	activity   logger.InterfaceActivityLogger
}

// WithHTTPClient 使用自定义 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithActivityLogger 报文日志写入活动日志
func WithActivityLogger(l logger.InterfaceActivityLogger) Option {
	return func(o *clientOptions) { o.activity = l }
}

// NewClient 创建控制器客户端。地址或用户名缺失时返回 ConfigError
func NewClient(cfg ControllerConfig, opts ...Option) (*Client, error) {
	cfg.EndpointURL = NormalizeEndpoint(cfg.EndpointURL)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.TrimSpace(cfg.Password)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	o := clientOptions{
		httpClient: &http.Client{},
		activity:   logger.NopActivityLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	t := newTransport(cfg.EndpointURL, o.httpClient, o.activity)
	return &Client{
		cfg:       cfg,
		transport: t,
		session:   newSessionManager(cfg, t),
	}, nil
}

// Config 返回规范化后的配置
func (c *Client) Config() ControllerConfig { return c.cfg }

// Session 返回客户端自己的会话管理器
func (c *Client) Session() *SessionManager { return c.session }

// TestConnection 执行一次登录，只返回成功或失败
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.session.Login(ctx)
	return err
}

// LookupResidentByAddress 按地址查询控制器用户，只保留地址完全相同（忽略大小写）的记录
func (c *Client) LookupResidentByAddress(ctx context.Context, address string) ([]ResidentMatch, error) {
	payload, err := BuildLookupRequest(address)
	if err != nil {
		return nil, err
	}

	resp, err := c.call(ctx, OpReadUsers, payload)
	if err != nil {
		return nil, err
	}

	users, _ := resp.Payload.(ReadUsersPayload)
	return MatchAddress(users.Users, address), nil
}

// UpsertResidentCard 写入卡号。姓名必须是之前从控制器查到的值
func (c *Client) UpsertResidentCard(ctx context.Context, firstName, lastName, card string) error {
	payload, err := BuildUpsertRequest(firstName, lastName, card)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, OpAddOrUpdateUser, payload)
	return err
}

// MatchAddress 控制器的过滤只是参考，这里做精确匹配，保持控制器返回的顺序
func MatchAddress(users []ControllerUser, address string) []ResidentMatch {
	want := strings.TrimSpace(address)
	matches := make([]ResidentMatch, 0, 1)
	for _, u := range users {
		if !strings.EqualFold(strings.TrimSpace(u.Address), want) {
			continue
		}
		matches = append(matches, ResidentMatch{
			ControllerUserID: u.ID,
			FirstName:        u.FirstName,
			LastName:         u.LastName,
			Address:          u.Address,
			ExistingCards:    u.Cards,
		})
	}
	return matches
}

// call 携带会话发送请求。会话被拒绝时重新登录一次并重试一次
func (c *Client) call(ctx context.Context, op Operation, payload []byte) (*Response, error) {
	token, err := c.session.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.exchange(ctx, op, payload, token)
	if !IsSessionRejected(err) {
		return resp, err
	}

	logger.Info("控制器会话失效，重新登录后重试 %s", op)
	c.session.Invalidate()
	token, err = c.session.Login(ctx)
	if err != nil {
		return nil, err
	}

	resp, err = c.exchange(ctx, op, payload, token)
	if IsSessionRejected(err) {
		c.session.Invalidate()
		var statusErr *APIStatusError
		errors.As(err, &statusErr)
		return nil, &AuthError{Status: statusErr.Status, Message: statusErr.Message}
	}
	return resp, err
}

func (c *Client) exchange(ctx context.Context, op Operation, payload []byte, token string) (*Response, error) {
	result, err := c.transport.post(ctx, op, payload, payload, token, c.cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	if result.status == http.StatusUnauthorized {
		return nil, &APIStatusError{Status: StatusAuthFailed, Message: StatusMessage(StatusAuthFailed, "")}
	}

	resp, err := ParseResponse(op, result.body)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newStatusError(resp)
	}
	return resp, nil
}

package prima

import (
	"context"
	"errors"
	"sync"
)

// SessionManager 获取并缓存控制器会话。每个 Client 独占一个实例
type SessionManager struct {
	cfg       ControllerConfig
	transport *transport

	mu        sync.Mutex
	sessionID *string
}

func newSessionManager(cfg ControllerConfig, t *transport) *SessionManager {
	return &SessionManager{cfg: cfg, transport: t}
}

// Login 强制重新登录并缓存新的会话
func (s *SessionManager) Login(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login(ctx)
}

// EnsureSession 返回缓存的会话，没有时登录一次
func (s *SessionManager) EnsureSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionID != nil {
		return *s.sessionID, nil
	}
	return s.login(ctx)
}

// Invalidate 丢弃缓存的会话
func (s *SessionManager) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = nil
}

// HasSession 是否已有缓存的会话
func (s *SessionManager) HasSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID != nil
}

// login 调用方需持有 mu
func (s *SessionManager) login(ctx context.Context) (string, error) {
	s.sessionID = nil

	payload, err := BuildLoginRequest(s.cfg.Username, s.cfg.Password)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	logPayload, err := BuildLoginRequest(s.cfg.Username, "********")
	if err != nil {
		return "", &AuthError{Err: err}
	}

	result, err := s.transport.post(ctx, OpLoginUser, payload, logPayload, "", s.cfg.LoginTimeout)
	if err != nil {
		return "", &AuthError{Err: err}
	}

	resp, err := ParseResponse(OpLoginUser, result.body)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	if !resp.OK() {
		return "", &AuthError{Status: resp.Status, Message: StatusMessage(resp.Status, resp.Message)}
	}

	login, _ := resp.Payload.(LoginPayload)
	if login.SessionID == "" {
		return "", &AuthError{Err: errors.New("login response carried no SessionID")}
	}

	token := login.SessionID
	s.sessionID = &token
	return token, nil
}

package prima

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"prima-sync-service/pkg/logger"
)

const (
	// SessionHeader 已认证请求携带的会话头
	SessionHeader = "Session-Id"

	contentType = "text/xml; charset=utf-8"

	// 控制器响应体上限
	maxResponseBytes = 8 << 20

	breakerName             = "prima-controller"
	breakerFailureThreshold = 5
	breakerOpenTimeout      = time.Minute
)

// exchangeResult 一次 HTTP 往返的结果
type exchangeResult struct {
	status int
	body   []byte
}

// transport 负责向控制器发送 XML 报文，熔断器只统计网络层失败
type transport struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[exchangeResult]
	activity logger.InterfaceActivityLogger
}

func newTransport(endpoint string, client *http.Client, activity logger.InterfaceActivityLogger) *transport {
	cb := gobreaker.NewCircuitBreaker[exchangeResult](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warning("[熔断器] %s 状态变化: %s -> %s", name, from.String(), to.String())
		},
	})

	return &transport{
		endpoint: endpoint,
		client:   client,
		breaker:  cb,
		activity: activity,
	}
}

// post 发送报文。logPayload 为写入活动日志的版本（登录时已隐藏密码）
func (t *transport) post(ctx context.Context, op Operation, payload, logPayload []byte, sessionID string, timeout time.Duration) (exchangeResult, error) {
	t.activity.Log(fmt.Sprintf("Sending XML (%s)", op), logPayload, logger.LevelDebug)

	result, err := t.breaker.Execute(func() (exchangeResult, error) {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
		if err != nil {
			return exchangeResult{}, err
		}
		req.Header.Set("Content-Type", contentType)
		if sessionID != "" {
			req.Header.Set(SessionHeader, sessionID)
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return exchangeResult{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return exchangeResult{}, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			t.activity.Log(fmt.Sprintf("Received Response (%s, HTTP %d)", op, resp.StatusCode), body, logger.LevelDebug)
			return exchangeResult{}, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
		}
		return exchangeResult{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("controller unavailable, circuit open: %w", err)
		}
		return exchangeResult{}, &TransportError{Op: string(op), Err: err}
	}

	t.activity.Log(fmt.Sprintf("Received Response (%s)", op), result.body, logger.LevelDebug)
	return result, nil
}

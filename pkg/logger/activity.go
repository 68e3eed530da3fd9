package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Level 单条活动日志的级别
type Level string

const (
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
)

// 日志模式，由设置中的 log_mode 决定
const (
	ModeDisabled = "disabled" // 不记录
	ModeSimple   = "simple"   // 只记录状态信息
	ModeDebug    = "debug"    // 记录完整的 XML 报文
)

// ActivityLogFile 活动日志文件名
const ActivityLogFile = "prima_activity.log"

// InterfaceActivityLogger 定义同步活动日志接口
type InterfaceActivityLogger interface {
	Log(message string, data interface{}, level Level)
}

// ActivityLogger 同步活动日志，按日志模式过滤后写入独立文件
type ActivityLogger struct {
	path string
	mode func() string

	mu     sync.Mutex
	file   *os.File
	logger zerolog.Logger
}

// NewActivityLogger 创建活动日志记录器，mode 在每次写入时读取，设置修改后立即生效
func NewActivityLogger(dir string, mode func() string) (*ActivityLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	path := filepath.Join(dir, ActivityLogFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开活动日志文件失败: %w", err)
	}

	if mode == nil {
		mode = func() string { return ModeSimple }
	}

	return &ActivityLogger{
		path:   path,
		mode:   mode,
		file:   file,
		logger: zerolog.New(file).With().Timestamp().Logger(),
	}, nil
}

// Log 写入一条活动日志。debug 级别只在 debug 模式下记录
func (a *ActivityLogger) Log(message string, data interface{}, level Level) {
	if !Allowed(a.mode(), level) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	evt := a.logger.Info()
	if level == LevelDebug {
		evt = a.logger.Debug()
	}
	if data != nil {
		evt = evt.Str("data", formatData(data))
	}
	evt.Msg(message)
}

// Allowed 判断在给定模式下是否记录该级别
func Allowed(mode string, level Level) bool {
	switch mode {
	case ModeDisabled:
		return false
	case ModeDebug:
		return true
	default:
		return level != LevelDebug
	}
}

// Tail 返回最后 n 行日志
func (a *ActivityLogger) Tail(n int) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.Open(a.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, scanner.Err()
}

// ClearLogs 清空活动日志，并写入一条清空记录
func (a *ActivityLogger) ClearLogs() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.file.Truncate(0); err != nil {
		return fmt.Errorf("清空活动日志失败: %w", err)
	}
	a.logger.Info().Time("cleared_at", time.Now()).Msg("Log cleared.")
	return nil
}

// Close 关闭日志文件
func (a *ActivityLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

func formatData(data interface{}) string {
	switch v := data.(type) {
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(raw)
}

// NopActivityLogger 不记录任何内容
type NopActivityLogger struct{}

// Log 丢弃日志
func (NopActivityLogger) Log(string, interface{}, Level) {}

package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// 全局应用日志记录器，SetupLogger 之前输出到标准错误
	appLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	appMu     sync.RWMutex
)

// Options 应用日志配置
type Options struct {
	Dir     string // 日志目录，为空时只输出到控制台
	Level   string // trace/debug/info/warn/error/disabled
	Console bool   // 控制台使用可读格式
}

// SetupLogger 初始化日志配置
func SetupLogger(opts Options) error {
	writers := []io.Writer{}
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"})
	} else {
		writers = append(writers, os.Stdout)
	}

	if opts.Dir != "" {
		// 创建日志目录
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return fmt.Errorf("创建日志目录失败: %w", err)
		}

		// 按日期生成日志文件名
		logFileName := filepath.Join(opts.Dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
		logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		writers = append(writers, logFile)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	l := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Logger()

	SetLogger(l)
	return nil
}

// SetLogger 替换全局日志记录器，测试中用于捕获输出
func SetLogger(l zerolog.Logger) {
	appMu.Lock()
	defer appMu.Unlock()
	appLogger = l
}

// Logger 返回全局日志记录器
func Logger() zerolog.Logger {
	appMu.RLock()
	defer appMu.RUnlock()
	return appLogger
}

// ParseLevel 将字符串转换为 zerolog 级别，未知值按 info 处理
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Debug 记录调试级别的日志
func Debug(format string, v ...interface{}) {
	l := Logger()
	l.Debug().Msgf(format, v...)
}

// Info 记录信息级别的日志
func Info(format string, v ...interface{}) {
	l := Logger()
	l.Info().Msgf(format, v...)
}

// Warning 记录警告级别的日志
func Warning(format string, v ...interface{}) {
	l := Logger()
	l.Warn().Msgf(format, v...)
}

// Error 记录错误级别的日志
func Error(format string, v ...interface{}) {
	l := Logger()
	l.Error().Msgf(format, v...)
}

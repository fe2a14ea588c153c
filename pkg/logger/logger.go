package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const (
	RequestId ctxKey = "request_id"
	loggerKey ctxKey = "logger"
)

// Logger 包装 zap.Logger，输出时自动附带上下文中的 request id
type Logger struct {
	l *zap.Logger
}

// New 按级别和编码方式创建 Logger，development 为 true 时使用控制台格式
func New(level string, development bool) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Logger{l: l}, nil
}

// NewFile 创建写入指定文件的 Logger
func NewFile(path string) (*Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return &Logger{l: l}, nil
}

// Wrap 使用已有的 zap.Logger
func Wrap(l *zap.Logger) *Logger {
	return &Logger{l: l}
}

// Nop 返回不输出任何内容的 Logger
func Nop() *Logger {
	return &Logger{l: zap.NewNop()}
}

func (l *Logger) fields(ctx context.Context, fields []zap.Field) []zap.Field {
	if ctx == nil {
		return fields
	}
	if id, ok := ctx.Value(RequestId).(string); ok && id != "" {
		fields = append(fields, zap.String(string(RequestId), id))
	}
	return fields
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Debug(msg, l.fields(ctx, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Info(msg, l.fields(ctx, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Warn(msg, l.fields(ctx, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Error(msg, l.fields(ctx, fields)...)
}

func (l *Logger) Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Fatal(msg, l.fields(ctx, fields)...)
}

// With 返回附带固定字段的子 Logger
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{l: l.l.With(fields...)}
}

func (l *Logger) Sync() error {
	return l.l.Sync()
}

// WithLogger 将 Logger 放入 context
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithRequestId 将请求 id 放入 context
func WithRequestId(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestId, id)
}

// GetLoggerFromCtx 取出 context 中的 Logger，没有时返回 Nop
func GetLoggerFromCtx(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
		return l
	}
	return Nop()
}

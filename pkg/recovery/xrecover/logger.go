package xrecover

import (
	"context"
	"log/slog"
)

// Logger 引擎的结构化日志接口，与 log/slog 的属性模型对齐。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)
}

// NopLogger 丢弃所有日志的空实现。
type NopLogger struct{}

func (NopLogger) Debug(context.Context, string, ...slog.Attr) {}
func (NopLogger) Info(context.Context, string, ...slog.Attr)  {}
func (NopLogger) Warn(context.Context, string, ...slog.Attr)  {}
func (NopLogger) Error(context.Context, string, ...slog.Attr) {}

// NewSlogLogger 以 *slog.Logger 适配 Logger 接口。l 为 nil 时使用
// slog.Default()。
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	s.l.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func (s *slogLogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	s.l.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *slogLogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	s.l.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

func (s *slogLogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	s.l.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

package logger

import (
	"context"
)

// Logger 日志接口
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// Discard 丢弃所有日志
var Discard Logger = discard{}

type discard struct{}

func (discard) Debug(string, ...any)                          {}
func (discard) Info(string, ...any)                           {}
func (discard) Warn(string, ...any)                           {}
func (discard) Error(string, ...any)                          {}
func (discard) DebugContext(context.Context, string, ...any) {}
func (discard) InfoContext(context.Context, string, ...any)  {}
func (discard) WarnContext(context.Context, string, ...any)  {}
func (discard) ErrorContext(context.Context, string, ...any) {}
func (d discard) With(...any) Logger                          { return d }
func (d discard) WithGroup(string) Logger                     { return d }

package log

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/viablespark/persist/cfg"
	"github.com/viablespark/persist/log/logger"
	"github.com/viablespark/persist/ref"
)

var (
	mu            sync.RWMutex
	defaultLogger logger.Logger
)

func init() {
	// 默认向终端输出 text 格式日志
	slog, err := logger.NewSLogWithOptions(&logger.SLogOptions{
		Level:  "info",
		Format: "text",
	})
	if err != nil {
		panic("failed to initialize default logger: " + err.Error())
	}
	defaultLogger = slog
}

// Default 进程级默认日志器，组件未配置日志器时使用
func Default() logger.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetDefault 替换默认日志器
func SetDefault(l logger.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// NewLoggerWithOptions 按配置创建日志器，options 为 nil 时返回默认日志器
// Namespace 和 Type 为空时使用 logger.SLog
func NewLoggerWithOptions(options *ref.TypeOptions) (logger.Logger, error) {
	if options == nil {
		return Default(), nil
	}
	namespace, type_ := options.Namespace, options.Type
	if namespace == "" {
		namespace = logger.Namespace
	}
	if type_ == "" {
		type_ = "SLog"
	}
	obj, err := ref.New(namespace, type_, cfg.NewNode(options.Options))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create logger")
	}
	l, ok := obj.(logger.Logger)
	if !ok {
		return nil, errors.Errorf("%T does not implement logger.Logger", obj)
	}
	return l, nil
}

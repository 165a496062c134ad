package database

import (
	"github.com/pkg/errors"
	"github.com/viablespark/persist/cfg"
	"github.com/viablespark/persist/ref"
)

const Namespace = "github.com/viablespark/persist/rdb/database"

func init() {
	ref.MustRegister(Namespace, "SQL", NewSQLWithOptions)
	ref.MustRegister(Namespace, "Gorm", NewGormWithOptions)
}

// NewExecutorWithOptions 按配置创建执行器，Namespace 为空时使用本包
func NewExecutorWithOptions(options *ref.TypeOptions) (Executor, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	namespace := options.Namespace
	if namespace == "" {
		namespace = Namespace
	}
	obj, err := ref.New(namespace, options.Type, cfg.NewNode(options.Options))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create executor")
	}
	executor, ok := obj.(Executor)
	if !ok {
		return nil, errors.Errorf("%T does not implement database.Executor", obj)
	}
	return executor, nil
}

package rdb

import (
	"context"

	"github.com/pkg/errors"
	"github.com/viablespark/persist/log"
	"github.com/viablespark/persist/rdb/database"
	"github.com/viablespark/persist/rdb/mapping"
	"github.com/viablespark/persist/rdb/repository"
	"github.com/viablespark/persist/rdb/schema"
	"github.com/viablespark/persist/ref"
	"github.com/viablespark/persist/uid/intgen"
	"github.com/viablespark/persist/uid/strgen"
)

type Options struct {
	// Executor 执行器配置，type 为 SQL 或 Gorm
	Executor *ref.TypeOptions `cfg:"executor" validate:"required"`

	// Observable 为空时不包装观测层
	Observable *database.ObservableOptions `cfg:"observable"`

	Logger *ref.TypeOptions `cfg:"logger"`
}

type RepositoryOptions struct {
	Logger *ref.TypeOptions `cfg:"logger"`

	// KeyGenerator 为空时使用数据库生成的主键
	KeyGenerator *ref.TypeOptions `cfg:"keyGenerator"`

	// StrKeyGenerator 字符串主键生成器，不能与 KeyGenerator 同时配置
	StrKeyGenerator *ref.TypeOptions `cfg:"strKeyGenerator"`
}

// NewExecutorWithOptions 创建执行器，配置了 Observable 时返回包装后的执行器
func NewExecutorWithOptions(options *Options) (database.Executor, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	l, err := log.NewLoggerWithOptions(options.Logger)
	if err != nil {
		return nil, errors.WithMessage(err, "create logger failed")
	}

	executor, err := database.NewExecutorWithOptions(options.Executor)
	if err != nil {
		return nil, err
	}
	if options.Observable == nil {
		return executor, nil
	}

	obs, err := database.NewObservableExecutor(executor, options.Observable, database.WithObservableLogger(l))
	if err != nil {
		executor.Close()
		return nil, errors.WithMessage(err, "create observable executor failed")
	}
	return obs, nil
}

// NewRepositoryWithOptions 在已有执行器上创建 T 的仓库，options 可以为 nil
func NewRepositoryWithOptions[T any](executor database.Executor, registry *mapping.Registry, options *RepositoryOptions) (*repository.Repository[T], error) {
	if options == nil {
		options = &RepositoryOptions{}
	}

	var opts []repository.Option
	l, err := log.NewLoggerWithOptions(options.Logger)
	if err != nil {
		return nil, errors.WithMessage(err, "create logger failed")
	}
	opts = append(opts, repository.WithLogger(l.WithGroup("repository")))

	if options.KeyGenerator != nil && options.StrKeyGenerator != nil {
		return nil, errors.New("keyGenerator and strKeyGenerator are mutually exclusive")
	}
	if options.KeyGenerator != nil {
		g, err := intgen.NewIntGeneratorWithOptions(options.KeyGenerator)
		if err != nil {
			return nil, errors.WithMessage(err, "create key generator failed")
		}
		opts = append(opts, repository.WithKeyGenerator(g))
	}
	if options.StrKeyGenerator != nil {
		g, err := strgen.NewStrGeneratorWithOptions(options.StrKeyGenerator)
		if err != nil {
			return nil, errors.WithMessage(err, "create key generator failed")
		}
		opts = append(opts, repository.WithStrKeyGenerator(g))
	}

	return repository.NewRepository[T](executor, registry, opts...)
}

// AssertMappings 用执行器读取表结构并校验 types 的映射
func AssertMappings(ctx context.Context, executor database.Executor, registry *mapping.Registry, types ...any) error {
	inspector, ok := executor.(database.TableInspector)
	if !ok {
		return errors.Errorf("%T does not support table inspection", executor)
	}
	return schema.AssertMappings(ctx, inspector, registry, types...)
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/viablespark/persist/log/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObservableOptions struct {
	// Name 组件名称，作为指标名前缀、日志 component 字段和 span 属性
	Name string `cfg:"name" def:"persist"`

	// 各观测维度默认关闭，按需在配置中打开
	EnableMetrics bool `cfg:"enableMetrics"`
	EnableLogging bool `cfg:"enableLogging"`
	EnableTracing bool `cfg:"enableTracing"`
}

// ObservableMetrics 执行器的 prometheus 指标
type ObservableMetrics struct {
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	activeOperations  *prometheus.GaugeVec
	rowsHistogram     *prometheus.HistogramVec
}

// NewObservableMetrics 创建并注册指标，同名指标已注册时复用已有的收集器
func NewObservableMetrics(name string, registerer prometheus.Registerer) (*ObservableMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name + "_operations_total",
		Help: "Total number of SQL operations",
	}, []string{"operation", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name + "_operation_duration_seconds",
		Help:    "Duration of SQL operations in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
	}, []string{"operation"})
	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name + "_active_operations",
		Help: "Number of in-flight SQL operations",
	}, []string{"operation"})
	rows := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name + "_rows",
		Help:    "Rows returned by queries or affected by writes",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
	}, []string{"operation"})

	var err error
	metrics := &ObservableMetrics{}
	if metrics.operationCounter, err = register(registerer, counter); err != nil {
		return nil, err
	}
	if metrics.operationDuration, err = register(registerer, duration); err != nil {
		return nil, err
	}
	if metrics.activeOperations, err = register(registerer, active); err != nil {
		return nil, err
	}
	if metrics.rowsHistogram, err = register(registerer, rows); err != nil {
		return nil, err
	}
	return metrics, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "register metrics failed")
	}
	return c, nil
}

// ObservableExecutor 为任意 Executor 添加指标、日志和追踪
type ObservableExecutor struct {
	executor Executor

	logger        logger.Logger
	metrics       *ObservableMetrics
	tracer        trace.Tracer
	name          string
	enableLogging bool
}

type ObservableOption func(*observableConfig)

type observableConfig struct {
	logger     logger.Logger
	registerer prometheus.Registerer
	tracer     trace.Tracer
}

func WithObservableLogger(l logger.Logger) ObservableOption {
	return func(c *observableConfig) { c.logger = l }
}

func WithRegisterer(r prometheus.Registerer) ObservableOption {
	return func(c *observableConfig) { c.registerer = r }
}

func WithTracer(t trace.Tracer) ObservableOption {
	return func(c *observableConfig) { c.tracer = t }
}

// NewObservableExecutor options 为 nil 时启用指标和日志
func NewObservableExecutor(executor Executor, options *ObservableOptions, opts ...ObservableOption) (*ObservableExecutor, error) {
	if executor == nil {
		return nil, errors.New("executor cannot be nil")
	}
	if options == nil {
		options = &ObservableOptions{Name: "persist", EnableMetrics: true, EnableLogging: true}
	}

	var c observableConfig
	for _, opt := range opts {
		opt(&c)
	}

	obs := &ObservableExecutor{
		executor:      executor,
		name:          options.Name,
		enableLogging: options.EnableLogging && c.logger != nil,
	}
	if obs.enableLogging {
		obs.logger = c.logger.WithGroup("observableExecutor")
	}
	if options.EnableMetrics {
		metrics, err := NewObservableMetrics(options.Name, c.registerer)
		if err != nil {
			return nil, err
		}
		obs.metrics = metrics
	}
	if options.EnableTracing {
		obs.tracer = c.tracer
		if obs.tracer == nil {
			obs.tracer = otel.Tracer(fmt.Sprintf("rdb.%s", options.Name))
		}
	}
	return obs, nil
}

// observe 统一的操作观测逻辑，fn 返回影响或返回的行数
func (obs *ObservableExecutor) observe(ctx context.Context, operation string, query string, fn func(context.Context) (int, error)) error {
	start := time.Now()

	var span trace.Span
	if obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, fmt.Sprintf("rdb.%s", operation),
			trace.WithAttributes(
				attribute.String("component", obs.name),
				attribute.String("operation", operation),
				attribute.String("db.statement", query),
			),
		)
		defer span.End()
	}

	if obs.metrics != nil {
		obs.metrics.activeOperations.WithLabelValues(operation).Inc()
		defer obs.metrics.activeOperations.WithLabelValues(operation).Dec()
	}

	rows, err := fn(ctx)
	duration := time.Since(start)

	if span != nil {
		span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetAttributes(attribute.Int("rows", rows))
			span.SetStatus(codes.Ok, "")
		}
	}

	if obs.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		obs.metrics.operationCounter.WithLabelValues(operation, status).Inc()
		obs.metrics.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
		if err == nil {
			obs.metrics.rowsHistogram.WithLabelValues(operation).Observe(float64(rows))
		}
	}

	if obs.enableLogging {
		if err != nil {
			obs.logger.ErrorContext(ctx, "sql operation failed",
				"component", obs.name,
				"operation", operation,
				"sql", query,
				"duration_ms", duration.Milliseconds(),
				"error", err.Error(),
			)
		} else {
			obs.logger.DebugContext(ctx, "sql operation completed",
				"component", obs.name,
				"operation", operation,
				"sql", query,
				"rows", rows,
				"duration_ms", duration.Milliseconds(),
			)
		}
	}

	return err
}

func (obs *ObservableExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := obs.observe(ctx, "exec", query, func(ctx context.Context) (int, error) {
		var err error
		n, err = obs.executor.Exec(ctx, query, args...)
		return int(n), err
	})
	return n, err
}

func (obs *ObservableExecutor) ExecInsert(ctx context.Context, query string, args ...any) (any, error) {
	var id any
	err := obs.observe(ctx, "insert", query, func(ctx context.Context) (int, error) {
		var err error
		id, err = obs.executor.ExecInsert(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return 1, nil
	})
	return id, err
}

func (obs *ObservableExecutor) Query(ctx context.Context, query string, args ...any) (RowSet, error) {
	var rs RowSet
	err := obs.observe(ctx, "query", query, func(ctx context.Context) (int, error) {
		var err error
		rs, err = obs.executor.Query(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		if mem, ok := rs.(*MemRowSet); ok {
			return mem.Len(), nil
		}
		return 0, nil
	})
	return rs, err
}

// TableColumns 底层执行器不支持时返回错误
func (obs *ObservableExecutor) TableColumns(ctx context.Context, table string) ([]string, error) {
	inspector, ok := obs.executor.(TableInspector)
	if !ok {
		return nil, errors.Errorf("%T does not support table inspection", obs.executor)
	}
	var columns []string
	err := obs.observe(ctx, "columns", table, func(ctx context.Context) (int, error) {
		var err error
		columns, err = inspector.TableColumns(ctx, table)
		return len(columns), err
	})
	return columns, err
}

func (obs *ObservableExecutor) Close() error {
	return obs.executor.Close()
}

// Unwrap 返回被包装的执行器
func (obs *ObservableExecutor) Unwrap() Executor {
	return obs.executor
}

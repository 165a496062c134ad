package database

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/viablespark/persist/cfg"
	"github.com/viablespark/persist/log/logger"
)

type stubExecutor struct {
	err error
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return 3, s.err
}

func (s *stubExecutor) ExecInsert(ctx context.Context, query string, args ...any) (any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return int64(7), nil
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (RowSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return NewMemRowSet([]string{"id"}, []any{int64(1)}, []any{int64(2)}), nil
}

func (s *stubExecutor) Close() error {
	return nil
}

func TestObservableExecutor(t *testing.T) {
	Convey("测试 ObservableExecutor", t, func() {
		ctx := context.Background()
		registry := prometheus.NewRegistry()
		options := &ObservableOptions{Name: "test_rdb", EnableMetrics: true, EnableLogging: true, EnableTracing: true}

		Convey("executor 为 nil", func() {
			_, err := NewObservableExecutor(nil, options)
			So(err, ShouldNotBeNil)
		})

		Convey("成功的操作计入 success", func() {
			obs, err := NewObservableExecutor(&stubExecutor{}, options, WithRegisterer(registry), WithObservableLogger(logger.Discard))
			So(err, ShouldBeNil)

			n, err := obs.Exec(ctx, "UPDATE t SET a=?", 1)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, int64(3))

			id, err := obs.ExecInsert(ctx, "INSERT INTO t (a) VALUES (?)", 1)
			So(err, ShouldBeNil)
			So(id, ShouldEqual, int64(7))

			rs, err := obs.Query(ctx, "SELECT id FROM t")
			So(err, ShouldBeNil)
			So(rs.Next(), ShouldBeTrue)

			So(testutil.ToFloat64(obs.metrics.operationCounter.WithLabelValues("exec", "success")), ShouldEqual, 1)
			So(testutil.ToFloat64(obs.metrics.operationCounter.WithLabelValues("insert", "success")), ShouldEqual, 1)
			So(testutil.ToFloat64(obs.metrics.operationCounter.WithLabelValues("query", "success")), ShouldEqual, 1)
			So(testutil.ToFloat64(obs.metrics.activeOperations.WithLabelValues("query")), ShouldEqual, 0)
			So(obs.Unwrap(), ShouldHaveSameTypeAs, &stubExecutor{})
		})

		Convey("失败的操作计入 error", func() {
			obs, err := NewObservableExecutor(&stubExecutor{err: ErrTableNotFound}, options, WithRegisterer(registry), WithObservableLogger(logger.Discard))
			So(err, ShouldBeNil)

			_, err = obs.Query(ctx, "SELECT id FROM t")
			So(err, ShouldEqual, ErrTableNotFound)
			So(testutil.ToFloat64(obs.metrics.operationCounter.WithLabelValues("query", "error")), ShouldEqual, 1)
		})

		Convey("同名指标重复注册时复用", func() {
			first, err := NewObservableExecutor(&stubExecutor{}, options, WithRegisterer(registry))
			So(err, ShouldBeNil)
			second, err := NewObservableExecutor(&stubExecutor{}, options, WithRegisterer(registry))
			So(err, ShouldBeNil)

			_, _ = first.Exec(ctx, "DELETE FROM t")
			_, _ = second.Exec(ctx, "DELETE FROM t")
			So(testutil.ToFloat64(second.metrics.operationCounter.WithLabelValues("exec", "success")), ShouldEqual, 2)
		})

		Convey("关闭指标和追踪", func() {
			obs, err := NewObservableExecutor(&stubExecutor{}, &ObservableOptions{Name: "plain"})
			So(err, ShouldBeNil)
			So(obs.metrics, ShouldBeNil)
			So(obs.tracer, ShouldBeNil)

			n, err := obs.Exec(ctx, "DELETE FROM t")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, int64(3))
		})

		Convey("配置中关闭指标和日志", func() {
			var options ObservableOptions
			So(cfg.NewNode(map[string]any{"enableMetrics": false, "enableLogging": false}).ConvertTo(&options), ShouldBeNil)
			So(options.Name, ShouldEqual, "persist")
			So(options.EnableMetrics, ShouldBeFalse)
			So(options.EnableLogging, ShouldBeFalse)

			obs, err := NewObservableExecutor(&stubExecutor{}, &options, WithObservableLogger(logger.Discard))
			So(err, ShouldBeNil)
			So(obs.metrics, ShouldBeNil)
			So(obs.enableLogging, ShouldBeFalse)
		})

		Convey("options 为 nil 时启用指标和日志", func() {
			obs, err := NewObservableExecutor(&stubExecutor{}, nil,
				WithObservableLogger(logger.Discard), WithRegisterer(prometheus.NewRegistry()))
			So(err, ShouldBeNil)
			So(obs.metrics, ShouldNotBeNil)
			So(obs.enableLogging, ShouldBeTrue)
		})

		Convey("底层不支持读取表结构", func() {
			obs, err := NewObservableExecutor(&stubExecutor{}, &ObservableOptions{Name: "plain"})
			So(err, ShouldBeNil)
			_, err = obs.TableColumns(ctx, "t")
			So(err, ShouldNotBeNil)
		})

		Convey("包装 SQL 执行器读取表结构", func() {
			s := newTestSQLite()
			obs, err := NewObservableExecutor(s, options, WithRegisterer(registry))
			So(err, ShouldBeNil)
			defer obs.Close()

			columns, err := obs.TableColumns(ctx, "supplier")
			So(err, ShouldBeNil)
			So(columns, ShouldResemble, []string{"id", "name", "rating"})
		})
	})
}

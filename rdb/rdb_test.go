package rdb

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/viablespark/persist/cfg"
	"github.com/viablespark/persist/log/logger"
	"github.com/viablespark/persist/rdb/database"
	"github.com/viablespark/persist/rdb/mapping"
	"github.com/viablespark/persist/rdb/model"
	"github.com/viablespark/persist/ref"
)

type Contractor struct {
	model.Model `table:"contractor" pk:"sc_key"`
	Name        string `rdb:"name"`
	Email       string `rdb:"email"`
}

const testConfig = `
persist:
  executor:
    type: SQL
    options:
      driver: sqlite3
      database: ":memory:"
      maxConns: 1
  observable:
    name: rdb_options_test
    enableMetrics: true
    enableLogging: false
    enableTracing: true
  logger:
    options:
      level: error
  repository:
    keyGenerator:
      type: SequenceGenerator
      options:
        start: 1000
`

func TestNewWithOptions(t *testing.T) {
	Convey("测试按配置创建执行器和仓库", t, func() {
		ctx := context.Background()
		node, err := cfg.YamlDecoder{}.Decode([]byte(testConfig))
		So(err, ShouldBeNil)

		var options Options
		So(node.Sub("persist").ConvertTo(&options), ShouldBeNil)
		So(options.Observable, ShouldNotBeNil)
		So(options.Observable.EnableMetrics, ShouldBeTrue)
		So(options.Observable.EnableLogging, ShouldBeFalse)
		So(options.Observable.Name, ShouldEqual, "rdb_options_test")

		var repoOptions RepositoryOptions
		So(node.Sub("persist.repository").ConvertTo(&repoOptions), ShouldBeNil)

		exec, err := NewExecutorWithOptions(&options)
		So(err, ShouldBeNil)
		defer exec.Close()
		So(exec, ShouldHaveSameTypeAs, &database.ObservableExecutor{})

		_, err = exec.Exec(ctx, "CREATE TABLE contractor (sc_key INTEGER PRIMARY KEY, name TEXT, email TEXT)")
		So(err, ShouldBeNil)

		registry := mapping.NewRegistry(mapping.WithRegistryLogger(logger.Discard))
		So(AssertMappings(ctx, exec, registry, Contractor{}), ShouldBeNil)

		Convey("使用主键生成器保存和读取", func() {
			repo, err := NewRepositoryWithOptions[Contractor](exec, registry, &repoOptions)
			So(err, ShouldBeNil)

			c := &Contractor{Name: "Ann", Email: "ann@example.com"}
			key, err := repo.Save(ctx, c)
			So(err, ShouldBeNil)
			So(key, ShouldResemble, model.Of("sc_key", int64(1000)))

			got, err := repo.Get(ctx, key)
			So(err, ShouldBeNil)
			So(got.Email, ShouldEqual, "ann@example.com")
		})

		Convey("不配置主键生成器时使用自增主键", func() {
			repo, err := NewRepositoryWithOptions[Contractor](exec, registry, nil)
			So(err, ShouldBeNil)

			key, err := repo.Save(ctx, &Contractor{Name: "Bob"})
			So(err, ShouldBeNil)
			So(key.Equal(model.Of("sc_key", 1)), ShouldBeTrue)
		})

		Convey("主键生成器配置错误", func() {
			_, err := NewRepositoryWithOptions[Contractor](exec, registry, &RepositoryOptions{
				KeyGenerator: &ref.TypeOptions{Type: "Missing"},
			})
			So(err, ShouldNotBeNil)

			_, err = NewRepositoryWithOptions[Contractor](exec, registry, &RepositoryOptions{
				StrKeyGenerator: &ref.TypeOptions{Type: "Missing"},
			})
			So(err, ShouldNotBeNil)

			_, err = NewRepositoryWithOptions[Contractor](exec, registry, &RepositoryOptions{
				KeyGenerator:    &ref.TypeOptions{Type: "SequenceGenerator"},
				StrKeyGenerator: &ref.TypeOptions{Type: "UUIDGenerator"},
			})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewExecutorWithOptions(t *testing.T) {
	Convey("测试 NewExecutorWithOptions 参数校验", t, func() {
		_, err := NewExecutorWithOptions(nil)
		So(err, ShouldNotBeNil)

		_, err = NewExecutorWithOptions(&Options{})
		So(err, ShouldNotBeNil)

		Convey("不配置 Observable 时返回原始执行器", func() {
			exec, err := NewExecutorWithOptions(&Options{Executor: &ref.TypeOptions{
				Type:    "SQL",
				Options: map[string]any{"driver": "sqlite3", "database": ":memory:", "maxConns": 1},
			}})
			So(err, ShouldBeNil)
			defer exec.Close()
			So(exec, ShouldHaveSameTypeAs, &database.SQL{})
		})

		Convey("执行器不支持读取表结构", func() {
			err := AssertMappings(context.Background(), noInspect{}, mapping.NewRegistry(), Contractor{})
			So(err, ShouldNotBeNil)
		})
	})
}

type noInspect struct {
	database.Executor
}

package schema

import (
	"context"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/viablespark/persist/log/logger"
	"github.com/viablespark/persist/rdb/database"
	"github.com/viablespark/persist/rdb/mapping"
	"github.com/viablespark/persist/rdb/model"
)

type Note struct {
	model.Model `table:"note" pk:"n_key"`
	Text        string `rdb:"text"`
}

type Contractor struct {
	model.Model `table:"contractor" pk:"sc_key"`
	Name        string `rdb:"name"`
	Email       string `rdb:"email"`
	Phone       string `rdb:"phone"`
}

type Ghost struct {
	model.Model `table:"ghost" pk:"id"`
	Name        string `rdb:"name"`
}

type Broken struct {
	Name string `rdb:"name"`
}

type brokenInspector struct{}

func (brokenInspector) TableColumns(ctx context.Context, table string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestAssertMappings(t *testing.T) {
	Convey("测试 AssertMappings", t, func() {
		ctx := context.Background()
		exec, err := database.NewSQLWithOptions(&database.SQLOptions{Driver: "sqlite3", Database: ":memory:", MaxConns: 1})
		So(err, ShouldBeNil)
		defer exec.Close()

		_, err = exec.Exec(ctx, "CREATE TABLE NOTE (N_KEY INTEGER PRIMARY KEY, TEXT TEXT)")
		So(err, ShouldBeNil)
		_, err = exec.Exec(ctx, "CREATE TABLE contractor (sc_key INTEGER PRIMARY KEY, name TEXT)")
		So(err, ShouldBeNil)

		registry := mapping.NewRegistry(mapping.WithRegistryLogger(logger.Discard))

		Convey("表结构一致，列名大小写不敏感", func() {
			So(AssertMappings(ctx, exec, registry, &Note{}), ShouldBeNil)
			So(AssertMappings(ctx, exec, registry, reflect.TypeOf(Note{})), ShouldBeNil)
		})

		Convey("汇总所有失败", func() {
			err := AssertMappings(ctx, exec, registry, Note{}, &Contractor{}, Ghost{}, Broken{})
			So(err, ShouldNotBeNil)

			var verr *ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(verr.Failures, ShouldHaveLength, 4)
			So(err.Error(), ShouldContainSubstring, "Column 'email' required by schema.Contractor is missing in table 'contractor'")
			So(err.Error(), ShouldContainSubstring, "Column 'phone'")
			So(err.Error(), ShouldContainSubstring, "Table 'ghost' for entity schema.Ghost not found")
			So(err.Error(), ShouldContainSubstring, "Mapping for schema.Broken is invalid")
		})

		Convey("读取表结构失败", func() {
			err := AssertMappings(ctx, brokenInspector{}, registry, Note{})
			So(err, ShouldNotBeNil)
			var verr *ValidationError
			So(errors.As(err, &verr), ShouldBeFalse)
		})

		Convey("参数校验", func() {
			So(AssertMappings(ctx, nil, registry, Note{}), ShouldNotBeNil)
			So(AssertMappings(ctx, exec, nil, Note{}), ShouldNotBeNil)
			So(AssertMappings(ctx, exec, registry), ShouldBeNil)
		})
	})
}

package database

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGormExecutor(t *testing.T) {
	Convey("测试 Gorm 执行器", t, func() {
		ctx := context.Background()

		Convey("options 校验", func() {
			_, err := NewGormWithOptions(nil)
			So(err, ShouldNotBeNil)

			_, err = NewGormWithOptions(&GormOptions{Driver: "oracle", DSN: "x"})
			So(err, ShouldNotBeNil)
		})

		g, err := NewGormWithOptions(&GormOptions{Driver: "sqlite", DSN: ":memory:", MaxConns: 1, MaxIdle: 1})
		So(err, ShouldBeNil)
		defer g.Close()
		So(g.DB(), ShouldNotBeNil)

		_, err = g.Exec(ctx, "CREATE TABLE note (n_key INTEGER PRIMARY KEY AUTOINCREMENT, text TEXT)")
		So(err, ShouldBeNil)

		Convey("插入更新和查询", func() {
			id, err := g.ExecInsert(ctx, "INSERT INTO note (text) VALUES (?)", "first")
			So(err, ShouldBeNil)
			So(id, ShouldEqual, int64(1))

			n, err := g.Exec(ctx, "UPDATE note SET text=? WHERE n_key=?", "changed", id)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, int64(1))

			rs, err := g.Query(ctx, "SELECT n_key, text FROM note WHERE n_key=?", id)
			So(err, ShouldBeNil)
			So(rs.Next(), ShouldBeTrue)
			v, ok := rs.Column("text")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "changed")
			So(rs.Next(), ShouldBeFalse)
		})

		Convey("读取表结构", func() {
			columns, err := g.TableColumns(ctx, "note")
			So(err, ShouldBeNil)
			So(columns, ShouldResemble, []string{"n_key", "text"})

			_, err = g.TableColumns(ctx, "nowhere")
			So(errors.Is(err, ErrTableNotFound), ShouldBeTrue)
		})
	})
}

package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInQuery(t *testing.T) {
	Convey("测试 InQuery", t, func() {
		Convey("Type 方法", func() {
			So((&InQuery{}).Type(), ShouldEqual, QueryTypeIn)
		})

		Convey("多个值", func() {
			values := []any{1, 2, 3}
			q := &InQuery{Field: "id", Values: values}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "id IN (?,?,?)")
			So(args, ShouldResemble, []any{1, 2, 3})

			args[0] = 100
			So(q.Values[0], ShouldEqual, 1)
		})

		Convey("单个值", func() {
			sql, args, err := (&InQuery{Field: "status", Values: []any{"open"}}).ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "status IN (?)")
			So(args, ShouldResemble, []any{"open"})
		})

		Convey("空值列表不匹配任何行", func() {
			sql, args, err := (&InQuery{Field: "id"}).ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "1=0")
			So(args, ShouldBeEmpty)
		})

		Convey("缺少字段", func() {
			_, _, err := (&InQuery{Values: []any{1}}).ToSQL()
			So(err, ShouldNotBeNil)
		})
	})
}

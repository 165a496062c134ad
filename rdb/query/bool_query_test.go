package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBoolQueryType(t *testing.T) {
	Convey("测试 BoolQuery Type 方法", t, func() {
		So((&BoolQuery{}).Type(), ShouldEqual, QueryTypeBool)
	})
}

func TestBoolQueryToSQL(t *testing.T) {
	Convey("测试 BoolQuery ToSQL 方法", t, func() {
		Convey("空的 BoolQuery", func() {
			sql, args, err := (&BoolQuery{}).ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "1=1")
			So(args, ShouldBeEmpty)
		})

		Convey("包含 Must 条件", func() {
			q := &BoolQuery{Must: []Query{
				&TermQuery{Field: "status", Value: "active"},
				&RangeQuery{Field: "age", Gte: 18},
			}}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(status = ? AND age >= ?)")
			So(args, ShouldResemble, []any{"active", 18})
		})

		Convey("包含 Should 条件", func() {
			q := &BoolQuery{Should: []Query{
				&TermQuery{Field: "type", Value: "a"},
				&TermQuery{Field: "type", Value: "b"},
			}}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(type = ? OR type = ?)")
			So(args, ShouldResemble, []any{"a", "b"})
		})

		Convey("包含 Should 条件和 MinShouldMatch", func() {
			two := 2
			q := &BoolQuery{
				Should: []Query{
					&TermQuery{Field: "a", Value: 1},
					&TermQuery{Field: "b", Value: 2},
					&ExistsQuery{Field: "c"},
				},
				MinShouldMatch: &two,
			}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(CASE WHEN (a = ?) THEN 1 ELSE 0 END + CASE WHEN (b = ?) THEN 1 ELSE 0 END + CASE WHEN (c IS NOT NULL) THEN 1 ELSE 0 END) >= 2")
			So(args, ShouldResemble, []any{1, 2})
		})

		Convey("MinShouldMatch 为负数", func() {
			negative := -1
			q := &BoolQuery{Should: []Query{&ExistsQuery{Field: "a"}}, MinShouldMatch: &negative}
			_, _, err := q.ToSQL()
			So(err, ShouldNotBeNil)
		})

		Convey("包含 MustNot 条件", func() {
			q := &BoolQuery{MustNot: []Query{
				&TermQuery{Field: "deleted", Value: true},
				&InQuery{Field: "id", Values: []any{7, 8}},
			}}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(NOT (deleted = ?) AND NOT (id IN (?,?)))")
			So(args, ShouldResemble, []any{true, 7, 8})
		})

		Convey("复合条件", func() {
			q := &BoolQuery{
				Must:    []Query{&TermQuery{Field: "status", Value: "open"}},
				Filter:  []Query{&RangeQuery{Field: "total", Gt: 100}},
				Should:  []Query{&PrefixQuery{Field: "name", Value: "A"}},
				MustNot: []Query{&ExistsQuery{Field: "closed_at"}},
			}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(status = ?) AND (total > ?) AND (name LIKE ? ESCAPE '!') AND (NOT (closed_at IS NOT NULL))")
			So(args, ShouldResemble, []any{"open", 100, "A%"})
		})

		Convey("嵌套 BoolQuery", func() {
			q := &BoolQuery{Must: []Query{
				&TermQuery{Field: "a", Value: 1},
				&BoolQuery{Should: []Query{&TermQuery{Field: "b", Value: 2}, &TermQuery{Field: "c", Value: 3}}},
			}}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(a = ? AND (b = ? OR c = ?))")
			So(args, ShouldResemble, []any{1, 2, 3})
		})

		Convey("子查询出错", func() {
			q := &BoolQuery{Must: []Query{&TermQuery{Value: 1}}}
			_, _, err := q.ToSQL()
			So(err, ShouldNotBeNil)

			q = &BoolQuery{Should: []Query{nil}}
			_, _, err = q.ToSQL()
			So(err, ShouldNotBeNil)
		})
	})
}

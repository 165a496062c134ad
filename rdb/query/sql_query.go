package query

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type connective string

const (
	connectiveNone connective = ""
	connectiveAnd  connective = "AND"
	connectiveOr   connective = "OR"
)

type sqlClause struct {
	sql    string
	values []any
}

type whereClause struct {
	connective connective
	fragment   string
	values     []any
	// raw 条件按原样拼接，不补连接词
	raw bool
}

func (c whereClause) render(first bool) string {
	if c.raw || first || c.connective == connectiveNone {
		return c.fragment
	}
	return string(c.connective) + " " + c.fragment
}

// SQLQuery 参数化查询
//
// Raw 创建的查询不可修改；New 创建的查询按
// SELECT、子句、WHERE、ORDER BY、LIMIT、OFFSET 的顺序组装。
// 组装过程中的错误会被收集，由 Build 统一返回。
type SQLQuery struct {
	raw       bool
	rawSQL    string
	rawValues []any

	selectClause string
	clauses      []sqlClause
	wheres       []whereClause
	orders       []string
	limit        *int
	offset       *int
	primaryKey   string

	errs []error
}

func New() *SQLQuery {
	return &SQLQuery{}
}

func Raw(sql string, values ...any) *SQLQuery {
	q := &SQLQuery{raw: true, rawSQL: sql, rawValues: append([]any(nil), values...)}
	if strings.TrimSpace(sql) == "" {
		q.addError(errors.New("raw sql must not be empty"))
	}
	return q
}

func (q *SQLQuery) addError(err error) {
	q.errs = append(q.errs, err)
}

func (q *SQLQuery) composable(op string) bool {
	if q.raw {
		q.addError(errors.Errorf("%s: cannot mutate a raw query", op))
		return false
	}
	return true
}

func (q *SQLQuery) fragment(op string, fragment string) (string, bool) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		q.addError(errors.Errorf("%s: clause must not be empty", op))
		return "", false
	}
	return fragment, true
}

// Clause 追加任意子句，如 FROM、JOIN、GROUP BY
func (q *SQLQuery) Clause(clause string, values ...any) *SQLQuery {
	if !q.composable("Clause") {
		return q
	}
	if clause, ok := q.fragment("Clause", clause); ok {
		q.clauses = append(q.clauses, sqlClause{sql: clause, values: values})
	}
	return q
}

// Select 设置完整的 SELECT 子句，重复调用时覆盖
func (q *SQLQuery) Select(sel string) *SQLQuery {
	if !q.composable("Select") {
		return q
	}
	if sel, ok := q.fragment("Select", sel); ok {
		q.selectClause = sel
	}
	return q
}

func (q *SQLQuery) SelectColumns(columns ...string) *SQLQuery {
	return q.selectList("SelectColumns", "SELECT ", columns)
}

func (q *SQLQuery) SelectDistinct(columns ...string) *SQLQuery {
	return q.selectList("SelectDistinct", "SELECT DISTINCT ", columns)
}

func (q *SQLQuery) selectList(op string, prefix string, columns []string) *SQLQuery {
	if !q.composable(op) {
		return q
	}
	var names []string
	for _, column := range columns {
		if column = strings.TrimSpace(column); column != "" {
			names = append(names, column)
		}
	}
	if len(names) == 0 {
		q.addError(errors.Errorf("%s: at least one column must be specified", op))
		return q
	}
	q.selectClause = prefix + strings.Join(names, ", ")
	return q
}

func (q *SQLQuery) From(table string) *SQLQuery {
	return q.Clause("FROM " + strings.TrimSpace(table))
}

// Join join 为完整的连接表达式，如 "LEFT JOIN note n ON n.n_key = t.n_key"
func (q *SQLQuery) Join(join string) *SQLQuery {
	return q.Clause(join)
}

// Where 开始一组条件，后续条件用 AndWhere/OrWhere 连接
func (q *SQLQuery) Where(fragment string, values ...any) *SQLQuery {
	return q.where("Where", connectiveNone, fragment, values)
}

func (q *SQLQuery) AndWhere(fragment string, values ...any) *SQLQuery {
	return q.where("AndWhere", connectiveAnd, fragment, values)
}

func (q *SQLQuery) OrWhere(fragment string, values ...any) *SQLQuery {
	return q.where("OrWhere", connectiveOr, fragment, values)
}

func (q *SQLQuery) where(op string, c connective, fragment string, values []any) *SQLQuery {
	if !q.composable(op) {
		return q
	}
	if c != connectiveNone && len(q.wheres) == 0 {
		q.addError(errors.Errorf("%s: requires a preceding Where", op))
		return q
	}
	if fragment, ok := q.fragment(op, fragment); ok {
		q.wheres = append(q.wheres, whereClause{connective: c, fragment: fragment, values: values})
	}
	return q
}

// Condition 按原样追加到 WHERE 中，连接词和括号由调用方给出
func (q *SQLQuery) Condition(fragment string, values ...any) *SQLQuery {
	if !q.composable("Condition") {
		return q
	}
	if fragment, ok := q.fragment("Condition", fragment); ok {
		q.wheres = append(q.wheres, whereClause{fragment: fragment, values: values, raw: true})
	}
	return q
}

// Filter 以 AND 追加条件节点，没有前置条件时作为第一个条件
func (q *SQLQuery) Filter(query Query) *SQLQuery {
	if !q.composable("Filter") {
		return q
	}
	if query == nil {
		q.addError(errors.New("Filter: query must not be nil"))
		return q
	}
	sql, values, err := query.ToSQL()
	if err != nil {
		q.addError(errors.WithMessage(err, "Filter"))
		return q
	}
	c := connectiveAnd
	if len(q.wheres) == 0 {
		c = connectiveNone
	}
	q.wheres = append(q.wheres, whereClause{connective: c, fragment: "(" + sql + ")", values: values})
	return q
}

// OrderBy expression 按原样使用，如 "name desc, id"
func (q *SQLQuery) OrderBy(expression string) *SQLQuery {
	if !q.composable("OrderBy") {
		return q
	}
	if expression, ok := q.fragment("OrderBy", expression); ok {
		q.orders = append(q.orders, expression)
	}
	return q
}

func (q *SQLQuery) OrderByColumn(column string, direction Direction) *SQLQuery {
	if !q.composable("OrderByColumn") {
		return q
	}
	column, ok := q.fragment("OrderByColumn", column)
	if !ok {
		return q
	}
	switch strings.ToLower(string(direction)) {
	case "", string(Asc):
		direction = Asc
	case string(Desc):
		direction = Desc
	default:
		q.addError(errors.Errorf("OrderByColumn: unknown direction %q", direction))
		return q
	}
	q.orders = append(q.orders, column+" "+string(direction))
	return q
}

func (q *SQLQuery) Limit(maxRows int) *SQLQuery {
	if !q.composable("Limit") {
		return q
	}
	if maxRows < 0 {
		q.addError(errors.Errorf("Limit: must be non-negative, got %d", maxRows))
		return q
	}
	q.limit = &maxRows
	return q
}

func (q *SQLQuery) Offset(rows int) *SQLQuery {
	if !q.composable("Offset") {
		return q
	}
	if rows < 0 {
		q.addError(errors.Errorf("Offset: must be non-negative, got %d", rows))
		return q
	}
	q.offset = &rows
	return q
}

func (q *SQLQuery) Paginate(maxRows int, startAt int) *SQLQuery {
	return q.Limit(maxRows).Offset(startAt)
}

// PrimaryKey 结果实体的主键列名，实体类型未声明主键时使用
func (q *SQLQuery) PrimaryKey(name string) *SQLQuery {
	if !q.composable("PrimaryKey") {
		return q
	}
	q.primaryKey = strings.TrimSpace(name)
	return q
}

func (q *SQLQuery) PrimaryKeyName() string {
	return q.primaryKey
}

func (q *SQLQuery) IsRaw() bool {
	return q.raw
}

func (q *SQLQuery) SQL() string {
	if q.raw {
		return q.rawSQL
	}

	var segments []string
	if q.selectClause != "" {
		segments = append(segments, q.selectClause)
	}
	for _, c := range q.clauses {
		segments = append(segments, c.sql)
	}
	if len(q.wheres) > 0 {
		conditions := make([]string, len(q.wheres))
		for i, w := range q.wheres {
			conditions[i] = w.render(i == 0)
		}
		segments = append(segments, "WHERE "+strings.Join(conditions, " "))
	}
	if len(q.orders) > 0 {
		segments = append(segments, "ORDER BY "+strings.Join(q.orders, ", "))
	}
	if q.limit != nil {
		segments = append(segments, fmt.Sprintf("LIMIT %d", *q.limit))
	}
	if q.offset != nil {
		segments = append(segments, fmt.Sprintf("OFFSET %d", *q.offset))
	}
	return strings.Join(segments, " ")
}

// Values 按占位符出现的顺序返回参数，返回值为副本
func (q *SQLQuery) Values() []any {
	if q.raw {
		return append([]any(nil), q.rawValues...)
	}
	var values []any
	for _, c := range q.clauses {
		values = append(values, c.values...)
	}
	for _, w := range q.wheres {
		values = append(values, w.values...)
	}
	return values
}

func (q *SQLQuery) Err() error {
	if len(q.errs) == 0 {
		return nil
	}
	messages := make([]string, len(q.errs))
	for i, err := range q.errs {
		messages[i] = err.Error()
	}
	return errors.Errorf("invalid query: %s", strings.Join(messages, "; "))
}

func (q *SQLQuery) Build() (string, []any, error) {
	if err := q.Err(); err != nil {
		return "", nil, err
	}
	return q.SQL(), q.Values(), nil
}

func (q *SQLQuery) String() string {
	return fmt.Sprintf("SQLQuery[%s] %v", q.SQL(), q.Values())
}

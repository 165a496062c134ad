package query

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// RangeQuery 范围查询，未设置的边界不参与过滤
type RangeQuery struct {
	Field string `json:"field"`
	Gt    any    `json:"gt,omitempty"`
	Gte   any    `json:"gte,omitempty"`
	Lt    any    `json:"lt,omitempty"`
	Lte   any    `json:"lte,omitempty"`
}

func (q *RangeQuery) Type() QueryType {
	return QueryTypeRange
}

func (q *RangeQuery) ToSQL() (string, []any, error) {
	if q.Field == "" {
		return "", nil, errors.New("range query requires a field")
	}

	var conditions []string
	var args []any
	bounds := []struct {
		op    string
		value any
	}{
		{">", q.Gt},
		{">=", q.Gte},
		{"<", q.Lt},
		{"<=", q.Lte},
	}
	for _, b := range bounds {
		if b.value == nil {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s %s ?", q.Field, b.op))
		args = append(args, b.value)
	}

	if len(conditions) == 0 {
		return matchAll, nil, nil
	}
	return strings.Join(conditions, " AND "), args, nil
}

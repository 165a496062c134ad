package query

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// BoolQuery 布尔组合查询
// Must 和 Filter 全部满足，Should 至少满足 MinShouldMatch 个（默认 1），MustNot 全部不满足
type BoolQuery struct {
	Must           []Query `json:"must,omitempty"`
	Should         []Query `json:"should,omitempty"`
	MustNot        []Query `json:"must_not,omitempty"`
	Filter         []Query `json:"filter,omitempty"`
	MinShouldMatch *int    `json:"minimum_should_match,omitempty"`
}

func (q *BoolQuery) Type() QueryType {
	return QueryTypeBool
}

func renderAll(queries []Query) ([]string, []any, error) {
	fragments := make([]string, 0, len(queries))
	var args []any
	for _, query := range queries {
		if query == nil {
			return nil, nil, errors.New("nil query in bool clause")
		}
		sql, queryArgs, err := query.ToSQL()
		if err != nil {
			return nil, nil, err
		}
		fragments = append(fragments, sql)
		args = append(args, queryArgs...)
	}
	return fragments, args, nil
}

func (q *BoolQuery) ToSQL() (string, []any, error) {
	var conditions []string
	var args []any

	for _, group := range [][]Query{q.Must, q.Filter} {
		if len(group) == 0 {
			continue
		}
		fragments, groupArgs, err := renderAll(group)
		if err != nil {
			return "", nil, err
		}
		conditions = append(conditions, "("+strings.Join(fragments, " AND ")+")")
		args = append(args, groupArgs...)
	}

	if len(q.Should) > 0 {
		fragments, shouldArgs, err := renderAll(q.Should)
		if err != nil {
			return "", nil, err
		}
		if q.MinShouldMatch != nil && *q.MinShouldMatch < 0 {
			return "", nil, errors.Errorf("minimum_should_match must be non-negative, got %d", *q.MinShouldMatch)
		}
		// MinShouldMatch 不为 1 时按满足条件的个数计数
		if q.MinShouldMatch != nil && *q.MinShouldMatch != 1 {
			cases := make([]string, len(fragments))
			for i, fragment := range fragments {
				cases[i] = fmt.Sprintf("CASE WHEN (%s) THEN 1 ELSE 0 END", fragment)
			}
			conditions = append(conditions, fmt.Sprintf("(%s) >= %d", strings.Join(cases, " + "), *q.MinShouldMatch))
		} else {
			conditions = append(conditions, "("+strings.Join(fragments, " OR ")+")")
		}
		args = append(args, shouldArgs...)
	}

	if len(q.MustNot) > 0 {
		fragments, notArgs, err := renderAll(q.MustNot)
		if err != nil {
			return "", nil, err
		}
		for i, fragment := range fragments {
			fragments[i] = "NOT (" + fragment + ")"
		}
		conditions = append(conditions, "("+strings.Join(fragments, " AND ")+")")
		args = append(args, notArgs...)
	}

	if len(conditions) == 0 {
		return matchAll, nil, nil
	}
	return strings.Join(conditions, " AND "), args, nil
}

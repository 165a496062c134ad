package query

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// InQuery 字段取值属于 Values，Values 为空时不匹配任何行
type InQuery struct {
	Field  string `json:"field"`
	Values []any  `json:"values"`
}

func (q *InQuery) Type() QueryType {
	return QueryTypeIn
}

func (q *InQuery) ToSQL() (string, []any, error) {
	if q.Field == "" {
		return "", nil, errors.New("in query requires a field")
	}
	if len(q.Values) == 0 {
		return "1=0", nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(q.Values)), ",")
	args := make([]any, len(q.Values))
	copy(args, q.Values)
	return fmt.Sprintf("%s IN (%s)", q.Field, placeholders), args, nil
}

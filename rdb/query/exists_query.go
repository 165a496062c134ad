package query

import (
	"fmt"

	"github.com/pkg/errors"
)

// ExistsQuery 字段非 NULL
type ExistsQuery struct {
	Field string `json:"field"`
}

func (q *ExistsQuery) Type() QueryType {
	return QueryTypeExists
}

func (q *ExistsQuery) ToSQL() (string, []any, error) {
	if q.Field == "" {
		return "", nil, errors.New("exists query requires a field")
	}
	return fmt.Sprintf("%s IS NOT NULL", q.Field), nil, nil
}

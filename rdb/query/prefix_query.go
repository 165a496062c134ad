package query

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// PrefixQuery 前缀查询，Value 中的 % 和 _ 按字面匹配
type PrefixQuery struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// mysql 和 sqlite 对反斜杠的处理不同，转义字符使用 !
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (q *PrefixQuery) Type() QueryType {
	return QueryTypePrefix
}

func (q *PrefixQuery) ToSQL() (string, []any, error) {
	if q.Field == "" {
		return "", nil, errors.New("prefix query requires a field")
	}
	return fmt.Sprintf("%s LIKE ? ESCAPE '!'", q.Field), []any{likeEscaper.Replace(q.Value) + "%"}, nil
}

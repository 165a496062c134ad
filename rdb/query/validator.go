package query

import (
	"github.com/pkg/errors"
)

// AssertPlaceholderCount 校验 ? 的个数与参数个数一致，单引号字符串中的 ? 不计入
func AssertPlaceholderCount(q *SQLQuery) error {
	if q == nil {
		return errors.New("query must not be nil")
	}
	sql, values, err := q.Build()
	if err != nil {
		return err
	}
	if n := CountPlaceholders(sql); n != len(values) {
		return errors.Errorf("placeholder mismatch for sql [%s]: expected %d values but found %d", sql, n, len(values))
	}
	return nil
}

func CountPlaceholders(sql string) int {
	count := 0
	quoted := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			quoted = !quoted
		case '?':
			if !quoted {
				count++
			}
		}
	}
	return count
}

package database

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"
)

var ErrTableNotFound = errors.New("table not found")

// MemRowSet 内存结果集
type MemRowSet struct {
	columns []string
	rows    []map[string]any
	index   int
	closed  bool
}

// NewMemRowSet columns 为列名，每行的值与 columns 一一对应
// 列名按小写保存，重复列以第一次出现为准
func NewMemRowSet(columns []string, rows ...[]any) *MemRowSet {
	rs := &MemRowSet{columns: columns}
	for _, values := range rows {
		rs.rows = append(rs.rows, toRowMap(columns, values))
	}
	return rs
}

func toRowMap(columns []string, values []any) map[string]any {
	row := make(map[string]any, len(columns))
	for i, col := range columns {
		key := strings.ToLower(col)
		if _, ok := row[key]; ok {
			continue
		}
		if i < len(values) {
			row[key] = values[i]
		} else {
			row[key] = nil
		}
	}
	return row
}

func (rs *MemRowSet) Next() bool {
	if rs.closed || rs.index >= len(rs.rows) {
		rs.index = len(rs.rows) + 1
		return false
	}
	rs.index++
	return true
}

func (rs *MemRowSet) Column(name string) (any, bool) {
	if rs.index < 1 || rs.index > len(rs.rows) {
		return nil, false
	}
	v, ok := rs.rows[rs.index-1][strings.ToLower(name)]
	return v, ok
}

func (rs *MemRowSet) Columns() []string {
	return rs.columns
}

func (rs *MemRowSet) RowIndex() int {
	if rs.index < 1 || rs.index > len(rs.rows) {
		return 0
	}
	return rs.index
}

func (rs *MemRowSet) Len() int {
	return len(rs.rows)
}

func (rs *MemRowSet) Err() error {
	return nil
}

func (rs *MemRowSet) Close() error {
	rs.closed = true
	return nil
}

// readRows 读取全部行并关闭 rows
func readRows(rows *sql.Rows) (*MemRowSet, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "rows.Columns failed")
	}

	rs := &MemRowSet{columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "rows.Scan failed")
		}
		rs.rows = append(rs.rows, toRowMap(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows.Next failed")
	}
	return rs, nil
}

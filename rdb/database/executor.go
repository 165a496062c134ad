package database

import (
	"context"
)

// Executor 执行参数化 SQL，占位符统一为 ?
type Executor interface {
	// Exec 执行写语句，返回影响行数
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	// ExecInsert 执行插入语句，返回数据库生成的主键
	ExecInsert(ctx context.Context, sql string, args ...any) (any, error)
	// Query 执行查询，结果集在返回前已完整读取
	Query(ctx context.Context, sql string, args ...any) (RowSet, error)
	Close() error
}

// RowSet 查询结果游标，Next 之后 Column/RowIndex 指向当前行
type RowSet interface {
	Next() bool
	// Column 按列名读取当前行的值，大小写不敏感
	Column(name string) (any, bool)
	Columns() []string
	// RowIndex 当前行号，从 1 开始，0 表示没有当前行
	RowIndex() int
	Err() error
	Close() error
}

// TableInspector 读取表结构
type TableInspector interface {
	// TableColumns 返回表的列名，表不存在时返回 ErrTableNotFound
	TableColumns(ctx context.Context, table string) ([]string, error)
}

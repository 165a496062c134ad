package query

// QueryType 条件节点类型
type QueryType string

const (
	QueryTypeBool   QueryType = "bool"
	QueryTypeTerm   QueryType = "term"
	QueryTypeRange  QueryType = "range"
	QueryTypeExists QueryType = "exists"
	QueryTypePrefix QueryType = "prefix"
	QueryTypeIn     QueryType = "in"
)

// Query 条件节点，渲染为 WHERE 之后的 SQL 片段，占位符为 ?
type Query interface {
	Type() QueryType
	ToSQL() (string, []any, error)
}

// matchAll 没有任何条件时的片段
const matchAll = "1=1"

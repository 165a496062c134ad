package model

import "fmt"

// RefValue 外键引用及其冗余展示值
// Ref 为外键标识，Value 为 join 得到的可选标签（例如供应商名称）
type RefValue struct {
	Ref   Key
	Value any
}

func NewRefValue(ref Key, value any) *RefValue {
	return &RefValue{Ref: ref, Value: value}
}

// Equal 两者都为 nil 时相等
func (r *RefValue) Equal(other *RefValue) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Ref.Equal(other.Ref) && fmt.Sprint(r.Value) == fmt.Sprint(other.Value)
}

func (r *RefValue) String() string {
	if r == nil {
		return "RefValue(nil)"
	}
	return fmt.Sprintf("RefValue(%s, %v)", r.Ref, r.Value)
}

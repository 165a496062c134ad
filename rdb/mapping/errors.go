package mapping

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// MappingError 映射配置或用法错误，不可重试
// 覆盖缺失的表名/主键声明、无法解析的列绑定、更新未持久化实体、空插入等情况
type MappingError struct {
	Type   string
	Column string
	Reason string
}

func (e *MappingError) Error() string {
	var b strings.Builder
	b.WriteString("mapping error")
	if e.Type != "" {
		b.WriteString(" [")
		b.WriteString(e.Type)
		if e.Column != "" {
			b.WriteString(".")
			b.WriteString(e.Column)
		}
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func newMappingError(t reflect.Type, column string, format string, args ...any) error {
	name := ""
	if t != nil {
		name = t.String()
	}
	return errors.WithStack(&MappingError{
		Type:   name,
		Column: column,
		Reason: fmt.Sprintf(format, args...),
	})
}

// IsMappingError 判断错误链中是否包含 MappingError
func IsMappingError(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}

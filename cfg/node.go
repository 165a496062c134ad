package cfg

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Node 解码后的配置树，叶子为标量，内部节点为 map[string]any 或 []any
// 实现 ref.Convertable，可直接作为构造函数的 options
type Node struct {
	data any
}

func NewNode(data any) *Node {
	return &Node{data: data}
}

func (n *Node) Data() any {
	return n.data
}

// Sub 按点分路径取子节点，路径不存在时返回空节点
func (n *Node) Sub(key string) *Node {
	if key == "" {
		return n
	}
	current := n.data
	for _, part := range strings.Split(key, ".") {
		m, ok := asMap(current)
		if !ok {
			return NewNode(nil)
		}
		current = lookup(m, part)
	}
	return NewNode(current)
}

// ConvertTo 将节点转换到 object 指向的结构体，随后填充 def 默认值并校验
func (n *Node) ConvertTo(object any) error {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Errorf("object must be a non-nil pointer, got %T", object)
	}
	if err := convertValue(n.data, rv.Elem()); err != nil {
		return errors.WithMessagef(err, "convert config to %T", object)
	}
	if err := SetDefaults(object); err != nil {
		return err
	}
	return Validate(object)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		converted := make(map[string]any, len(m))
		for k, v := range m {
			converted[toString(k)] = v
		}
		return converted, true
	}
	return nil, false
}

// lookup 先精确匹配，再忽略大小写匹配
func lookup(m map[string]any, key string) any {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

func convertValue(src any, dst reflect.Value) error {
	if src == nil {
		return nil
	}
	if node, ok := src.(*Node); ok {
		return convertValue(node.data, dst)
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return convertValue(src, dst.Elem())
	}

	sv := reflect.ValueOf(src)
	for sv.Kind() == reflect.Ptr {
		if sv.IsNil() {
			return nil
		}
		sv = sv.Elem()
	}
	src = sv.Interface()
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	switch dst.Type() {
	case durationType:
		return convertDuration(sv, dst)
	case timeType:
		if sv.Kind() == reflect.String {
			t, err := time.Parse(time.RFC3339, sv.String())
			if err != nil {
				return errors.Wrapf(err, "failed to parse time %q", sv.String())
			}
			dst.Set(reflect.ValueOf(t))
			return nil
		}
	}

	switch dst.Kind() {
	case reflect.Struct:
		m, ok := asMap(src)
		if !ok {
			return errors.Errorf("cannot convert %T to %s", src, dst.Type())
		}
		return convertStruct(m, dst)
	case reflect.Map:
		m, ok := asMap(src)
		if !ok {
			return errors.Errorf("cannot convert %T to %s", src, dst.Type())
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMap(dst.Type()))
		}
		for k, v := range m {
			elem := reflect.New(dst.Type().Elem()).Elem()
			if err := convertValue(v, elem); err != nil {
				return errors.WithMessagef(err, "key %s", k)
			}
			dst.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), elem)
		}
		return nil
	case reflect.Slice:
		if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
			return errors.Errorf("cannot convert %T to %s", src, dst.Type())
		}
		slice := reflect.MakeSlice(dst.Type(), sv.Len(), sv.Len())
		for i := 0; i < sv.Len(); i++ {
			if err := convertValue(sv.Index(i).Interface(), slice.Index(i)); err != nil {
				return errors.WithMessagef(err, "index %d", i)
			}
		}
		dst.Set(slice)
		return nil
	}

	if isNumber(sv.Kind()) && isNumber(dst.Kind()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	if sv.Kind() == dst.Kind() && sv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return errors.Errorf("cannot convert %T to %s", src, dst.Type())
}

func convertStruct(m map[string]any, dst reflect.Value) error {
	dt := dst.Type()
	for i := 0; i < dt.NumField(); i++ {
		field := dt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := strings.Split(field.Tag.Get("cfg"), ",")[0]; tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		v := lookup(m, name)
		if v == nil {
			continue
		}
		if err := convertValue(v, dst.Field(i)); err != nil {
			return errors.WithMessagef(err, "field %s", name)
		}
	}
	return nil
}

func convertDuration(sv reflect.Value, dst reflect.Value) error {
	switch {
	case sv.Kind() == reflect.String:
		d, err := time.ParseDuration(sv.String())
		if err != nil {
			return errors.Wrapf(err, "failed to parse duration %q", sv.String())
		}
		dst.SetInt(int64(d))
		return nil
	case isNumber(sv.Kind()):
		dst.SetInt(sv.Convert(durationType).Int())
		return nil
	}
	return errors.Errorf("cannot convert %s to time.Duration", sv.Type())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

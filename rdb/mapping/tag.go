package mapping

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// 支持的 tag 格式：
// - 嵌入的 model.Model 字段上 `table:"purchase_order" pk:"id"` 声明表名和主键列
// - `rdb:"column"` 普通列，未声明时使用字段名的小写形式
// - `rdb:"-"` 跳过
// - `rdb:"column,ref,prefix=p_"` 嵌套引用，column 为空时使用被引用类型的主键列
// - `rdb:"fk_column,ref,label=label_column"` *model.RefValue 引用
type fieldTag struct {
	column string
	ref    bool
	prefix string
	label  string
}

func parseFieldTag(tag string) (fieldTag, error) {
	var ft fieldTag
	if tag == "" {
		return ft, nil
	}

	parts := strings.Split(tag, ",")
	if !strings.Contains(parts[0], "=") {
		ft.column = strings.TrimSpace(parts[0])
		parts = parts[1:]
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if key, value, ok := strings.Cut(part, "="); ok {
			switch strings.TrimSpace(key) {
			case "prefix":
				ft.prefix = strings.TrimSpace(value)
			case "label":
				ft.label = strings.TrimSpace(value)
			default:
				return ft, errors.Errorf("unknown tag option %q", part)
			}
			continue
		}
		switch part {
		case "ref":
			ft.ref = true
		default:
			return ft, errors.Errorf("unknown tag option %q", part)
		}
	}

	return ft, nil
}

type tableNamer interface {
	TableName() string
}

// typeHeader 读取类型级声明（表名、主键列），不解析字段
func typeHeader(t reflect.Type) (table string, pk string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.Anonymous || field.Type != modelType {
			continue
		}
		table = field.Tag.Get("table")
		pk = field.Tag.Get("pk")
		break
	}
	if table == "" {
		if namer, ok := reflect.New(t).Interface().(tableNamer); ok {
			table = namer.TableName()
		}
	}
	return table, pk
}

// fromStruct 从结构体 tag 构建描述符
func (r *Registry) fromStruct(t reflect.Type) (*Descriptor, error) {
	table, pk := typeHeader(t)

	var fields []*FieldBinding
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Anonymous {
			continue
		}

		tag := field.Tag.Get("rdb")
		if tag == "-" {
			continue
		}

		ft, err := parseFieldTag(tag)
		if err != nil {
			return nil, newMappingError(t, field.Name, "%v", err)
		}

		binding, err := r.bindField(t, field.Name, field.Type, ft)
		if err != nil {
			return nil, err
		}
		index := field.Index
		binding.addr = func(ptr reflect.Value) reflect.Value {
			return ptr.Elem().FieldByIndex(index)
		}
		fields = append(fields, binding)
	}

	return newDescriptor(t, table, pk, fields)
}

// bindField 根据字段类型与 tag 选项确定绑定类型，tag 解析与显式声明共用
func (r *Registry) bindField(owner reflect.Type, name string, fieldType reflect.Type, ft fieldTag) (*FieldBinding, error) {
	binding := &FieldBinding{Name: name, Column: ft.column, Kind: KindScalar}

	isRefValue := fieldType.Kind() == reflect.Ptr && fieldType.Elem() == refValueType
	if !ft.ref {
		if isRefValue || fieldType == refValueType {
			return nil, newMappingError(owner, name, "RefValue field requires the ref option")
		}
		if ft.prefix != "" || ft.label != "" {
			return nil, newMappingError(owner, name, "prefix and label apply to references only")
		}
		if binding.Column == "" {
			binding.Column = strings.ToLower(name)
		}
		return binding, nil
	}

	binding.Kind = KindReference
	if isRefValue {
		if ft.column == "" {
			return nil, newMappingError(owner, name, "RefValue reference requires a foreign key column")
		}
		if ft.prefix != "" {
			return nil, newMappingError(owner, name, "prefix does not apply to RefValue references")
		}
		binding.refValue = true
		binding.LabelColumn = ft.label
		return binding, nil
	}

	if fieldType.Kind() != reflect.Ptr || fieldType.Elem().Kind() != reflect.Struct {
		return nil, newMappingError(owner, name, "reference must be a pointer to a mapped struct, got %s", fieldType)
	}
	if ft.label != "" {
		return nil, newMappingError(owner, name, "label applies to RefValue references only")
	}

	binding.Referenced = fieldType.Elem()
	binding.Prefix = ft.prefix
	if binding.Column == "" {
		pk, err := r.primaryKeyOf(binding.Referenced)
		if err != nil {
			return nil, newMappingError(owner, name, "cannot default reference column: %v", err)
		}
		binding.Column = pk
	}
	return binding, nil
}

// primaryKeyOf 被引用类型的主键列，只读取类型级声明以避免循环引用时的递归解析
func (r *Registry) primaryKeyOf(t reflect.Type) (string, error) {
	if v, ok := r.descriptors.Load(t); ok {
		return v.(*Descriptor).PrimaryKey, nil
	}
	if !reflect.PointerTo(t).Implements(persistableType) {
		return "", newMappingError(t, "", "referenced type does not implement model.Persistable")
	}
	_, pk := typeHeader(t)
	if pk == "" {
		return "", newMappingError(t, "", "missing primary key column")
	}
	return pk, nil
}

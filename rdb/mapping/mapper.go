package mapping

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/viablespark/persist/rdb/model"
)

// Row 结果集中的一行
type Row interface {
	// Column 按列名读取值，大小写不敏感，列不存在时 ok 为 false
	Column(name string) (value any, ok bool)
	// RowIndex 当前行号，从 1 开始，0 表示没有当前行
	RowIndex() int
}

// MapRow 将一行映射为 desc 描述的实体，返回实体指针
// 没有当前行时返回 nil, nil
func (r *Registry) MapRow(desc *Descriptor, row Row) (any, error) {
	if row == nil || row.RowIndex() <= 0 {
		return nil, nil
	}

	ptr := reflect.New(desc.Type)
	if err := r.mapRoot(desc, ptr, row); err != nil {
		return nil, errors.WithMessagef(err, "map row %d", row.RowIndex())
	}
	return ptr.Interface(), nil
}

func (r *Registry) mapRoot(desc *Descriptor, ptr reflect.Value, row Row) error {
	value, ok := row.Column(desc.PrimaryKey)
	if !ok {
		return newMappingError(desc.Type, desc.PrimaryKey, "primary key column not found in row")
	}
	if err := desc.PrimaryKeyField().setKey(ptr, keyOf(desc.PrimaryKey, value)); err != nil {
		return err
	}

	return r.mapFields(desc, ptr, row, "", []reflect.Type{desc.Type})
}

// mapFields 映射主键以外的字段，嵌套类型的列带 prefix
func (r *Registry) mapFields(desc *Descriptor, ptr reflect.Value, row Row, prefix string, path []reflect.Type) error {
	for _, f := range desc.fields {
		switch {
		case f.Kind == KindPrimaryKey:
			continue
		case f.Kind == KindScalar:
			value, ok := row.Column(prefix + f.Column)
			if !ok {
				continue
			}
			if err := assign(f.addr(ptr), value); err != nil {
				return newMappingError(desc.Type, prefix+f.Column, "%v", err)
			}
		case f.IsRefValue():
			r.mapRefValue(f, ptr, row, prefix)
		default:
			if err := r.mapReference(desc, f, ptr, row, prefix, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) mapRefValue(f *FieldBinding, ptr reflect.Value, row Row, prefix string) {
	dst := f.addr(ptr)
	value, ok := row.Column(prefix + f.Column)
	if !ok || value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return
	}

	var label any
	if f.LabelColumn != "" {
		if lv, ok := row.Column(prefix + f.LabelColumn); ok {
			label = normalize(lv)
		} else {
			r.logger.Debug("label column not found in row", "column", prefix+f.LabelColumn)
		}
	}
	dst.Set(reflect.ValueOf(model.NewRefValue(model.Of(f.Column, normalize(value)), label)))
}

// mapReference 外键列存在时构造嵌套实例，外键为 NULL 时嵌套实例主键为 None
func (r *Registry) mapReference(owner *Descriptor, f *FieldBinding, ptr reflect.Value, row Row, prefix string, path []reflect.Type) error {
	value, ok := row.Column(prefix + f.Column)
	if !ok {
		r.logger.Debug("reference column not found in row", "type", owner.Type.String(), "column", prefix+f.Column)
		return nil
	}

	nested, err := r.Resolve(f.Referenced)
	if err != nil {
		return errors.WithMessagef(err, "resolve reference %s.%s", owner.Type, f.Name)
	}

	child := reflect.New(f.Referenced)
	if err := nested.PrimaryKeyField().setKey(child, keyOf(nested.PrimaryKey, value)); err != nil {
		return errors.WithMessagef(err, "map reference %s.%s", owner.Type, f.Name)
	}

	if !onPath(path, f.Referenced) {
		if err := r.mapFields(nested, child, row, prefix+f.Prefix, append(path, f.Referenced)); err != nil {
			return errors.WithMessagef(err, "map reference %s.%s", owner.Type, f.Name)
		}
	}

	f.addr(ptr).Set(child)
	return nil
}

func keyOf(name string, value any) model.Key {
	if value == nil {
		return model.None
	}
	return model.Of(name, normalize(value))
}

func onPath(path []reflect.Type, t reflect.Type) bool {
	for _, p := range path {
		if p == t {
			return true
		}
	}
	return false
}

// RowMapper 类型化的行映射器
type RowMapper[T any] struct {
	registry *Registry
	desc     *Descriptor
}

func NewRowMapper[T any](r *Registry) (*RowMapper[T], error) {
	desc, err := ResolveOf[T](r)
	if err != nil {
		return nil, err
	}
	return &RowMapper[T]{registry: r, desc: desc}, nil
}

func (m *RowMapper[T]) Descriptor() *Descriptor {
	return m.desc
}

// MapRow 没有当前行时返回 nil, nil
func (m *RowMapper[T]) MapRow(row Row) (*T, error) {
	entity, err := m.registry.MapRow(m.desc, row)
	if err != nil || entity == nil {
		return nil, err
	}
	return entity.(*T), nil
}

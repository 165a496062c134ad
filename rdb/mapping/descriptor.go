package mapping

import (
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/viablespark/persist/rdb/model"
)

// Kind 字段绑定类型
type Kind int

const (
	KindScalar Kind = iota
	KindPrimaryKey
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindPrimaryKey:
		return "primaryKey"
	case KindReference:
		return "reference"
	}
	return "unknown"
}

var (
	persistableType = reflect.TypeOf((*model.Persistable)(nil)).Elem()
	refValueType    = reflect.TypeOf(model.RefValue{})
	modelType       = reflect.TypeOf(model.Model{})
)

// FieldBinding 一个字段与一列（或一个嵌套引用）之间的绑定
type FieldBinding struct {
	// Name Go 字段名
	Name string
	// Column 列名；引用类型为外键列
	Column string
	Kind   Kind

	// Referenced 嵌套映射类型（结构体类型），RefValue 引用时为 nil
	Referenced reflect.Type
	// LabelColumn RefValue 引用的冗余展示列，可为空
	LabelColumn string
	// Prefix 嵌套类型自身列在结果行中的前缀
	Prefix string

	refValue bool
	// addr 返回实体指针上该字段的可设置值，主键绑定没有镜像字段时为 nil
	addr func(ptr reflect.Value) reflect.Value
}

// IsRefValue 是否为外键 + 展示值的 RefValue 引用
func (f *FieldBinding) IsRefValue() bool {
	return f.Kind == KindReference && f.refValue
}

// Addr 返回实体上该字段的可设置值，主键绑定没有镜像字段时返回零值 reflect.Value
func (f *FieldBinding) Addr(entity any) reflect.Value {
	ptr, err := entityPointer(entity)
	if err != nil || f.addr == nil {
		return reflect.Value{}
	}
	return f.addr(ptr)
}

// Get 读取实体上的字段值，主键绑定返回实体的 model.Key
func (f *FieldBinding) Get(entity any) (any, error) {
	ptr, err := entityPointer(entity)
	if err != nil {
		return nil, err
	}
	if f.Kind == KindPrimaryKey {
		return ptr.Interface().(model.Persistable).Key(), nil
	}
	return f.addr(ptr).Interface(), nil
}

// Set 按字段声明类型转换并赋值，主键绑定接受 model.Key
func (f *FieldBinding) Set(entity any, value any) error {
	ptr, err := entityPointer(entity)
	if err != nil {
		return err
	}
	if f.Kind == KindPrimaryKey {
		key, ok := value.(model.Key)
		if !ok {
			return newMappingError(ptr.Type().Elem(), f.Column, "primary key binding requires model.Key, got %T", value)
		}
		return f.setKey(ptr, key)
	}
	if err := assign(f.addr(ptr), value); err != nil {
		return newMappingError(ptr.Type().Elem(), f.Column, "%v", err)
	}
	return nil
}

// setKey 设置实体主键并同步镜像字段，镜像字段无法承载主键值时返回 MappingError 且不修改实体
func (f *FieldBinding) setKey(ptr reflect.Value, key model.Key) error {
	if f.addr != nil && key.IsPresent() {
		mirror := f.addr(ptr)
		staged := reflect.New(mirror.Type()).Elem()
		if err := assign(staged, key.Value()); err != nil {
			return newMappingError(ptr.Type().Elem(), f.Column, "primary key mirror field %s: %v", f.Name, err)
		}
		mirror.Set(staged)
	}
	ptr.Interface().(model.Persistable).SetKey(key)
	return nil
}

// Descriptor 一个映射类型的元数据，构建后不可变
type Descriptor struct {
	Type       reflect.Type
	Table      string
	PrimaryKey string

	// fields 按声明顺序排列，首个为主键绑定
	fields   []*FieldBinding

	byColumn map[string]*FieldBinding
	writes   []*FieldBinding
}

func newDescriptor(t reflect.Type, table string, pk string, fields []*FieldBinding) (*Descriptor, error) {
	if table == "" {
		return nil, newMappingError(t, "", "missing table name")
	}
	if pk == "" {
		return nil, newMappingError(t, "", "missing primary key column")
	}
	if !reflect.PointerTo(t).Implements(persistableType) {
		return nil, newMappingError(t, pk, "primary key cannot be matched: *%s does not implement model.Persistable", t.Name())
	}

	pkBinding := &FieldBinding{Name: "Key", Column: pk, Kind: KindPrimaryKey}
	desc := &Descriptor{
		Type:       t,
		Table:      table,
		PrimaryKey: pk,
		fields:     []*FieldBinding{pkBinding},
		byColumn:   map[string]*FieldBinding{strings.ToLower(pk): pkBinding},
	}

	for _, f := range fields {
		lower := strings.ToLower(f.Column)
		if lower == "" {
			return nil, newMappingError(t, f.Name, "empty column name")
		}
		if lower == strings.ToLower(pk) {
			if f.Kind != KindScalar || pkBinding.addr != nil {
				return nil, newMappingError(t, f.Column, "field %s collides with primary key column", f.Name)
			}
			pkBinding.Name = f.Name
			pkBinding.addr = f.addr
			continue
		}
		if existing, ok := desc.byColumn[lower]; ok {
			return nil, newMappingError(t, f.Column, "column bound twice by %s and %s", existing.Name, f.Name)
		}
		desc.byColumn[lower] = f
		desc.fields = append(desc.fields, f)
		desc.writes = append(desc.writes, f)
	}

	sort.SliceStable(desc.writes, func(i, j int) bool {
		return desc.writes[i].Column < desc.writes[j].Column
	})

	return desc, nil
}

// Field 按列名查找绑定，大小写不敏感
func (d *Descriptor) Field(column string) (*FieldBinding, bool) {
	f, ok := d.byColumn[strings.ToLower(column)]
	return f, ok
}

// PrimaryKeyField 主键绑定
func (d *Descriptor) PrimaryKeyField() *FieldBinding {
	return d.fields[0]
}

// Fields 按声明顺序返回所有绑定的副本，首个为主键绑定
func (d *Descriptor) Fields() []*FieldBinding {
	return append([]*FieldBinding(nil), d.fields...)
}

// Columns 可写列（不含主键），按字典序排列
func (d *Descriptor) Columns() []string {
	columns := make([]string, len(d.writes))
	for i, f := range d.writes {
		columns[i] = f.Column
	}
	return columns
}

// New 分配一个新的实体实例，返回指针
func (d *Descriptor) New() any {
	return reflect.New(d.Type).Interface()
}

// KeyOf 读取实体当前的主键
func (d *Descriptor) KeyOf(entity any) (model.Key, error) {
	ptr, err := d.pointer(entity)
	if err != nil {
		return model.None, err
	}
	return ptr.Interface().(model.Persistable).Key(), nil
}

// SetKey 为实体整体替换主键
func (d *Descriptor) SetKey(entity any, key model.Key) error {
	ptr, err := d.pointer(entity)
	if err != nil {
		return err
	}
	return d.PrimaryKeyField().setKey(ptr, key)
}

func (d *Descriptor) pointer(entity any) (reflect.Value, error) {
	ptr, err := entityPointer(entity)
	if err != nil {
		return reflect.Value{}, err
	}
	if ptr.Type().Elem() != d.Type {
		return reflect.Value{}, newMappingError(d.Type, "", "entity type %s does not match descriptor", ptr.Type())
	}
	return ptr, nil
}

func entityPointer(entity any) (reflect.Value, error) {
	ptr := reflect.ValueOf(entity)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() || ptr.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, errors.WithStack(&MappingError{Reason: "entity must be a non-nil pointer to struct, got " + typeName(entity)})
	}
	return ptr, nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

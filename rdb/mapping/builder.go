package mapping

import (
	"reflect"
)

// Builder 显式声明的映射，通过 Registry.Register 注册
type Builder interface {
	Type() reflect.Type
	build(r *Registry) (*Descriptor, error)
}

// RefOption 嵌套引用选项
type RefOption func(*fieldTag)

// WithPrefix 嵌套类型自身的列在结果行中带前缀 p
func WithPrefix(p string) RefOption {
	return func(ft *fieldTag) {
		ft.prefix = p
	}
}

type declaredField[E any] struct {
	tag  fieldTag
	addr func(*E) any
}

// TypeBuilder 以静态绑定表声明映射，替代结构体 tag
//
//	mapping.Define[PurchaseOrder]("purchase_order", "id").
//		Column("requester", func(o *PurchaseOrder) any { return &o.Requester }).
//		Reference("", func(o *PurchaseOrder) any { return &o.Note }).
//		RefValue("supplier_id", "supplier_name", func(o *PurchaseOrder) any { return &o.Supplier })
//
// 访问器必须返回字段地址。未声明的字段不参与映射
type TypeBuilder[E any] struct {
	table  string
	pk     string
	fields []declaredField[E]
}

// Define 开始声明类型 E 的映射
func Define[E any](table string, primaryKey string) *TypeBuilder[E] {
	return &TypeBuilder[E]{table: table, pk: primaryKey}
}

// Column 普通列，列名与主键列相同时作为主键镜像字段
func (b *TypeBuilder[E]) Column(column string, addr func(*E) any) *TypeBuilder[E] {
	b.fields = append(b.fields, declaredField[E]{tag: fieldTag{column: column}, addr: addr})
	return b
}

// Reference 嵌套引用，column 为空时使用被引用类型的主键列
func (b *TypeBuilder[E]) Reference(column string, addr func(*E) any, opts ...RefOption) *TypeBuilder[E] {
	ft := fieldTag{column: column, ref: true}
	for _, opt := range opts {
		opt(&ft)
	}
	b.fields = append(b.fields, declaredField[E]{tag: ft, addr: addr})
	return b
}

// RefValue 外键 + 展示列投影，label 可为空
func (b *TypeBuilder[E]) RefValue(column string, label string, addr func(*E) any) *TypeBuilder[E] {
	b.fields = append(b.fields, declaredField[E]{tag: fieldTag{column: column, ref: true, label: label}, addr: addr})
	return b
}

func (b *TypeBuilder[E]) Type() reflect.Type {
	return reflect.TypeOf((*E)(nil)).Elem()
}

func (b *TypeBuilder[E]) build(r *Registry) (*Descriptor, error) {
	t := b.Type()
	if t.Kind() != reflect.Struct {
		return nil, newMappingError(t, "", "mapped type must be a struct")
	}

	probe := reflect.New(t)
	fields := make([]*FieldBinding, 0, len(b.fields))
	for i, df := range b.fields {
		if df.addr == nil {
			return nil, newMappingError(t, df.tag.column, "nil accessor for binding #%d", i)
		}
		target := reflect.ValueOf(df.addr(probe.Interface().(*E)))
		if target.Kind() != reflect.Ptr || target.IsNil() {
			return nil, newMappingError(t, df.tag.column, "accessor must return a field address, got %s", typeNameOf(target))
		}

		name := fieldNameAt(probe, target.Pointer(), target.Type().Elem())
		if name == "" {
			name = df.tag.column
		}

		binding, err := r.bindField(t, name, target.Type().Elem(), df.tag)
		if err != nil {
			return nil, err
		}
		accessor := df.addr
		binding.addr = func(ptr reflect.Value) reflect.Value {
			return reflect.ValueOf(accessor(ptr.Interface().(*E))).Elem()
		}
		fields = append(fields, binding)
	}

	return newDescriptor(t, b.table, b.pk, fields)
}

// fieldNameAt 按地址反查访问器指向的字段名，仅用于错误信息
func fieldNameAt(probe reflect.Value, addr uintptr, ft reflect.Type) string {
	elem := probe.Elem()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		if field.Type() == ft && field.Addr().Pointer() == addr {
			return elem.Type().Field(i).Name
		}
	}
	return ""
}

func typeNameOf(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}

package mapping

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"github.com/viablespark/persist/log"
	"github.com/viablespark/persist/log/logger"
)

// Registry 映射元数据的解析器与缓存
// 每个类型只解析一次，并发解析时以第一个写入的描述符为准；解析失败（包括引用的类型解析失败）不缓存
type Registry struct {
	descriptors sync.Map // reflect.Type -> *Descriptor
	logger      logger.Logger
}

type RegistryOption func(*Registry)

func WithRegistryLogger(l logger.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// Resolve 返回类型 t 的描述符，t 可以是结构体或结构体指针
func (r *Registry) Resolve(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, newMappingError(nil, "", "nil type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if v, ok := r.descriptors.Load(t); ok {
		return v.(*Descriptor), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, newMappingError(t, "", "mapped type must be a struct")
	}

	desc, err := r.fromStruct(t)
	if err != nil {
		return nil, err
	}

	actual, loaded := r.descriptors.LoadOrStore(t, desc)
	if loaded {
		return actual.(*Descriptor), nil
	}
	if err := r.resolveReferences(desc); err != nil {
		return nil, err
	}
	r.logger.Debug("resolved mapping", "type", t.String(), "table", desc.Table, "primaryKey", desc.PrimaryKey, "columns", desc.Columns())
	return desc, nil
}

// resolveReferences 解析 desc 引用的所有类型，任一失败时移除 desc
// desc 已在缓存中，循环引用在回到 desc 时直接命中缓存
func (r *Registry) resolveReferences(desc *Descriptor) error {
	for _, f := range desc.fields {
		if f.Referenced == nil {
			continue
		}
		if _, err := r.Resolve(f.Referenced); err != nil {
			r.descriptors.CompareAndDelete(desc.Type, desc)
			return errors.WithMessagef(err, "resolve reference %s.%s", desc.Type, f.Name)
		}
	}
	return nil
}

// ResolveOf 返回类型 T 的描述符
func ResolveOf[T any](r *Registry) (*Descriptor, error) {
	return r.Resolve(reflect.TypeOf((*T)(nil)).Elem())
}

// Register 注册显式声明的映射，同一类型重复注册（包括已通过 tag 解析过）返回 MappingError
func (r *Registry) Register(b Builder) (*Descriptor, error) {
	t := b.Type()
	if _, ok := r.descriptors.Load(t); ok {
		return nil, newMappingError(t, "", "mapping already registered")
	}

	desc, err := b.build(r)
	if err != nil {
		return nil, err
	}

	if _, loaded := r.descriptors.LoadOrStore(t, desc); loaded {
		return nil, newMappingError(t, "", "mapping already registered")
	}
	if err := r.resolveReferences(desc); err != nil {
		return nil, err
	}
	r.logger.Debug("registered mapping", "type", t.String(), "table", desc.Table, "primaryKey", desc.PrimaryKey, "columns", desc.Columns())
	return desc, nil
}

// MustRegister 注册失败时 panic，用于包初始化
func (r *Registry) MustRegister(b Builder) *Descriptor {
	desc, err := r.Register(b)
	if err != nil {
		panic(err)
	}
	return desc
}

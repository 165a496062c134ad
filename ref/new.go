package ref

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Convertable 可以转换为构造函数 options 的配置数据
type Convertable interface {
	// ConvertTo object 为指向目标对象的指针
	ConvertTo(object any) error
}

// TypeOptions 按名字引用一个已注册的构造函数及其 options
type TypeOptions struct {
	Namespace string `cfg:"namespace"`
	Type      string `cfg:"type"`
	Options   any    `cfg:"options"`
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type constructor struct {
	fn           reflect.Value
	hasOptions   bool
	returnsError bool
}

func newConstructor(newFunc any) (*constructor, error) {
	fn := reflect.ValueOf(newFunc)
	if fn.Kind() != reflect.Func {
		return nil, errors.New("newFunc must be a function")
	}

	ft := fn.Type()
	if ft.NumIn() > 1 {
		return nil, errors.Errorf("newFunc must have 0 or 1 input parameters, got %d", ft.NumIn())
	}
	if ft.NumOut() != 1 && ft.NumOut() != 2 {
		return nil, errors.Errorf("newFunc must have 1 or 2 return values, got %d", ft.NumOut())
	}
	if ft.NumOut() == 2 && !ft.Out(1).Implements(errorType) {
		return nil, errors.New("second return value must be error type")
	}

	return &constructor{
		fn:           fn,
		hasOptions:   ft.NumIn() == 1,
		returnsError: ft.NumOut() == 2,
	}, nil
}

func (c *constructor) new(options any) (any, error) {
	var args []reflect.Value
	if c.hasOptions {
		arg, err := c.prepareOptions(options)
		if err != nil {
			return nil, err
		}
		args = []reflect.Value{arg}
	}

	results := c.fn.Call(args)
	if c.returnsError && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// prepareOptions Convertable 转换为参数类型，其余按原值传递
func (c *constructor) prepareOptions(options any) (reflect.Value, error) {
	paramType := c.fn.Type().In(0)

	if convertable, ok := options.(Convertable); ok {
		target := paramType
		if target.Kind() == reflect.Ptr {
			target = target.Elem()
		}
		v := reflect.New(target)
		if err := convertable.ConvertTo(v.Interface()); err != nil {
			return reflect.Value{}, errors.WithMessagef(err, "convert options to %s", paramType)
		}
		if paramType.Kind() == reflect.Ptr {
			return v, nil
		}
		return v.Elem(), nil
	}

	if options == nil {
		return reflect.Value{}, errors.New("constructor requires options but got nil")
	}
	v := reflect.ValueOf(options)
	if !v.Type().AssignableTo(paramType) {
		return reflect.Value{}, errors.Errorf("options type %s is not assignable to %s", v.Type(), paramType)
	}
	return v, nil
}

var constructors sync.Map

func key(namespace string, type_ string) string {
	return namespace + ":" + type_
}

// Register 注册构造函数，同一名字重复注册同一函数时忽略
func Register(namespace string, type_ string, newFunc any) error {
	c, err := newConstructor(newFunc)
	if err != nil {
		return errors.WithMessagef(err, "register %s:%s", namespace, type_)
	}
	if existing, loaded := constructors.LoadOrStore(key(namespace, type_), c); loaded {
		if existing.(*constructor).fn.Pointer() != c.fn.Pointer() {
			return errors.Errorf("constructor for %s:%s already registered with different function", namespace, type_)
		}
	}
	return nil
}

func MustRegister(namespace string, type_ string, newFunc any) {
	if err := Register(namespace, type_, newFunc); err != nil {
		panic(err)
	}
}

// RegisterT 以类型 T 的包路径和类型名注册
func RegisterT[T any](newFunc any) error {
	namespace, type_, err := typeKey[T]()
	if err != nil {
		return err
	}
	return Register(namespace, type_, newFunc)
}

func MustRegisterT[T any](newFunc any) {
	if err := RegisterT[T](newFunc); err != nil {
		panic(err)
	}
}

func New(namespace string, type_ string, options any) (any, error) {
	value, ok := constructors.Load(key(namespace, type_))
	if !ok {
		return nil, errors.Errorf("constructor not found for %s:%s", namespace, type_)
	}
	obj, err := value.(*constructor).new(options)
	if err != nil {
		return nil, errors.WithMessagef(err, "new %s:%s", namespace, type_)
	}
	return obj, nil
}

func NewT[T any](options any) (T, error) {
	var zero T
	namespace, type_, err := typeKey[T]()
	if err != nil {
		return zero, err
	}
	obj, err := New(namespace, type_, options)
	if err != nil {
		return zero, err
	}
	result, ok := obj.(T)
	if !ok {
		return zero, errors.Errorf("created object %T is not of type %T", obj, zero)
	}
	return result, nil
}

func typeKey[T any]() (string, string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return "", "", errors.Errorf("cannot determine package path or type name for type %s", t)
	}
	return t.PkgPath(), t.Name(), nil
}

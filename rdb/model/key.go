package model

import (
	"fmt"
	"math"
	"strconv"
)

// Key 实体的主键标识
// 零值即 None，表示实体尚未持久化；Of 创建的 Key 即使值为 nil 也是 Present
type Key struct {
	name    string
	value   any
	present bool
}

// None 未持久化实体的主键
var None = Key{}

// Of 创建一个已解析的主键
func Of(name string, value any) Key {
	return Key{name: name, value: value, present: true}
}

// Name 主键列名，None 时为空
func (k Key) Name() string {
	return k.name
}

// Value 主键值，None 时为 nil
func (k Key) Value() any {
	return k.value
}

func (k Key) IsPresent() bool {
	return k.present
}

func (k Key) IsNone() bool {
	return !k.present
}

// Int64 将主键值转换为 int64，值不是整数时返回 false
func (k Key) Int64() (int64, bool) {
	if !k.present {
		return 0, false
	}
	switch v := k.value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		return i, err == nil
	case []byte:
		i, err := strconv.ParseInt(string(v), 10, 64)
		return i, err == nil
	}
	return 0, false
}

// Equal 比较两个主键，None 只与 None 相等
// 整数值按数值比较，避免驱动返回 int64 与调用方传入 int 不一致
func (k Key) Equal(other Key) bool {
	if k.present != other.present {
		return false
	}
	if !k.present {
		return true
	}
	if k.name != other.name {
		return false
	}
	if a, ok := k.Int64(); ok {
		b, ok := other.Int64()
		return ok && a == b
	}
	return fmt.Sprint(k.value) == fmt.Sprint(other.value)
}

func (k Key) String() string {
	if !k.present {
		return "Key(None)"
	}
	return fmt.Sprintf("Key(%s=%v)", k.name, k.value)
}

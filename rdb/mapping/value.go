package mapping

import (
	"database/sql"
	"database/sql/driver"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
)

var timeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00", // SQLite
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339Nano,
}

// assign 将数据库返回值按字段声明类型写入 dst
func assign(dst reflect.Value, value any) error {
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(value)
	}

	if value == nil {
		switch dst.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
			dst.Set(reflect.Zero(dst.Type()))
		}
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), value); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	src := reflect.ValueOf(value)

	// 文本协议返回 []byte
	if b, ok := value.([]byte); ok {
		if dst.Type() == bytesType {
			dst.SetBytes(append([]byte(nil), b...))
			return nil
		}
		src = reflect.ValueOf(string(b))
	}

	if dst.Type() == timeType {
		return assignTime(dst, src)
	}

	switch dst.Kind() {
	case reflect.Bool:
		return assignBool(dst, src)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return assignInt(dst, src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return assignUint(dst, src)
	case reflect.Float32, reflect.Float64:
		return assignFloat(dst, src)
	case reflect.String:
		if src.Kind() == reflect.String {
			dst.SetString(src.String())
			return nil
		}
	}

	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}
	if src.Kind() == dst.Kind() && src.Type().ConvertibleTo(dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}

	return errors.Errorf("cannot convert %s to %s", src.Type(), dst.Type())
}

func assignTime(dst reflect.Value, src reflect.Value) error {
	switch v := src.Interface().(type) {
	case time.Time:
		dst.Set(reflect.ValueOf(v))
		return nil
	case string:
		var lastErr error
		for _, format := range timeFormats {
			t, err := time.Parse(format, v)
			if err == nil {
				dst.Set(reflect.ValueOf(t))
				return nil
			}
			lastErr = err
		}
		return errors.Wrapf(lastErr, "cannot parse time string %q", v)
	case int64:
		dst.Set(reflect.ValueOf(time.Unix(v, 0)))
		return nil
	}
	return errors.Errorf("cannot convert %s to time.Time", src.Type())
}

func assignBool(dst reflect.Value, src reflect.Value) error {
	switch src.Kind() {
	case reflect.Bool:
		dst.SetBool(src.Bool())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetBool(src.Int() != 0)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetBool(src.Uint() != 0)
		return nil
	case reflect.String:
		b, err := strconv.ParseBool(src.String())
		if err != nil {
			return errors.Wrapf(err, "cannot convert %q to bool", src.String())
		}
		dst.SetBool(b)
		return nil
	}
	return errors.Errorf("cannot convert %s to bool", src.Type())
}

func assignInt(dst reflect.Value, src reflect.Value) error {
	var n int64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = src.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if src.Uint() > math.MaxInt64 {
			return errors.Errorf("value %d overflows %s", src.Uint(), dst.Type())
		}
		n = int64(src.Uint())
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return errors.Errorf("value %v cannot be narrowed to %s", f, dst.Type())
		}
		n = int64(f)
	case reflect.Bool:
		if src.Bool() {
			n = 1
		}
	case reflect.String:
		v, err := strconv.ParseInt(src.String(), 10, 64)
		if err != nil {
			return errors.Wrapf(err, "cannot convert %q to %s", src.String(), dst.Type())
		}
		n = v
	default:
		return errors.Errorf("cannot convert %s to %s", src.Type(), dst.Type())
	}
	if dst.OverflowInt(n) {
		return errors.Errorf("value %d overflows %s", n, dst.Type())
	}
	dst.SetInt(n)
	return nil
}

func assignUint(dst reflect.Value, src reflect.Value) error {
	var n uint64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if src.Int() < 0 {
			return errors.Errorf("value %d overflows %s", src.Int(), dst.Type())
		}
		n = uint64(src.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = src.Uint()
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return errors.Errorf("value %v cannot be narrowed to %s", f, dst.Type())
		}
		n = uint64(f)
	case reflect.String:
		v, err := strconv.ParseUint(src.String(), 10, 64)
		if err != nil {
			return errors.Wrapf(err, "cannot convert %q to %s", src.String(), dst.Type())
		}
		n = v
	default:
		return errors.Errorf("cannot convert %s to %s", src.Type(), dst.Type())
	}
	if dst.OverflowUint(n) {
		return errors.Errorf("value %d overflows %s", n, dst.Type())
	}
	dst.SetUint(n)
	return nil
}

func assignFloat(dst reflect.Value, src reflect.Value) error {
	var f float64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(src.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(src.Uint())
	case reflect.Float32, reflect.Float64:
		f = src.Float()
	case reflect.String:
		v, err := strconv.ParseFloat(src.String(), 64)
		if err != nil {
			return errors.Wrapf(err, "cannot convert %q to %s", src.String(), dst.Type())
		}
		f = v
	default:
		return errors.Errorf("cannot convert %s to %s", src.Type(), dst.Type())
	}
	if dst.OverflowFloat(f) {
		return errors.Errorf("value %v overflows %s", f, dst.Type())
	}
	dst.SetFloat(f)
	return nil
}

// bindValue 取字段值作为 SQL 参数，指针解引用，driver.Valuer 原样传递
func bindValue(v reflect.Value) any {
	for v.IsValid() {
		if v.Type().Implements(valuerType) {
			if v.Kind() == reflect.Ptr && v.IsNil() {
				return nil
			}
			return v.Interface()
		}
		if v.Kind() != reflect.Ptr && v.Kind() != reflect.Interface {
			return v.Interface()
		}
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return nil
}

// normalize 将 []byte 统一为 string，用于主键与引用值
func normalize(value any) any {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}

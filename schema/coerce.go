package schema

import (
	"database/sql/driver"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// coerce converts a value handed back by a driver (or a caller) into the
// declared value type of a column. Integers are narrowed only when they fit.
func coerce[T any](v any) (T, bool) {
	var zero T
	if v == nil {
		return zero, false
	}
	if typed, ok := v.(T); ok {
		return typed, true
	}
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil || dv == nil || reflect.TypeOf(dv) == reflect.TypeOf(v) {
			return zero, false
		}
		// driver text such as pgtype.Time or pgtype.Numeric
		if s, ok := dv.(string); ok {
			dv = []byte(s)
		}
		return coerce[T](dv)
	}

	switch any(zero).(type) {
	case uuid.UUID:
		var id uuid.UUID
		var err error
		switch x := v.(type) {
		case [16]byte:
			id = uuid.UUID(x)
		case string:
			id, err = uuid.Parse(x)
		case []byte:
			if len(x) == 16 {
				id, err = uuid.FromBytes(x)
			} else {
				id, err = uuid.ParseBytes(x)
			}
		default:
			return zero, false
		}
		if err != nil {
			return zero, false
		}
		return any(id).(T), true
	case time.Time:
		var s string
		switch x := v.(type) {
		case string:
			s = x
		case []byte:
			s = string(x)
		default:
			return zero, false
		}
		if i := strings.Index(s, " m="); i >= 0 {
			s = s[:i]
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return any(ts).(T), true
			}
		}
		return zero, false
	case bool:
		switch x := v.(type) {
		case int64:
			return any(x != 0).(T), true
		case []byte:
			// BIT(1) arrives as a single raw byte
			if len(x) == 1 && x[0] <= 1 {
				return any(x[0] == 1).(T), true
			}
			b, err := strconv.ParseBool(string(x))
			if err != nil {
				return zero, false
			}
			return any(b).(T), true
		}
	}

	src := reflect.ValueOf(v)
	dst := reflect.New(reflect.TypeOf(&zero).Elem()).Elem()
	textual := false
	if src.Kind() == reflect.Slice && src.Type().Elem().Kind() == reflect.Uint8 {
		// text protocol results arrive as raw bytes
		src = reflect.ValueOf(string(src.Bytes()))
		textual = true
	}
	if src.Kind() == reflect.String && !textual && dst.Kind() != reflect.String {
		return zero, false
	}

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt64(src)
		if !ok || dst.OverflowInt(n) {
			return zero, false
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := toInt64(src)
		if !ok || n < 0 || dst.OverflowUint(uint64(n)) {
			return zero, false
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, ok := toFloat64(src)
		if !ok || dst.OverflowFloat(f) {
			return zero, false
		}
		dst.SetFloat(f)
	case reflect.String:
		if src.Kind() != reflect.String {
			return zero, false
		}
		dst.SetString(src.String())
	default:
		return zero, false
	}
	return dst.Interface().(T), true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	// time.Time.String, as stored by the pure Go SQLite driver
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

func toInt64(v reflect.Value) (int64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, false
		}
		return int64(f), true
	case reflect.String:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toFloat64(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.String:
		f, err := strconv.ParseFloat(v.String(), 64)
		return f, err == nil
	}
	return 0, false
}

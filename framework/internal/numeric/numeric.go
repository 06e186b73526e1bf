// Package numeric converts between Go number kinds without silent
// truncation or wrap-around.
package numeric

import (
	"math"
	"reflect"

	"github.com/pkg/errors"
)

// Is reports whether k is an integer or floating point kind.
func Is(k reflect.Kind) bool {
	return isSigned(k) || isUnsigned(k) || isFloat(k)
}

// Convert converts v to t, failing when the value has a fractional part
// t cannot hold or lies outside t's range.
func Convert(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !Is(v.Kind()) || !Is(t.Kind()) {
		return reflect.Value{}, errors.Errorf("cannot convert %s to %s", v.Type(), t)
	}
	if isFloat(v.Kind()) && !isFloat(t.Kind()) && v.Float() != math.Trunc(v.Float()) {
		return reflect.Value{}, errors.Errorf("cannot use %v as %s without losing precision", v.Interface(), t)
	}
	if !fits(v, t) {
		return reflect.Value{}, errors.Errorf("%v overflows %s", v.Interface(), t)
	}
	return v.Convert(t), nil
}

func fits(v reflect.Value, t reflect.Type) bool {
	z := reflect.Zero(t)
	switch k := v.Kind(); {
	case isFloat(k):
		f := v.Float()
		switch {
		case isFloat(t.Kind()):
			return !z.OverflowFloat(f)
		case isSigned(t.Kind()):
			return f >= math.MinInt64 && f < math.MaxInt64 && !z.OverflowInt(int64(f))
		default:
			return f >= 0 && f < math.MaxUint64 && !z.OverflowUint(uint64(f))
		}

	case isSigned(k):
		i := v.Int()
		switch {
		case isFloat(t.Kind()):
			return !z.OverflowFloat(float64(i))
		case isSigned(t.Kind()):
			return !z.OverflowInt(i)
		default:
			return i >= 0 && !z.OverflowUint(uint64(i))
		}

	default:
		u := v.Uint()
		switch {
		case isFloat(t.Kind()):
			return !z.OverflowFloat(float64(u))
		case isSigned(t.Kind()):
			return u <= math.MaxInt64 && !z.OverflowInt(int64(u))
		default:
			return !z.OverflowUint(u)
		}
	}
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }

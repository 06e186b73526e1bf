package bean

import (
	"fmt"
	"reflect"
	"time"

	"github.com/pkg/errors"

	"github.com/km-arc/go-beans/framework/aop"
	"github.com/km-arc/go-beans/framework/internal/numeric"
)

// TypeIntrospector is the per-type capability set the container needs to
// construct, inject and wrap a bean.
type TypeIntrospector interface {
	aop.MethodSet

	// New constructs an instance from resolved constructor arguments.
	New(args []any) (any, error)

	// Properties lists the injectable properties in declaration order.
	Properties() []string

	// Set assigns value to property on instance.
	Set(instance any, property string, value any) error
}

// TypeOption configures a reflect-backed introspector.
type TypeOption func(*reflectType)

// Named overrides the type identifier (default: package path + type name).
func Named(name string) TypeOption {
	return func(t *reflectType) { t.name = name }
}

// Mark attaches declarative markers to a method.
func Mark(method string, markers ...string) TypeOption {
	return func(t *reflectType) {
		t.markers[method] = append(t.markers[method], markers...)
	}
}

var (
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	durationType = reflect.TypeOf(time.Duration(0))
)

// reflectType implements TypeIntrospector with the reflect package.
type reflectType struct {
	name    string
	ctor    reflect.Value // invalid when the type has no constructor
	inst    reflect.Type  // type of the values New returns
	elem    reflect.Type  // struct behind inst, nil when inst is not *struct
	props   []string
	fields  map[string][]int
	markers map[string][]string
}

// TypeOf describes the type built by ctor, a func returning T or (T, error).
// It panics when ctor has another shape.
//
//	c.RegisterType(bean.TypeOf(NewUserService, bean.Named("UserService")))
func TypeOf(ctor any, opts ...TypeOption) TypeIntrospector {
	cv := reflect.ValueOf(ctor)
	ct := cv.Type()
	if ct.Kind() != reflect.Func {
		panic(fmt.Sprintf("bean: TypeOf: constructor must be a func, got %s", ct))
	}
	if ct.IsVariadic() {
		panic(fmt.Sprintf("bean: TypeOf: constructor %s must not be variadic", ct))
	}
	switch {
	case ct.NumOut() == 1:
	case ct.NumOut() == 2 && ct.Out(1) == errorType:
	default:
		panic(fmt.Sprintf("bean: TypeOf: constructor %s must return T or (T, error)", ct))
	}
	return newReflectType(cv, ct.Out(0), opts)
}

// StructOf describes struct type T built without a constructor: New returns
// a fresh *T and ignores its arguments.
func StructOf[T any](opts ...TypeOption) TypeIntrospector {
	st := reflect.TypeOf((*T)(nil)).Elem()
	if st.Kind() != reflect.Struct {
		panic(fmt.Sprintf("bean: StructOf: %s is not a struct", st))
	}
	return newReflectType(reflect.Value{}, reflect.PointerTo(st), opts)
}

func newReflectType(ctor reflect.Value, inst reflect.Type, opts []TypeOption) *reflectType {
	t := &reflectType{
		name:    typeKey(inst),
		ctor:    ctor,
		inst:    inst,
		fields:  make(map[string][]int),
		markers: make(map[string][]string),
	}
	if inst.Kind() == reflect.Ptr && inst.Elem().Kind() == reflect.Struct {
		t.elem = inst.Elem()
		for i := 0; i < t.elem.NumField(); i++ {
			f := t.elem.Field(i)
			if f.PkgPath != "" {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("bean"); ok {
				if tag == "-" {
					continue
				}
				if tag != "" {
					name = tag
				}
			}
			t.props = append(t.props, name)
			t.fields[name] = f.Index
		}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *reflectType) Name() string { return t.name }

func (t *reflectType) New(args []any) (any, error) {
	if !t.ctor.IsValid() {
		return reflect.New(t.elem).Interface(), nil
	}
	ct := t.ctor.Type()
	if len(args) != ct.NumIn() {
		return nil, errors.Errorf("constructor of %s wants %d arguments, got %d", t.name, ct.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := coerce(arg, ct.In(i))
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
		in[i] = v
	}
	out := t.ctor.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func (t *reflectType) Properties() []string { return t.props }

func (t *reflectType) Set(instance any, property string, value any) error {
	idx, ok := t.fields[property]
	if !ok {
		return errors.Errorf("%s has no property %s", t.name, property)
	}
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Type() != t.elem {
		return errors.Errorf("cannot set %s.%s on %T", t.name, property, instance)
	}
	field := rv.Elem().FieldByIndex(idx)
	v, err := coerce(value, field.Type())
	if err != nil {
		return errors.Wrapf(err, "property %s", property)
	}
	field.Set(v)
	return nil
}

func (t *reflectType) Methods() ([]string, error) {
	out := make([]string, 0, t.inst.NumMethod())
	for i := 0; i < t.inst.NumMethod(); i++ {
		out = append(out, t.inst.Method(i).Name)
	}
	return out, nil
}

func (t *reflectType) Markers(method string) []string { return t.markers[method] }

// instanceType serves one pre-built value.
type instanceType struct {
	name  string
	value any
}

// Instance describes a pre-built value; New always returns it.
func Instance(name string, value any) TypeIntrospector {
	return &instanceType{name: name, value: value}
}

func (t *instanceType) Name() string                        { return t.name }
func (t *instanceType) New([]any) (any, error)              { return t.value, nil }
func (t *instanceType) Properties() []string                { return nil }
func (t *instanceType) Set(_ any, p string, _ any) error    { return errors.Errorf("%s has no property %s", t.name, p) }
func (t *instanceType) Markers(string) []string             { return nil }
func (t *instanceType) Methods() ([]string, error) {
	rt := reflect.TypeOf(t.value)
	if rt == nil {
		return nil, errors.New("nil instance")
	}
	out := make([]string, 0, rt.NumMethod())
	for i := 0; i < rt.NumMethod(); i++ {
		out = append(out, rt.Method(i).Name)
	}
	return out, nil
}

// opaqueType wraps a plain factory that carries no type metadata.
type opaqueType struct {
	name    string
	factory func(args []any) (any, error)
}

// Opaque describes a type known only through a factory. Beans of this type
// cannot be wrapped unless the instance is aop.Aware.
func Opaque(name string, factory func(args []any) (any, error)) TypeIntrospector {
	return &opaqueType{name: name, factory: factory}
}

func (t *opaqueType) Name() string                     { return t.name }
func (t *opaqueType) New(args []any) (any, error)      { return t.factory(args) }
func (t *opaqueType) Properties() []string             { return nil }
func (t *opaqueType) Set(_ any, p string, _ any) error { return errors.Errorf("%s has no property %s", t.name, p) }
func (t *opaqueType) Markers(string) []string          { return nil }
func (t *opaqueType) Methods() ([]string, error) {
	return nil, errors.Errorf("no method metadata for %s", t.name)
}

// TypeKey returns the package-qualified type name of v, the default type
// identifier.
//
//	key := bean.TypeKey((*UserRepository)(nil))  // "example.com/app.UserRepository"
func TypeKey(v any) string {
	return typeKey(reflect.TypeOf(v))
}

func typeKey(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// coerce adapts a resolved value to a parameter or field type.
func coerce(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, errors.Errorf("cannot use nil as %s", t)
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if t == durationType && v.Kind() == reflect.String {
		d, err := time.ParseDuration(v.String())
		if err != nil {
			return reflect.Value{}, errors.WithStack(err)
		}
		return reflect.ValueOf(d), nil
	}

	switch {
	case t.Kind() == reflect.Slice && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array):
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			e, err := coerce(v.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "index %d", i)
			}
			out.Index(i).Set(e)
		}
		return out, nil

	case t.Kind() == reflect.Map && v.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k, err := coerce(iter.Key().Interface(), t.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			e, err := coerce(iter.Value().Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "key %v", iter.Key().Interface())
			}
			out.SetMapIndex(k, e)
		}
		return out, nil

	case numeric.Is(v.Kind()) && numeric.Is(t.Kind()):
		return numeric.Convert(v, t)

	case v.Kind() == t.Kind() && v.Type().ConvertibleTo(t):
		return v.Convert(t), nil
	}
	return reflect.Value{}, errors.Errorf("cannot use %T as %s", value, t)
}

package aop

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/km-arc/go-beans/framework/internal/numeric"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Handler dispatches method calls on a wrapped bean through the aspects the
// registry holds for it.
type Handler struct {
	bean     string
	typeName string
	target   any
	registry *Registry
}

// NewHandler creates a handler for target registered as beanName.
func NewHandler(beanName, typeName string, target any, registry *Registry) *Handler {
	return &Handler{bean: beanName, typeName: typeName, target: target, registry: registry}
}

// Bean returns the bean name the handler was created for.
func (h *Handler) Bean() string { return h.bean }

// Target returns the wrapped instance.
func (h *Handler) Target() any { return h.target }

// Matched reports whether any method of the bean is intercepted.
func (h *Handler) Matched() bool { return h.registry.Matched(h.bean) }

// Intercepts reports whether method has aspects bound.
func (h *Handler) Intercepts(method string) bool {
	return len(h.registry.Aspects(h.bean, method)) > 0
}

// Invoke calls method on the target. A trailing error result is returned
// as err and stripped from results.
func (h *Handler) Invoke(method string, args ...any) ([]any, error) {
	m := reflect.ValueOf(h.target).MethodByName(method)
	if !m.IsValid() {
		return nil, errors.Errorf("aop: %s has no method %s", h.typeName, method)
	}

	aspects := h.registry.Aspects(h.bean, method)
	if len(aspects) == 0 {
		return call(m, args)
	}

	jp := &JoinPoint{Bean: h.bean, Type: h.typeName, Method: method, Args: args, Target: h.target}
	for _, a := range aspects {
		if a.Before != nil {
			a.Before(jp)
		}
	}

	proceed := Proceed(func() ([]any, error) { return call(m, jp.Args) })
	for i := len(aspects) - 1; i >= 0; i-- {
		a, next := aspects[i], proceed
		if a.Around == nil {
			continue
		}
		proceed = func() ([]any, error) { return a.Around(jp, next) }
	}
	results, err := proceed()

	for _, a := range aspects {
		if err != nil {
			if a.AfterThrowing != nil {
				a.AfterThrowing(jp, err)
			}
		} else if a.AfterReturning != nil {
			a.AfterReturning(jp, results)
		}
	}
	for _, a := range aspects {
		if a.After != nil {
			a.After(jp)
		}
	}
	return results, err
}

func call(m reflect.Value, args []any) ([]any, error) {
	mt := m.Type()
	if mt.IsVariadic() {
		if len(args) < mt.NumIn()-1 {
			return nil, errors.Errorf("aop: want at least %d arguments, got %d", mt.NumIn()-1, len(args))
		}
	} else if len(args) != mt.NumIn() {
		return nil, errors.Errorf("aop: want %d arguments, got %d", mt.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if mt.IsVariadic() && i >= mt.NumIn()-1 {
			pt = mt.In(mt.NumIn() - 1).Elem()
		} else {
			pt = mt.In(i)
		}
		if arg == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		v := reflect.ValueOf(arg)
		switch {
		case v.Type().AssignableTo(pt):
		case numeric.Is(v.Kind()) && numeric.Is(pt.Kind()):
			cv, err := numeric.Convert(v, pt)
			if err != nil {
				return nil, errors.Wrapf(err, "aop: argument %d", i)
			}
			v = cv
		case v.Kind() == pt.Kind() && v.Type().ConvertibleTo(pt):
			v = v.Convert(pt)
		default:
			return nil, errors.Errorf("aop: argument %d: cannot use %T as %s", i, arg, pt)
		}
		in[i] = v
	}

	out := m.Call(in)
	var err error
	if n := len(out); n > 0 && mt.Out(n-1) == errorType {
		if e := out[n-1].Interface(); e != nil {
			err = e.(error)
		}
		out = out[:n-1]
	}
	results := make([]any, len(out))
	for i, o := range out {
		results[i] = o.Interface()
	}
	return results, err
}

// Call invokes method through h and returns its first result as T.
func Call[T any](h *Handler, method string, args ...any) (T, error) {
	var zero T
	results, err := h.Invoke(method, args...)
	if err != nil || len(results) == 0 {
		return zero, err
	}
	if results[0] == nil {
		return zero, nil
	}
	typed, ok := results[0].(T)
	if !ok {
		return zero, errors.Errorf("aop: %s returned %T, not %T", method, results[0], zero)
	}
	return typed, nil
}

// Proxy is the dynamic dispatcher handed out for intercepted beans that have
// no typed decorator.
type Proxy struct {
	h *Handler
}

func (p *Proxy) AspectAware() {}

// Invoke calls method through the interceptor chain.
func (p *Proxy) Invoke(method string, args ...any) ([]any, error) {
	return p.h.Invoke(method, args...)
}

// Target returns the wrapped instance.
func (p *Proxy) Target() any { return p.h.Target() }

// Handler returns the proxy's dispatcher.
func (p *Proxy) Handler() *Handler { return p.h }

// Decorated is embedded by typed decorators. It marks them Aware and gives
// them access to the handler.
type Decorated struct {
	Handler *Handler
}

func (d Decorated) AspectAware() {}

// Target returns the wrapped instance.
func (d Decorated) Target() any { return d.Handler.Target() }

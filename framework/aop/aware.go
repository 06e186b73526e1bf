package aop

import (
	"fmt"
)

// Aware is implemented by values that take part in interception themselves.
// The gateway returns them unchanged.
type Aware interface {
	AspectAware()
}

// MethodSet is the slice of type metadata the gateway needs.
type MethodSet interface {
	// Name is the type identifier the bean definition refers to.
	Name() string

	// Methods lists the exported methods of the instance type.
	Methods() ([]string, error)

	// Markers returns the declarative markers attached to a method.
	Markers(method string) []string
}

// ReflectionError reports that type metadata needed to build or wrap a bean
// is unavailable.
type ReflectionError struct {
	Type string
	Err  error
}

func (e *ReflectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("aop: type [%s] metadata unavailable", e.Type)
	}
	return fmt.Sprintf("aop: type [%s] metadata unavailable: %v", e.Type, e.Err)
}

func (e *ReflectionError) Unwrap() error { return e.Err }

// Unwrap returns the instance behind a proxy or decorator, or v itself.
func Unwrap(v any) any {
	if t, ok := v.(interface{ Target() any }); ok {
		return t.Target()
	}
	return v
}

func unique(markers []string) []string {
	if len(markers) < 2 {
		return markers
	}
	seen := make(map[string]bool, len(markers))
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

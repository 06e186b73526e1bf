package aop

import (
	"path"
	"sort"
	"sync"
)

// Policy decides which aspects apply to a bean method and records the
// decision. The gateway ignores any outcome besides the side effect.
type Policy interface {
	Match(beanName, typeName, method string, markers []string)
}

// JoinPoint describes one intercepted call.
type JoinPoint struct {
	Bean   string
	Type   string
	Method string
	Args   []any
	Target any
}

// Proceed continues the interceptor chain.
type Proceed func() ([]any, error)

// Pointcut selects bean methods. Every non-empty criterion must hold; a
// pointcut with no criteria selects nothing.
type Pointcut struct {
	Beans   []string // glob patterns on the bean name
	Methods []string // glob patterns on the method name
	Markers []string // at least one must be declared on the method
}

func (p Pointcut) empty() bool {
	return len(p.Beans) == 0 && len(p.Methods) == 0 && len(p.Markers) == 0
}

// Matches reports whether the pointcut selects beanName.method.
func (p Pointcut) Matches(beanName, method string, markers []string) bool {
	if p.empty() {
		return false
	}
	if len(p.Beans) > 0 && !anyGlob(p.Beans, beanName) {
		return false
	}
	if len(p.Methods) > 0 && !anyGlob(p.Methods, method) {
		return false
	}
	if len(p.Markers) > 0 && !intersects(p.Markers, markers) {
		return false
	}
	return true
}

// Aspect is a cross-cutting behaviour bound to the methods its pointcut
// selects. Lower Order runs outermost.
type Aspect struct {
	Name     string
	Order    int
	Pointcut Pointcut

	Before         func(jp *JoinPoint)
	Around         func(jp *JoinPoint, proceed Proceed) ([]any, error)
	AfterReturning func(jp *JoinPoint, results []any)
	AfterThrowing  func(jp *JoinPoint, err error)
	After          func(jp *JoinPoint)
}

// Aop is the default Policy: an ordered list of aspects matched by pointcut.
type Aop struct {
	mu       sync.RWMutex
	registry *Registry
	aspects  []*Aspect
}

// New creates a policy that records its matches in registry.
func New(registry *Registry) *Aop {
	return &Aop{registry: registry}
}

// Register adds aspects, keeping the list sorted by Order.
func (a *Aop) Register(aspects ...*Aspect) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.aspects = append(a.aspects, aspects...)
	sort.SliceStable(a.aspects, func(i, j int) bool {
		return a.aspects[i].Order < a.aspects[j].Order
	})
}

// Aspects returns the registered aspects in order.
func (a *Aop) Aspects() []*Aspect {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*Aspect(nil), a.aspects...)
}

// Match records markers for typeName.method and binds every aspect whose
// pointcut selects beanName.method.
func (a *Aop) Match(beanName, typeName, method string, markers []string) {
	a.registry.SetMarkers(typeName, method, markers)

	a.mu.RLock()
	var matched []*Aspect
	for _, as := range a.aspects {
		if as.Pointcut.Matches(beanName, method, markers) {
			matched = append(matched, as)
		}
	}
	a.mu.RUnlock()

	a.registry.Bind(beanName, method, matched)
}

func anyGlob(patterns []string, s string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, s); err == nil && ok {
			return true
		}
	}
	return false
}

func intersects(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

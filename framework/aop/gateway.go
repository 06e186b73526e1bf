package aop

import (
	"reflect"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Gateway decides, per constructed bean, whether it leaves the container
// wrapped.
type Gateway struct {
	registry *Registry
	policy   Policy
	factory  ProxyFactory
	logger   log.FieldLogger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithRegistry shares an existing registry.
func WithRegistry(r *Registry) GatewayOption {
	return func(g *Gateway) { g.registry = r }
}

// WithPolicy replaces the default *Aop policy.
func WithPolicy(p Policy) GatewayOption {
	return func(g *Gateway) { g.policy = p }
}

// WithProxyFactory replaces the default *DecoratorFactory.
func WithProxyFactory(f ProxyFactory) GatewayOption {
	return func(g *Gateway) { g.factory = f }
}

// WithLogger sets the gateway logger.
func WithLogger(l log.FieldLogger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// NewGateway creates a gateway. Unset collaborators default to a fresh
// Registry, an *Aop policy on that registry and a *DecoratorFactory.
func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{}
	for _, opt := range opts {
		opt(g)
	}
	if g.registry == nil {
		g.registry = NewRegistry()
	}
	if g.policy == nil {
		g.policy = New(g.registry)
	}
	if g.factory == nil {
		g.factory = NewDecoratorFactory()
	}
	if g.logger == nil {
		g.logger = log.StandardLogger()
	}
	return g
}

// Registry returns the match registry.
func (g *Gateway) Registry() *Registry { return g.registry }

// Policy returns the aspect policy.
func (g *Gateway) Policy() Policy { return g.policy }

// Aop returns the policy when it is the default *Aop, else nil.
func (g *Gateway) Aop() *Aop {
	a, _ := g.policy.(*Aop)
	return a
}

// Factory returns the proxy factory.
func (g *Gateway) Factory() ProxyFactory { return g.factory }

// Reset forgets every recorded match.
func (g *Gateway) Reset() { g.registry.Reset() }

// Wrap runs a freshly built bean through the policy and the proxy factory.
// Missing type metadata is fatal: the bean is never returned unwrapped.
func (g *Gateway) Wrap(beanName string, t MethodSet, instance any) (any, error) {
	if _, ok := instance.(Aware); ok {
		return instance, nil
	}
	if t == nil {
		return nil, &ReflectionError{Type: "<nil>", Err: errors.New("no type metadata")}
	}
	if isNil(instance) {
		return nil, &ReflectionError{Type: t.Name(), Err: errors.Errorf("bean [%s] is nil", beanName)}
	}

	methods, err := t.Methods()
	if err != nil {
		return nil, &ReflectionError{Type: t.Name(), Err: err}
	}
	for _, m := range methods {
		g.policy.Match(beanName, t.Name(), m, unique(t.Markers(m)))
	}

	h := NewHandler(beanName, t.Name(), instance, g.registry)
	wrapped := g.factory.Wrap(t.Name(), instance, h)
	if _, ok := wrapped.(Aware); ok {
		g.logger.WithFields(log.Fields{"bean": beanName, "type": t.Name()}).Debug("aop: bean proxied")
	}
	return wrapped, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

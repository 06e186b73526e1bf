package aop

import "sync"

// ProxyFactory produces what the caller receives for a matched bean.
type ProxyFactory interface {
	Wrap(typeName string, instance any, h *Handler) any
}

// Decorator builds a typed wrapper around instance that routes calls
// through h.
type Decorator func(instance any, h *Handler) any

// DecoratorFactory is the default ProxyFactory.
type DecoratorFactory struct {
	mu         sync.RWMutex
	decorators map[string]Decorator
}

// NewDecoratorFactory creates a factory with no decorators.
func NewDecoratorFactory() *DecoratorFactory {
	return &DecoratorFactory{decorators: make(map[string]Decorator)}
}

// Register sets the decorator used for beans of typeName.
func (f *DecoratorFactory) Register(typeName string, d Decorator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decorators[typeName] = d
}

// Wrap prefers a registered decorator. Without one, a bean with nothing
// intercepted is returned as-is and anything else gets a *Proxy.
func (f *DecoratorFactory) Wrap(typeName string, instance any, h *Handler) any {
	f.mu.RLock()
	d, ok := f.decorators[typeName]
	f.mu.RUnlock()
	if ok {
		return d(instance, h)
	}
	if !h.Matched() {
		return instance
	}
	return &Proxy{h: h}
}

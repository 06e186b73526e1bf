package aop

import "sync"

// Registry records what the gateway matched: markers per type method and
// the aspects bound to each bean method. Proxies read it at call time.
type Registry struct {
	mu sync.RWMutex

	// type → method → markers
	markers map[string]map[string][]string

	// bean → method → aspects, in policy order
	aspects map[string]map[string][]*Aspect
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		markers: make(map[string]map[string][]string),
		aspects: make(map[string]map[string][]*Aspect),
	}
}

// SetMarkers stores the markers declared on typeName.method.
func (r *Registry) SetMarkers(typeName, method string, markers []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markers[typeName]
	if !ok {
		m = make(map[string][]string)
		r.markers[typeName] = m
	}
	m[method] = append([]string(nil), markers...)
}

// Markers returns the markers recorded for typeName.method.
func (r *Registry) Markers(typeName, method string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.markers[typeName][method]
}

// Bind replaces the aspects bound to beanName.method. An empty list unbinds.
func (r *Registry) Bind(beanName, method string, aspects []*Aspect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(aspects) == 0 {
		if m, ok := r.aspects[beanName]; ok {
			delete(m, method)
			if len(m) == 0 {
				delete(r.aspects, beanName)
			}
		}
		return
	}
	m, ok := r.aspects[beanName]
	if !ok {
		m = make(map[string][]*Aspect)
		r.aspects[beanName] = m
	}
	m[method] = aspects
}

// Aspects returns the aspects bound to beanName.method.
func (r *Registry) Aspects(beanName, method string) []*Aspect {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aspects[beanName][method]
}

// Matched reports whether any method of beanName has aspects bound.
func (r *Registry) Matched(beanName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.aspects[beanName]) > 0
}

// Reset forgets every match.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = make(map[string]map[string][]string)
	r.aspects = make(map[string]map[string][]*Aspect)
}

package bean

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"

	"github.com/km-arc/go-beans/framework/aop"
	"github.com/km-arc/go-beans/framework/config"
)

// SelfName is the bean under which every container registers itself.
const SelfName = "container"

// DefaultInitMethod is the lifecycle hook invoked after injection.
const DefaultInitMethod = "Init"

// ── State ─────────────────────────────────────────────────────────────────────

// state is one generation of the object graph. Reload replaces it whole.
type state struct {
	// name → definition, with order holding first-insertion order
	definitions map[string]*Definition
	order       []string

	// name → finished singleton (possibly wrapped)
	singletons map[string]any

	// type identifier → introspector
	types map[string]TypeIntrospector

	properties *config.Properties
	generation string
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container owns merged definitions and the singleton cache and resolves
// beans on demand.
//
// A top-level Get holds the container lock for the whole recursive
// resolution, so constructors and init hooks must not call back into the
// same container.
type Container struct {
	mu sync.RWMutex
	st *state

	// types registered with RegisterType survive reloads
	registered map[string]TypeIntrospector

	// registries loaded so far, replayed by a bare Reload(); loadMu
	// serializes every change to them
	loadMu  sync.Mutex
	sources []Registry

	gateway    *aop.Gateway
	logger     log.FieldLogger
	stats      *stats
	initMethod string
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the container logger.
func WithLogger(l log.FieldLogger) Option {
	return func(c *Container) { c.logger = l }
}

// WithMetrics records container instruments in r.
func WithMetrics(r metrics.Registry) Option {
	return func(c *Container) { c.stats = newStats(r) }
}

// WithGateway replaces the default interception gateway.
func WithGateway(g *aop.Gateway) Option {
	return func(c *Container) { c.gateway = g }
}

// WithInitMethod renames the lifecycle hook. An empty name disables it.
func WithInitMethod(name string) Option {
	return func(c *Container) { c.initMethod = name }
}

// New creates an empty container holding only itself.
func New(opts ...Option) *Container {
	c := &Container{
		registered: make(map[string]TypeIntrospector),
		initMethod: DefaultInitMethod,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.StandardLogger()
	}
	if c.stats == nil {
		c.stats = newStats(nil)
	}
	if c.gateway == nil {
		c.gateway = aop.NewGateway(aop.WithLogger(c.logger))
	}
	c.st = c.newState()
	return c
}

// newState seeds a generation with the container itself and the types
// registered with RegisterType.
func (c *Container) newState() *state {
	st := &state{
		definitions: make(map[string]*Definition),
		singletons:  make(map[string]any),
		types:       make(map[string]TypeIntrospector, len(c.registered)+1),
		generation:  uuid.New().String(),
	}
	for name, t := range c.registered {
		st.types[name] = t
	}
	self := Instance(TypeKey(c), c)
	st.types[self.Name()] = self
	st.definitions[SelfName] = Define(SelfName, self.Name())
	st.order = append(st.order, SelfName)
	st.singletons[SelfName] = c
	return st
}

// ── Definitions ───────────────────────────────────────────────────────────────

// AddDefinitions merges b into the current generation. The most recently
// merged definition of a name wins; a cached singleton of a redefined name
// is dropped so it is rebuilt from the new recipe.
//
// The first merge must carry a property source, otherwise a
// *ConfigurationError is returned and nothing is merged. A merged bundle is
// replayed by a bare Reload.
func (c *Container) AddDefinitions(b *Bundle) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.merge(c.st, b); err != nil {
		return err
	}
	if b != nil {
		c.sources = append(c.sources, b.snapshot())
	}
	return nil
}

// merge must hold mu.Lock (or own st exclusively).
func (c *Container) merge(st *state, b *Bundle) error {
	if b == nil {
		b = &Bundle{}
	}
	if st.properties == nil && b.Properties == nil {
		return &ConfigurationError{Section: "properties"}
	}
	for _, d := range b.Definitions {
		if d == nil {
			return &ConfigurationError{Section: "beans", Reason: "nil definition"}
		}
		if err := d.validate(); err != nil {
			return err
		}
	}

	st.properties = st.properties.Merge(b.Properties)
	for _, t := range b.Types {
		st.types[t.Name()] = t
	}
	for _, d := range b.Definitions {
		if _, exists := st.definitions[d.Name]; !exists {
			st.order = append(st.order, d.Name)
		}
		delete(st.singletons, d.Name)
		st.definitions[d.Name] = d
		if d.IsAlias() && d.hasInjections() {
			c.logger.WithFields(log.Fields{"bean": d.Name, "alias": d.Alias}).
				Warn("bean: injections on an alias definition are ignored")
		}
	}
	c.logger.WithFields(log.Fields{
		"definitions": len(b.Definitions),
		"types":       len(b.Types),
		"generation":  st.generation,
	}).Info("bean: definitions merged")
	return nil
}

// Load produces a bundle from every registry, then merges them in order.
// Producing happens before the container is locked.
func (c *Container) Load(rs ...Registry) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	bundles, err := produce(rs)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range bundles {
		if err := c.merge(c.st, b); err != nil {
			return err
		}
	}
	c.sources = append(c.sources, rs...)
	return nil
}

func produce(rs []Registry) ([]*Bundle, error) {
	bundles := make([]*Bundle, 0, len(rs))
	for i, r := range rs {
		b, err := r.Produce()
		if err != nil {
			return nil, errors.Wrapf(err, "bean: registry %d", i)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// RegisterType adds t to the type table of this and every later
// generation.
func (c *Container) RegisterType(t TypeIntrospector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered[t.Name()] = t
	c.st.types[t.Name()] = t
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Has reports whether name is defined.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.st.definitions[name]
	return ok
}

// Get resolves name into a finished bean.
//
//	svc, err := c.Get("userService")
func (c *Container) Get(name string) (any, error) {
	defer c.stats.resolve.UpdateSince(time.Now())
	c.stats.get.Inc(1)

	c.mu.RLock()
	if inst, ok := c.st.singletons[name]; ok {
		c.mu.RUnlock()
		c.stats.hit.Inc(1)
		return inst, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	r := &resolution{c: c, st: c.st}
	inst, err := r.get(name)
	if err != nil {
		c.stats.errors.Inc(1)
		c.logger.WithFields(log.Fields{"bean": name, "error": err}).Debug("bean: resolution failed")
		return nil, err
	}
	return inst, nil
}

// MustGet is like Get but panics on error.
func (c *Container) MustGet(name string) any {
	inst, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return inst
}

// Resolve gets name and asserts the result to T.
//
//	users, err := bean.Resolve[*UserService](c, "users")
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	inst, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, errors.Errorf("bean: Resolve[%T]: [%s] resolved to %T", zero, name, inst)
	}
	return typed, nil
}

// InitEagerBeans resolves every definition in insertion order when the
// property source sets autoInitBean, otherwise it does nothing. The first
// failure stops the walk.
func (c *Container) InitEagerBeans() error {
	c.mu.RLock()
	props := c.st.properties
	names := append([]string(nil), c.st.order...)
	c.mu.RUnlock()

	if props == nil || !props.AutoInitBean {
		return nil
	}
	for _, name := range names {
		if _, err := c.Get(name); err != nil {
			return err
		}
	}
	c.logger.WithField("beans", len(names)).Info("bean: eager beans initialised")
	return nil
}

// Reload replaces the whole object graph. Definitions are produced from rs,
// or from the registries loaded so far when rs is empty, before anything
// changes; if that fails the container is left untouched. The swap itself
// happens under the write lock, so no Get observes a mix of generations.
// Load, AddDefinitions and Reload never interleave.
func (c *Container) Reload(rs ...Registry) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if len(rs) == 0 {
		c.mu.RLock()
		rs = append([]Registry(nil), c.sources...)
		c.mu.RUnlock()
	}
	bundles, err := produce(rs)
	if err != nil {
		return err
	}

	c.mu.RLock()
	next := c.newState()
	c.mu.RUnlock()
	for _, b := range bundles {
		if err := c.merge(next, b); err != nil {
			return err
		}
	}

	c.mu.Lock()
	prev := c.st.generation
	c.st = next
	c.sources = rs
	c.gateway.Reset()
	c.mu.Unlock()

	c.logger.WithFields(log.Fields{
		"from": prev,
		"to":   next.generation,
	}).Info("bean: container reloaded")
	return nil
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Names returns the defined bean names in insertion order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.st.order...)
}

// Definition returns the current definition of name.
func (c *Container) Definition(name string) (*Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.st.definitions[name]
	return d, ok
}

// Resolved reports whether name has a cached singleton.
func (c *Container) Resolved(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.st.singletons[name]
	return ok
}

// Generation identifies the current object graph; it changes on Reload.
func (c *Container) Generation() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.generation
}

// Properties returns the merged property source, nil before the first merge.
func (c *Container) Properties() *config.Properties {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.properties
}

// Types returns the known type identifiers, sorted.
func (c *Container) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.st.types))
	for name := range c.st.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Metrics returns the registry holding the container instruments.
func (c *Container) Metrics() metrics.Registry { return c.stats.registry }

// Gateway returns the interception gateway.
func (c *Container) Gateway() *aop.Gateway { return c.gateway }

// Logger returns the container logger.
func (c *Container) Logger() log.FieldLogger { return c.logger }

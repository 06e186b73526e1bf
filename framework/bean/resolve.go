package bean

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/km-arc/go-beans/framework/aop"
)

// resolution is one top-level Get. chain holds the names currently being
// built, outermost first; it is the cycle guard.
type resolution struct {
	c     *Container
	st    *state
	chain []string
}

func (r *resolution) get(name string) (any, error) {
	if inst, ok := r.st.singletons[name]; ok {
		r.c.stats.hit.Inc(1)
		return inst, nil
	}
	def, ok := r.st.definitions[name]
	if !ok {
		return nil, &UnknownBeanError{Name: name}
	}

	for i, n := range r.chain {
		if n == name {
			chain := append(append([]string(nil), r.chain[i:]...), name)
			return nil, &CyclicDependencyError{Chain: chain}
		}
	}
	r.chain = append(r.chain, name)
	defer func() { r.chain = r.chain[:len(r.chain)-1] }()

	// Aliases are never cached under their own name.
	if def.IsAlias() {
		return r.get(def.Alias)
	}
	return r.build(def)
}

func (r *resolution) build(def *Definition) (any, error) {
	t, ok := r.st.types[def.Type]
	if !ok {
		return nil, &ReflectionError{
			Type: def.Type,
			Err:  errors.Errorf("no type registered for bean [%s]", def.Name),
		}
	}

	// Absent arguments are passed as nil.
	args := make([]any, len(def.Args))
	var missing []string
	for i, v := range def.Args {
		resolved, err := r.value(v)
		if err != nil {
			return nil, err
		}
		if a, ok := resolved.(absent); ok {
			missing = append(missing, fmt.Sprintf("argument %d %s", i, a))
			resolved = nil
		}
		args[i] = resolved
	}

	instance, err := t.New(args)
	if err != nil {
		if len(missing) > 0 {
			return nil, errors.Wrapf(err, "bean: construct [%s] of type %s: no value for %s",
				def.Name, def.Type, strings.Join(missing, ", "))
		}
		return nil, errors.Wrapf(err, "bean: construct [%s] of type %s", def.Name, def.Type)
	}
	if err := r.inject(def, t, instance); err != nil {
		return nil, err
	}
	if err := r.c.initialize(def.Name, instance); err != nil {
		return nil, err
	}

	wrapped, err := r.c.gateway.Wrap(def.Name, t, instance)
	if err != nil {
		return nil, err
	}
	_, wasAware := instance.(aop.Aware)
	if _, isAware := wrapped.(aop.Aware); isAware && !wasAware {
		r.c.stats.proxied.Inc(1)
	}

	if def.Scope == Singleton {
		r.st.singletons[def.Name] = wrapped
	}
	r.c.stats.constructed.Inc(1)
	r.c.logger.WithFields(log.Fields{
		"bean":  def.Name,
		"type":  def.Type,
		"scope": def.Scope.String(),
	}).Debug("bean: constructed")
	return wrapped, nil
}

// inject assigns every declared property the definition provides. Injections
// naming a property the type does not declare are skipped.
func (r *resolution) inject(def *Definition, t TypeIntrospector, instance any) error {
	declared := make(map[string]bool)
	for _, p := range t.Properties() {
		declared[p] = true
		v, ok := def.Properties[p]
		if !ok {
			continue
		}
		resolved, err := r.value(v)
		if err != nil {
			return err
		}
		if isAbsent(resolved) {
			continue
		}
		if err := t.Set(instance, p, resolved); err != nil {
			return errors.Wrapf(err, "bean: inject [%s]", def.Name)
		}
	}

	for _, p := range sortedKeys(def.Properties) {
		if !declared[p] {
			r.c.logger.WithFields(log.Fields{"bean": def.Name, "property": p}).
				Debug("bean: skipping undeclared property")
		}
	}
	return nil
}

// value resolves one injection value. Lists and maps are always rebuilt
// element by element, however deep the references sit. Absent entries are
// dropped from maps and become nil in lists.
func (r *resolution) value(v Value) (any, error) {
	switch v.kind {
	case KindRef:
		return r.get(v.ref)
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			resolved, err := r.value(e)
			if err != nil {
				return nil, err
			}
			if isAbsent(resolved) {
				resolved = nil
			}
			out[i] = resolved
		}
		return out, nil
	case KindMap:
		out := make(map[string]any, len(v.entries))
		for _, k := range sortedKeys(v.entries) {
			resolved, err := r.value(v.entries[k])
			if err != nil {
				return nil, err
			}
			if isAbsent(resolved) {
				continue
			}
			out[k] = resolved
		}
		return out, nil
	}
	return v.literal, nil
}

// initialize calls the zero-argument lifecycle hook when the instance has
// one. A trailing error result fails the resolution.
func (c *Container) initialize(name string, instance any) error {
	if c.initMethod == "" || instance == nil {
		return nil
	}
	rv := reflect.ValueOf(instance)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil
	}
	m := rv.MethodByName(c.initMethod)
	if !m.IsValid() || m.Type().NumIn() != 0 {
		return nil
	}
	out := m.Call(nil)
	if len(out) == 0 {
		return nil
	}
	if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
		return errors.Wrapf(err, "bean: %s [%s]", c.initMethod, name)
	}
	return nil
}

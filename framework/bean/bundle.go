package bean

import (
	"github.com/km-arc/go-beans/framework/config"
)

// Bundle is what a Registry produces: definitions in merge order, the type
// introspectors they need and, for the first merge, the property source.
type Bundle struct {
	Properties  *config.Properties
	Definitions []*Definition
	Types       []TypeIntrospector
}

// Registry produces bundles of definitions. Producing may perform I/O; the
// container always calls it outside its lock.
type Registry interface {
	Produce() (*Bundle, error)
}

// snapshot freezes b into a Registry that replays it.
func (b *Bundle) snapshot() Registry {
	frozen := &Bundle{
		Properties:  b.Properties,
		Definitions: append([]*Definition(nil), b.Definitions...),
		Types:       append([]TypeIntrospector(nil), b.Types...),
	}
	return RegistryFunc(func() (*Bundle, error) { return frozen, nil })
}

// RegistryFunc adapts a function to Registry.
type RegistryFunc func() (*Bundle, error)

func (f RegistryFunc) Produce() (*Bundle, error) { return f() }

// ── Static ────────────────────────────────────────────────────────────────────

// Static builds a bundle in code.
//
//	s := bean.NewStatic().
//	    Properties(cfg.Properties()).
//	    Type(bean.TypeOf(NewUserService, bean.Named("UserService"))).
//	    Define(bean.Define("users", "UserService", bean.Ref("db")))
type Static struct {
	props *config.Properties
	defs  []*Definition
	types []TypeIntrospector
}

// NewStatic creates an empty builder.
func NewStatic() *Static { return &Static{} }

// Properties layers p over the properties set so far.
func (s *Static) Properties(p *config.Properties) *Static {
	s.props = s.props.Merge(p)
	return s
}

// Type adds type introspectors.
func (s *Static) Type(ts ...TypeIntrospector) *Static {
	s.types = append(s.types, ts...)
	return s
}

// Define adds definitions. A later definition with the same name wins.
func (s *Static) Define(defs ...*Definition) *Static {
	s.defs = append(s.defs, defs...)
	return s
}

// Instance defines a singleton bean that always resolves to value.
func (s *Static) Instance(name string, value any) *Static {
	typeName := "instance:" + name
	s.types = append(s.types, Instance(typeName, value))
	s.defs = append(s.defs, Define(name, typeName))
	return s
}

// Produce returns a snapshot of the builder.
func (s *Static) Produce() (*Bundle, error) {
	return &Bundle{
		Properties:  s.props,
		Definitions: append([]*Definition(nil), s.defs...),
		Types:       append([]TypeIntrospector(nil), s.types...),
	}, nil
}

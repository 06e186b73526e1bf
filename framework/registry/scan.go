package registry

import (
	"reflect"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/km-arc/go-beans/framework/bean"
	"github.com/km-arc/go-beans/framework/config"
)

// Declaration is a component declared in code, the Go stand-in for an
// annotated class: it carries its own type metadata and definition.
type Declaration struct {
	Package    string
	Type       bean.TypeIntrospector
	Definition *bean.Definition
}

// component collects options before the declaration is built.
type component struct {
	scope    bean.Scope
	args     []bean.Value
	props    map[string]bean.Value
	typeName string
	typeOpts []bean.TypeOption
}

// ComponentOption configures a declared component.
type ComponentOption func(*component)

// Prototype declares the component Prototype-scoped.
func Prototype() ComponentOption {
	return func(c *component) { c.scope = bean.Prototype }
}

// Args sets the constructor arguments.
func Args(vs ...bean.Value) ComponentOption {
	return func(c *component) { c.args = append(c.args, vs...) }
}

// Inject sets a property injection.
func Inject(property string, v bean.Value) ComponentOption {
	return func(c *component) {
		if c.props == nil {
			c.props = make(map[string]bean.Value)
		}
		c.props[property] = v
	}
}

// Mark attaches markers to a method of the component's type.
func Mark(method string, markers ...string) ComponentOption {
	return func(c *component) { c.typeOpts = append(c.typeOpts, bean.Mark(method, markers...)) }
}

// TypeName overrides the type identifier.
func TypeName(name string) ComponentOption {
	return func(c *component) { c.typeName = name }
}

func (c *component) options() []bean.TypeOption {
	if c.typeName == "" {
		return c.typeOpts
	}
	return append(append([]bean.TypeOption(nil), c.typeOpts...), bean.Named(c.typeName))
}

// Component declares struct type T as bean name. T has no constructor;
// its exported fields are injectable.
//
//	registry.Component[Mailer]("mailer", registry.Inject("Host", bean.Literal("smtp")))
func Component[T any](name string, opts ...ComponentOption) Declaration {
	c := &component{}
	for _, opt := range opts {
		opt(c)
	}
	t := bean.StructOf[T](c.options()...)
	return declare(name, reflect.TypeOf((*T)(nil)).Elem(), t, c)
}

// ComponentFunc declares the type built by ctor as bean name.
//
//	registry.ComponentFunc("users", NewUserService, registry.Args(bean.Ref("db")))
func ComponentFunc(name string, ctor any, opts ...ComponentOption) Declaration {
	c := &component{}
	for _, opt := range opts {
		opt(c)
	}
	t := bean.TypeOf(ctor, c.options()...)
	return declare(name, reflect.TypeOf(ctor).Out(0), t, c)
}

func declare(name string, rt reflect.Type, t bean.TypeIntrospector, c *component) Declaration {
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	def := bean.Define(name, t.Name(), c.args...).WithScope(c.scope)
	for p, v := range c.props {
		def.Set(p, v)
	}
	return Declaration{Package: rt.PkgPath(), Type: t, Definition: def}
}

// ── Scanner ──────────────────────────────────────────────────────────────────

// Scanner emits the declarations whose package falls under a scan target.
// Targets are the property source's beanScan entries plus Include'd
// prefixes.
type Scanner struct {
	props   *config.Properties
	decls   []Declaration
	include []string
	logger  log.FieldLogger
}

// NewScanner creates a scanner over decls.
func NewScanner(props *config.Properties, decls ...Declaration) *Scanner {
	return &Scanner{props: props, decls: decls, logger: log.StandardLogger()}
}

// Add declares more components.
func (s *Scanner) Add(decls ...Declaration) *Scanner {
	s.decls = append(s.decls, decls...)
	return s
}

// Include always scans prefixes, whatever beanScan says.
func (s *Scanner) Include(prefixes ...string) *Scanner {
	s.include = append(s.include, prefixes...)
	return s
}

// WithLogger sets the scanner logger.
func (s *Scanner) WithLogger(l log.FieldLogger) *Scanner {
	s.logger = l
	return s
}

// Targets returns the scan targets in effect.
func (s *Scanner) Targets() []string {
	var out []string
	if s.props != nil {
		out = append(out, s.props.BeanScan...)
	}
	return append(out, s.include...)
}

// Produce implements bean.Registry.
func (s *Scanner) Produce() (*bean.Bundle, error) {
	targets := s.Targets()
	b := &bean.Bundle{Properties: s.props}
	seen := make(map[string]bool)
	for _, d := range s.decls {
		if !inScan(d.Package, targets) {
			s.logger.WithFields(log.Fields{"bean": d.Definition.Name, "package": d.Package}).
				Debug("registry: component outside scan targets")
			continue
		}
		if !seen[d.Type.Name()] {
			seen[d.Type.Name()] = true
			b.Types = append(b.Types, d.Type)
		}
		b.Definitions = append(b.Definitions, d.Definition)
	}
	s.logger.WithFields(log.Fields{"targets": targets, "components": len(b.Definitions)}).
		Info("registry: scan complete")
	return b, nil
}

// inScan matches a package path against targets given either as import
// path prefixes or as trailing path segments ("app/services").
func inScan(pkg string, targets []string) bool {
	for _, t := range targets {
		t = strings.TrimSuffix(strings.TrimSpace(t), "/...")
		t = strings.Trim(t, "/")
		if t == "" {
			continue
		}
		if pkg == t || strings.HasPrefix(pkg, t+"/") ||
			strings.HasSuffix(pkg, "/"+t) || strings.Contains(pkg, "/"+t+"/") {
			return true
		}
	}
	return false
}

package bean

import (
	"fmt"
	"strings"
)

// Scope is the lifetime of a bean instance.
type Scope int

const (
	// Singleton beans are built once per container generation and reused.
	Singleton Scope = iota
	// Prototype beans are rebuilt on every Get.
	Prototype
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Prototype:
		return "prototype"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// ParseScope parses "singleton" or "prototype" (any case). Empty means Singleton.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "singleton":
		return Singleton, nil
	case "prototype":
		return Prototype, nil
	}
	return Singleton, fmt.Errorf("bean: unknown scope %q", s)
}

// Definition is the recipe for one named bean.
type Definition struct {
	Name  string
	Scope Scope

	// Type is looked up in the container's type table.
	Type string

	// Alias forwards resolution to another bean. Nothing is built locally.
	Alias string

	// Args are positional constructor arguments.
	Args []Value

	// Properties are assigned after construction, keyed by property name.
	Properties map[string]Value
}

// Define starts a singleton definition of typeName.
func Define(name, typeName string, args ...Value) *Definition {
	return &Definition{Name: name, Type: typeName, Args: args}
}

// AliasOf defines name as an alias of target.
func AliasOf(name, target string) *Definition {
	return &Definition{Name: name, Alias: target}
}

// WithScope sets the scope.
func (d *Definition) WithScope(s Scope) *Definition {
	d.Scope = s
	return d
}

// AsPrototype marks the definition Prototype.
func (d *Definition) AsPrototype() *Definition { return d.WithScope(Prototype) }

// Set adds a property injection.
func (d *Definition) Set(property string, v Value) *Definition {
	if d.Properties == nil {
		d.Properties = make(map[string]Value)
	}
	d.Properties[property] = v
	return d
}

// IsAlias reports whether the definition forwards to another bean.
func (d *Definition) IsAlias() bool { return d.Alias != "" }

func (d *Definition) hasInjections() bool {
	return len(d.Args) > 0 || len(d.Properties) > 0
}

func (d *Definition) validate() error {
	section := "beans." + d.Name
	switch {
	case strings.TrimSpace(d.Name) == "":
		return &ConfigurationError{Section: "beans", Reason: "definition without a name"}
	case d.Alias == "" && d.Type == "":
		return &ConfigurationError{Section: section, Reason: "neither type nor alias set"}
	case d.Scope != Singleton && d.Scope != Prototype:
		return &ConfigurationError{Section: section, Reason: "invalid scope " + d.Scope.String()}
	}
	return nil
}

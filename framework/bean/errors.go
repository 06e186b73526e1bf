package bean

import (
	"fmt"
	"strings"

	"github.com/km-arc/go-beans/framework/aop"
)

// ConfigurationError reports a required configuration section that is
// missing or malformed at merge time.
type ConfigurationError struct {
	Section string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("bean: configuration section [%s] is missing", e.Section)
	}
	return fmt.Sprintf("bean: configuration section [%s]: %s", e.Section, e.Reason)
}

// UnknownBeanError reports a name with neither a definition nor a cached
// instance.
type UnknownBeanError struct {
	Name string
}

func (e *UnknownBeanError) Error() string {
	return fmt.Sprintf("bean: no definition registered for [%s]", e.Name)
}

// CyclicDependencyError reports a bean that (transitively) requires itself.
// Chain starts and ends with the offending name.
type CyclicDependencyError struct {
	Chain []string
}

func (e *CyclicDependencyError) Error() string {
	return "bean: cyclic dependency: " + strings.Join(e.Chain, " -> ")
}

// ReflectionError is returned when type metadata for a bean is unavailable,
// either at construction or while wrapping it.
type ReflectionError = aop.ReflectionError

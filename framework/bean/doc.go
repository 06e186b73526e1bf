// Package bean is a declarative object container: named bean definitions
// are merged from one or more registries and resolved on demand into fully
// wired, optionally intercepted instances.
//
// # Lifecycle
//
//  1. Create: c := bean.New(bean.WithLogger(logger))
//  2. Merge definitions: c.Load(registries...) or c.AddDefinitions(bundle)
//  3. Optionally build everything up front: c.InitEagerBeans()
//  4. Resolve: c.Get("name"), bean.Resolve[*T](c, "name")
//  5. Swap the whole graph: c.Reload()
//
// # Types
//
// Definitions name their type by identifier; the container looks the
// identifier up in its type table.
//
//	// Constructor injection, args match NewUserService's parameters
//	bean.TypeOf(NewUserService, bean.Named("UserService"))
//
//	// No constructor, exported fields are injectable properties
//	bean.StructOf[Mailer](bean.Mark("Send", "Logged"))
//
//	// Pre-built value
//	bean.Instance("config", cfg)
//
// # Definitions
//
//	s := bean.NewStatic().
//	    Properties(config.NewProperties(map[string]any{"autoInitBean": true})).
//	    Type(bean.TypeOf(NewUserService, bean.Named("UserService"))).
//	    Define(
//	        bean.Define("users", "UserService", bean.Ref("db"), bean.Literal(10)),
//	        bean.Define("mailer", "Mailer").Set("Host", bean.Literal("smtp.local")),
//	        bean.Define("request", "Request").AsPrototype(),
//	        bean.AliasOf("userService", "users"),
//	    )
//	err := c.Load(s)
//
// Injection values are literals, references to other beans and lists or
// maps of values, resolved recursively.
//
// # Scopes
//
// Singleton beans are built once per generation and cached under their own
// name. Prototype beans are rebuilt on every Get. An alias is never cached;
// its target is cached under the target's name.
//
// # Lifecycle hook
//
// After constructor and property injection the container calls Init() (or
// Init() error) when the instance has it, then hands the instance to the
// aop.Gateway, which may return a proxy in its place.
//
// # Errors
//
//	*ConfigurationError     first merge without a property source
//	*UnknownBeanError       no definition and no cached instance
//	*CyclicDependencyError  a bean requires itself, directly or transitively
//	*ReflectionError        type metadata missing at construction or wrapping
package bean

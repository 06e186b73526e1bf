// Package aop is the method-interception layer that sits between bean
// construction and the caller.
//
// # Overview
//
// After a bean has been constructed, injected and initialised, the container
// hands it to a Gateway. The gateway enumerates the bean type's methods,
// asks the Policy which aspects apply to each (method, markers) pair, records
// the matches in a Registry and finally lets the ProxyFactory decide what the
// caller receives:
//
//   - a typed decorator registered for the type (keeps the bean's interface),
//   - the untouched instance when no method matched anything,
//   - a *Proxy dynamic dispatcher otherwise.
//
// Beans that implement Aware are never wrapped.
//
// # Aspects
//
//	policy := aop.New(registry)
//	policy.Register(&aop.Aspect{
//	    Name:     "timing",
//	    Pointcut: aop.Pointcut{Markers: []string{"Timed"}},
//	    Around: func(jp *aop.JoinPoint, proceed aop.Proceed) ([]any, error) {
//	        start := time.Now()
//	        defer func() { log.Debugf("%s took %s", jp.Method, time.Since(start)) }()
//	        return proceed()
//	    },
//	})
//
// # Typed decorators
//
//	type greeterProxy struct{ aop.Decorated }
//
//	func (p greeterProxy) Greet(name string) string {
//	    s, _ := aop.Call[string](p.Handler, "Greet", name)
//	    return s
//	}
//
//	factory.Register("greeter", func(_ any, h *aop.Handler) any {
//	    return greeterProxy{aop.Decorated{Handler: h}}
//	})
package aop

package aop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/aop"
)

func proxied(t *testing.T, aspects ...*aop.Aspect) (*aop.Proxy, *englishGreeter) {
	t.Helper()
	g := aop.NewGateway()
	g.Aop().Register(aspects...)
	in := &englishGreeter{}
	out, err := g.Wrap("greeter", greeterType(map[string][]string{"Greet": {"Traced"}, "Fail": {"Traced"}}), in)
	require.NoError(t, err)
	p, ok := out.(*aop.Proxy)
	require.True(t, ok)
	return p, in
}

func TestProxy_AdviceOrder(t *testing.T) {
	var trace []string
	rec := func(name string) *aop.Aspect {
		return &aop.Aspect{
			Name:     name,
			Pointcut: aop.Pointcut{Markers: []string{"Traced"}},
			Before:   func(*aop.JoinPoint) { trace = append(trace, name+".before") },
			Around: func(jp *aop.JoinPoint, proceed aop.Proceed) ([]any, error) {
				trace = append(trace, name+".around>")
				r, err := proceed()
				trace = append(trace, name+".around<")
				return r, err
			},
			AfterReturning: func(*aop.JoinPoint, []any) { trace = append(trace, name+".returning") },
			After:          func(*aop.JoinPoint) { trace = append(trace, name+".after") },
		}
	}
	outer, inner := rec("outer"), rec("inner")
	inner.Order = 10

	p, _ := proxied(t, inner, outer)
	results, err := p.Invoke("Greet", "ann")
	require.NoError(t, err)
	assert.Equal(t, []any{"hello ann"}, results)

	assert.Equal(t, []string{
		"outer.before", "inner.before",
		"outer.around>", "inner.around>", "inner.around<", "outer.around<",
		"outer.returning", "inner.returning",
		"outer.after", "inner.after",
	}, trace)
}

func TestProxy_AroundShortCircuits(t *testing.T) {
	p, in := proxied(t, &aop.Aspect{
		Pointcut: aop.Pointcut{Methods: []string{"Greet"}},
		Around: func(*aop.JoinPoint, aop.Proceed) ([]any, error) {
			return []any{"cached"}, nil
		},
	})

	s, err := aop.Call[string](p.Handler(), "Greet", "ann")
	require.NoError(t, err)
	assert.Equal(t, "cached", s)
	assert.Zero(t, in.calls, "target must not be called")
}

func TestProxy_AfterThrowing(t *testing.T) {
	var caught error
	p, _ := proxied(t, &aop.Aspect{
		Pointcut:      aop.Pointcut{Markers: []string{"Traced"}},
		AfterThrowing: func(_ *aop.JoinPoint, err error) { caught = err },
	})

	results, err := p.Invoke("Fail")
	require.EqualError(t, err, "boom")
	assert.Empty(t, results)
	assert.Equal(t, err, caught)
}

func TestProxy_UnmatchedDelegates(t *testing.T) {
	p, in := proxied(t, &aop.Aspect{Pointcut: aop.Pointcut{Methods: []string{"Fail"}}})

	results, err := p.Invoke("Greet", "zed")
	require.NoError(t, err)
	assert.Equal(t, []any{"hello zed"}, results)
	assert.Equal(t, 1, in.calls)
}

func TestProxy_BadCalls(t *testing.T) {
	p, _ := proxied(t, &aop.Aspect{Pointcut: aop.Pointcut{Methods: []string{"*"}}})

	_, err := p.Invoke("Missing")
	assert.Error(t, err)

	_, err = p.Invoke("Greet")
	assert.Error(t, err, "arity mismatch")

	_, err = p.Invoke("Greet", 42)
	assert.Error(t, err, "int is not convertible to string")
}

func TestProxy_NumericArguments(t *testing.T) {
	tests := []struct {
		name string
		arg  any
		want int
		ok   bool
	}{
		{"exact", uint8(7), 7, true},
		{"int in range", 200, 200, true},
		{"integral float", float64(3), 3, true},
		{"too large", 300, 0, false},
		{"negative into unsigned", -1, 0, false},
		{"fraction", 2.5, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := proxied(t, &aop.Aspect{Pointcut: aop.Pointcut{Methods: []string{"Repeat"}}})
			n, err := aop.Call[int](p.Handler(), "Repeat", tt.arg)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

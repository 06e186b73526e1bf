package bean

import (
	"github.com/rcrowley/go-metrics"
)

// Metric names recorded in the container's registry.
const (
	StatGet         = "beans.get"
	StatCacheHit    = "beans.cache.hit"
	StatConstructed = "beans.constructed"
	StatProxied     = "beans.proxied"
	StatErrors      = "beans.errors"
	StatResolve     = "beans.resolve"
)

// stats holds the instruments, registered once per container.
type stats struct {
	registry    metrics.Registry
	get         metrics.Counter
	hit         metrics.Counter
	constructed metrics.Counter
	proxied     metrics.Counter
	errors      metrics.Counter
	resolve     metrics.Timer
}

func newStats(r metrics.Registry) *stats {
	if r == nil {
		r = metrics.NewRegistry()
	}
	return &stats{
		registry:    r,
		get:         metrics.GetOrRegisterCounter(StatGet, r),
		hit:         metrics.GetOrRegisterCounter(StatCacheHit, r),
		constructed: metrics.GetOrRegisterCounter(StatConstructed, r),
		proxied:     metrics.GetOrRegisterCounter(StatProxied, r),
		errors:      metrics.GetOrRegisterCounter(StatErrors, r),
		resolve:     metrics.GetOrRegisterTimer(StatResolve, r),
	}
}

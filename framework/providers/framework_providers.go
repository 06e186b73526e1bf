package providers

import (
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"

	"github.com/km-arc/go-beans/framework/bean"
	"github.com/km-arc/go-beans/framework/config"
	gohttp "github.com/km-arc/go-beans/framework/http"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider contributes the property source and binds the
// loaded configuration.
//
// Defined beans:
//   - "config"         → *config.Config
//   - "configuration"  → alias of "config"
type ConfigServiceProvider struct {
	bean.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(s *bean.Static) {
	s.Properties(p.Config.Properties()).
		Instance("config", p.Config).
		Define(bean.AliasOf("configuration", "config"))
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the application logger.
//
// Defined beans:
//   - "logger" → log.FieldLogger
type LoggingServiceProvider struct {
	bean.BaseProvider
	Logger log.FieldLogger
}

func (p *LoggingServiceProvider) Register(s *bean.Static) {
	s.Instance("logger", p.Logger)
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider binds the container's metrics registry so beans can
// record their own counters next to the container's.
//
// Defined beans:
//   - "metrics" → metrics.Registry
type MetricsServiceProvider struct {
	bean.BaseProvider
	Registry metrics.Registry
}

func (p *MetricsServiceProvider) Register(s *bean.Static) {
	s.Instance("metrics", p.Registry)
}

// ── HTTPServiceProvider ───────────────────────────────────────────────────────

// HTTPServiceProvider defines the admin handler as an ordinary bean wired
// from "container" and "logger". Boot resolves it so a broken wiring fails
// at startup rather than on the first request.
//
// Defined beans:
//   - "http.handler" → *gohttp.Admin
type HTTPServiceProvider struct {
	Reload func() error
}

func (p *HTTPServiceProvider) Register(s *bean.Static) {
	def := bean.Define("http.handler", "http.Admin", bean.Ref(bean.SelfName), bean.Ref("logger"))
	if p.Reload != nil {
		def.Set("Reload", bean.Literal(p.Reload))
	}
	s.Type(bean.TypeOf(gohttp.NewAdmin, bean.Named("http.Admin"))).Define(def)
}

func (p *HTTPServiceProvider) Boot(c *bean.Container) error {
	if _, err := bean.Resolve[*gohttp.Admin](c, "http.handler"); err != nil {
		return errors.Wrap(err, "http handler")
	}
	return nil
}

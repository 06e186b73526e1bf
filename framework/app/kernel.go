package app

import (
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/km-arc/go-beans/framework/bean"
	"github.com/km-arc/go-beans/framework/config"
	gohttp "github.com/km-arc/go-beans/framework/http"
	"github.com/km-arc/go-beans/framework/providers"
	"github.com/km-arc/go-beans/framework/registry"
)

// FrameworkPackage is always scanned, whatever beanScan says.
const FrameworkPackage = "github.com/km-arc/go-beans/framework"

// Application is the top-level application container. It embeds the bean
// Container so user code can call app.Get(), app.Has(), app.Reload()
// directly.
type Application struct {
	*bean.Container
	Config    *config.Config
	Providers *bean.ProviderRegistry
	Scanner   *registry.Scanner
	Logger    *log.Logger
}

// New loads configuration and wires the framework providers. Nothing is
// defined until Bootstrap.
func New(envFiles ...string) *Application {
	cfg := config.Load(envFiles...)
	logger := newLogger(cfg.Log)

	c := bean.New(
		bean.WithLogger(logger),
		bean.WithInitMethod(cfg.Beans.InitMethod),
	)
	a := &Application{
		Container: c,
		Config:    cfg,
		Providers: bean.NewProviderRegistry(),
		Scanner: registry.NewScanner(cfg.Properties()).
			Include(FrameworkPackage).
			WithLogger(logger),
		Logger: logger,
	}

	// Registration never fails before Boot.
	_ = a.Register(&providers.ConfigServiceProvider{Config: cfg})
	_ = a.Register(&providers.LoggingServiceProvider{Logger: logger})
	_ = a.Register(&providers.MetricsServiceProvider{Registry: c.Metrics()})
	_ = a.Register(&providers.HTTPServiceProvider{Reload: a.Reload})

	return a
}

func newLogger(cfg config.LogConfig) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stderr)
	if lvl, err := log.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(lvl)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider bean.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Scan declares components for the scanner.
func (a *Application) Scan(decls ...registry.Declaration) *Application {
	a.Scanner.Add(decls...)
	return a
}

// Sources lists the definition registries in merge order: providers,
// scanned components, then the BEAN_DEFINITIONS file if configured.
func (a *Application) Sources() []bean.Registry {
	rs := []bean.Registry{a.Providers, a.Scanner}
	if path := a.Config.Beans.Definitions; path != "" {
		rs = append(rs, registry.JSONFile(path, a.Config.Properties()))
	}
	return rs
}

// Bootstrap merges every source, initializes eager beans and boots the
// providers.
func (a *Application) Bootstrap() error {
	if err := a.Load(a.Sources()...); err != nil {
		return err
	}
	if err := a.InitEagerBeans(); err != nil {
		return err
	}
	return a.Providers.Boot(a.Container)
}

// Reload rebuilds the object graph from the sources loaded at Bootstrap.
func (a *Application) Reload() error {
	return a.Container.Reload()
}

// Handler resolves the admin handler.
func (a *Application) Handler() (*gohttp.Admin, error) {
	return bean.Resolve[*gohttp.Admin](a.Container, "http.handler")
}

// Run bootstraps the application (if needed) and serves the admin surface.
func (a *Application) Run() error {
	if !a.Providers.Booted() {
		if err := a.Bootstrap(); err != nil {
			return err
		}
	}
	h, err := a.Handler()
	if err != nil {
		return err
	}

	addr := ":" + a.Config.App.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.Logger.WithFields(log.Fields{
		"app":        a.Config.App.Name,
		"env":        a.Config.App.Env,
		"addr":       addr,
		"generation": a.Generation(),
	}).Info("app: serving")
	return errors.Wrap(srv.ListenAndServe(), "app: serve")
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config.App.Debug }

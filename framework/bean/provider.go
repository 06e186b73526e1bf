package bean

import (
	"sync"

	"github.com/pkg/errors"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider contributes definitions to a container and gets a hook
// once they are merged.
//
// Register runs every time the provider registry is produced, so on
// startup and again on each reload. It must only describe beans. Boot runs
// after the merge and may resolve anything.
//
//	type MailProvider struct{ bean.BaseProvider }
//
//	func (p *MailProvider) Register(s *bean.Static) {
//	    s.Type(bean.TypeOf(mail.NewSMTP, bean.Named("SMTP"))).
//	        Define(bean.Define("mailer", "SMTP", bean.Literal("smtp.local:25")))
//	}
//
//	func (p *MailProvider) Boot(c *bean.Container) error {
//	    _, err := c.Get("mailer")
//	    return err
//	}
type ServiceProvider interface {
	// Register describes the provider's beans.
	Register(s *Static)

	// Boot is called after all providers are registered and merged.
	Boot(c *Container) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op Boot.
//
//	type MyProvider struct{ bean.BaseProvider }
//	func (p *MyProvider) Register(s *bean.Static) { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry collects providers. It is itself a Registry: producing
// it runs every provider's Register against one Static builder.
type ProviderRegistry struct {
	mu         sync.Mutex
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	app        *Container
	booted     bool
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{registered: make(map[ServiceProvider]bool)}
}

// Register adds a provider once. A provider added after Boot contributes
// its definitions on the next reload; its Boot runs immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true
	r.providers = append(r.providers, provider)
	app, booted := r.app, r.booted
	r.mu.Unlock()

	if booted {
		return boot(provider, app)
	}
	return nil
}

// Produce implements Registry.
func (r *ProviderRegistry) Produce() (*Bundle, error) {
	s := NewStatic()
	for _, p := range r.Providers() {
		p.Register(s)
	}
	return s.Produce()
}

// Boot calls Boot on every provider in registration order, once.
func (r *ProviderRegistry) Boot(app *Container) error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	r.app = app
	providers := append([]ServiceProvider(nil), r.providers...)
	r.mu.Unlock()

	for _, p := range providers {
		if err := boot(p, app); err != nil {
			return err
		}
	}
	return nil
}

func boot(p ServiceProvider, app *Container) error {
	if err := p.Boot(app); err != nil {
		return errors.Wrapf(err, "bean: boot %T", p)
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the registered providers in order.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.providers...)
}

package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"

	"github.com/km-arc/go-beans/framework/aop"
	"github.com/km-arc/go-beans/framework/bean"
)

// dumper prints resolved beans for ?dump requests.
var dumper = spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                4,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Admin serves a read-mostly view of a container:
//
//	GET  /health
//	GET  /beans
//	GET  /beans/{name}
//	POST /beans/{name}/resolve[?dump]
//	POST /reload
//	GET  /metrics
type Admin struct {
	// Reload replaces the object graph; defaults to the container's Reload.
	Reload func() error

	container *bean.Container
	logger    log.FieldLogger
	router    chi.Router
}

// NewAdmin builds the admin surface for c.
func NewAdmin(c *bean.Container, logger log.FieldLogger) *Admin {
	a := &Admin{container: c, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", a.health)
	r.Route("/beans", func(r chi.Router) {
		r.Get("/", a.list)
		r.Get("/{name}", a.show)
		r.Post("/{name}/resolve", a.resolve)
	})
	r.Post("/reload", a.reload)
	r.Get("/metrics", a.metrics)

	a.router = r
	return a
}

func (a *Admin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// ── Views ─────────────────────────────────────────────────────────────────────

type beanView struct {
	Name       string            `json:"name"`
	Type       string            `json:"type,omitempty"`
	Alias      string            `json:"alias,omitempty"`
	Scope      string            `json:"scope"`
	Resolved   bool              `json:"resolved"`
	Args       []string          `json:"args,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

func (a *Admin) view(d *bean.Definition, detailed bool) beanView {
	v := beanView{
		Name:     d.Name,
		Type:     d.Type,
		Alias:    d.Alias,
		Scope:    d.Scope.String(),
		Resolved: a.container.Resolved(d.Name),
	}
	if !detailed {
		return v
	}
	for _, arg := range d.Args {
		v.Args = append(v.Args, arg.String())
	}
	if len(d.Properties) > 0 {
		v.Properties = make(map[string]string, len(d.Properties))
		for p, val := range d.Properties {
			v.Properties[p] = val.String()
		}
	}
	return v
}

// ── Handlers ──────────────────────────────────────────────────────────────────

func (a *Admin) health(w http.ResponseWriter, _ *http.Request) {
	NewResponse(w).JSON(http.StatusOK, envelope{
		"status":     "ok",
		"generation": a.container.Generation(),
	})
}

func (a *Admin) list(w http.ResponseWriter, _ *http.Request) {
	names := a.container.Names()
	out := make([]beanView, 0, len(names))
	for _, name := range names {
		if d, ok := a.container.Definition(name); ok {
			out = append(out, a.view(d, false))
		}
	}
	NewResponse(w).Success(out)
}

func (a *Admin) show(w http.ResponseWriter, r *http.Request) {
	name := NewRequest(r).RouteParam("name")
	d, ok := a.container.Definition(name)
	if !ok {
		NewResponse(w).Fail(&bean.UnknownBeanError{Name: name})
		return
	}
	NewResponse(w).Success(a.view(d, true))
}

func (a *Admin) resolve(w http.ResponseWriter, r *http.Request) {
	req, res := NewRequest(r), NewResponse(w)
	name := req.RouteParam("name")

	start := time.Now()
	inst, err := a.container.Get(name)
	if err != nil {
		a.logger.WithFields(log.Fields{"bean": name, "error": err}).Warn("http: resolve failed")
		res.Fail(err)
		return
	}

	_, proxied := inst.(aop.Aware)
	out := envelope{
		"name":       name,
		"type":       fmt.Sprintf("%T", aop.Unwrap(inst)),
		"proxied":    proxied,
		"generation": a.container.Generation(),
		"took":       time.Since(start).String(),
	}
	if req.QueryBool("dump") {
		out["dump"] = dumper.Sdump(aop.Unwrap(inst))
	}
	res.Success(out)
}

type reloadRequest struct {
	Reason string `json:"reason"`
}

func (a *Admin) reload(w http.ResponseWriter, r *http.Request) {
	req, res := NewRequest(r), NewResponse(w)

	var body reloadRequest
	if err := req.Bind(&body); err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}

	from := a.container.Generation()
	reload := a.Reload
	if reload == nil {
		reload = func() error { return a.container.Reload() }
	}
	if err := reload(); err != nil {
		a.logger.WithError(err).Error("http: reload failed")
		res.Fail(err)
		return
	}
	a.logger.WithFields(log.Fields{"reason": body.Reason, "generation": a.container.Generation()}).
		Info("http: container reloaded")
	res.Success(envelope{"from": from, "to": a.container.Generation()})
}

func (a *Admin) metrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	metrics.WriteJSONOnce(a.container.Metrics(), w)
}

// ── Middleware ────────────────────────────────────────────────────────────────

// requestLogger logs one line per request with logrus.
func requestLogger(logger log.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"remote":   r.RemoteAddr,
				"duration": time.Since(start),
			}).Debug("http: request")
		})
	}
}


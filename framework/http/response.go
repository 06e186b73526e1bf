package http

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/km-arc/go-beans/framework/bean"
	"github.com/km-arc/go-beans/framework/registry"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with JSON helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusNotFound, "Resource not found")
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	msg := first(message, "Not found.")
	res.JSON(http.StatusNotFound, envelope{"message": msg})
}

// ServerError sends 500.
func (res *Response) ServerError(message ...string) {
	msg := first(message, "Server Error.")
	res.JSON(http.StatusInternalServerError, envelope{"message": msg})
}

// ValidationError sends 422 with the error bag.
func (res *Response) ValidationError(bag *registry.Errors) {
	res.JSON(http.StatusUnprocessableEntity, bag)
}

// Fail translates a container error into a status and message.
func (res *Response) Fail(err error) {
	res.Error(Status(err), err.Error())
}

// Status maps container errors onto HTTP statuses.
func Status(err error) int {
	var (
		unknown *bean.UnknownBeanError
		cyclic  *bean.CyclicDependencyError
		config  *bean.ConfigurationError
		bag     *registry.Errors
	)
	switch {
	case errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &cyclic):
		return http.StatusConflict
	case errors.As(err, &config), errors.As(err, &bag):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}

package idempotency

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

const (
	HeaderName = "Idempotency-Key"
	maxKeyLen  = 200
)

type Claimer interface {
	Key(scope, key string) string
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// ScopeFunc namespaces keys, typically by caller, so two callers can use the
// same key independently.
type ScopeFunc func(r *http.Request) string

type Option func(*middleware)

func WithScope(fn ScopeFunc) Option {
	return func(m *middleware) {
		if fn != nil {
			m.scope = fn
		}
	}
}

type middleware struct {
	log     *slog.Logger
	claimer Claimer
	scope   ScopeFunc
}

// Middleware rejects a mutating request whose Idempotency-Key was already
// used with 409 Conflict. Requests without the header pass through. Only a
// successful response keeps the claim; any 4xx or 5xx releases it so the
// caller can retry with the same key once the cause is fixed.
func Middleware(log *slog.Logger, claimer Claimer, opts ...Option) func(http.Handler) http.Handler {
	m := &middleware{
		log:     log,
		claimer: claimer,
		scope:   func(r *http.Request) string { return "" },
	}
	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimSpace(r.Header.Get(HeaderName))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(raw) > maxKeyLen {
				respond(w, http.StatusBadRequest, "invalid_idempotency_key", "idempotency key is too long")
				return
			}

			key := m.claimer.Key(m.scope(r)+":"+r.Method+":"+r.URL.Path, raw)
			claimed, err := m.claimer.Claim(r.Context(), key)
			if err != nil {
				m.log.Error("idempotency claim failed", "key", raw, "err", err)
				respond(w, http.StatusServiceUnavailable, "idempotency_unavailable", "idempotency store unavailable")
				return
			}
			if !claimed {
				respond(w, http.StatusConflict, "duplicate_request", "a request with this idempotency key was already processed")
				return
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			if sw.status >= http.StatusBadRequest {
				if err := m.claimer.Release(context.WithoutCancel(r.Context()), key); err != nil {
					m.log.Warn("idempotency release failed", "key", raw, "err", err)
				}
			}
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func respond(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

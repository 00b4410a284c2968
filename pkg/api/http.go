package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ticketdb/pkg/api/handlers"
	"ticketdb/pkg/security"
	"ticketdb/pkg/telemetry"
	"ticketdb/pkg/tickets"
)

// Options wires the router's collaborators. Everything is injected; the
// api package holds no globals.
type Options struct {
	Tickets  *tickets.Service
	Messages handlers.MessageStore
	Security security.SecConfig
	// RequestTimeout bounds each request's handler work, including store
	// calls. Zero disables the bound.
	RequestTimeout time.Duration
	// MaxBodySize caps request body reads. Zero disables the cap.
	MaxBodySize int64
	// Ready reports store reachability for the health endpoint.
	Ready func(ctx context.Context) error
}

// NewRouter assembles the HTTP surface: middleware chain, health and
// metrics endpoints, and the tickets/messages handlers.
func NewRouter(opts Options) http.Handler {
	r := mux.NewRouter()
	r.Use(telemetry.Middleware)
	if opts.MaxBodySize > 0 {
		r.Use(maxBody(opts.MaxBodySize))
	}
	if opts.RequestTimeout > 0 {
		r.Use(timeout(opts.RequestTimeout))
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.Ready != nil {
			if err := opts.Ready(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)

	handlers.RegisterTickets(r, opts.Tickets)
	handlers.RegisterMessages(r, opts.Messages)

	return security.Middleware(opts.Security)(r)
}

// timeout cancels the request context after d so an unresponsive store
// cannot suspend a handler indefinitely. In-flight store calls observe
// the cancellation; partially applied bulk writes are not rolled back.
func timeout(d time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func maxBody(n int64) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// Package api exposes the HTTP surface: generation features, sessions, the
// billing webhook, health probes, and metrics.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/annexahq/annexa/internal/auth"
	"github.com/annexahq/annexa/internal/billing"
	"github.com/annexahq/annexa/internal/cache"
	"github.com/annexahq/annexa/internal/crawl"
	"github.com/annexahq/annexa/internal/docgen"
	"github.com/annexahq/annexa/internal/logging"
	"github.com/annexahq/annexa/internal/metrics"
	"github.com/annexahq/annexa/internal/observability"
	"github.com/annexahq/annexa/internal/radar"
	"github.com/annexahq/annexa/internal/ratelimit"
)

// Server bundles the request handlers and their dependencies. It is
// constructed once at process start; handlers never reach for globals to
// decide whether a remote store exists.
type Server struct {
	Store    cache.Store
	Limiter  *ratelimit.Limiter
	Sessions *auth.Sessions
	Docs     *docgen.Service
	Radar    *radar.Service
	Billing  *billing.Service
	Fetcher  *crawl.Fetcher

	started time.Time
}

// NewServer creates the API server.
func NewServer(store cache.Store, limiter *ratelimit.Limiter, sessions *auth.Sessions,
	docs *docgen.Service, rd *radar.Service, bill *billing.Service, fetcher *crawl.Fetcher) *Server {
	return &Server{
		Store:    store,
		Limiter:  limiter,
		Sessions: sessions,
		Docs:     docs,
		Radar:    rd,
		Billing:  bill,
		Fetcher:  fetcher,
		started:  time.Now(),
	}
}

// Handler builds the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/drafts", s.CreateDraft)
	mux.HandleFunc("POST /api/landing-patch", s.PatchLanding)
	mux.HandleFunc("POST /api/radar", s.CompareRadar)
	mux.HandleFunc("POST /api/crawl", s.CrawlSite)

	mux.HandleFunc("POST /api/sessions", s.CreateSession)
	mux.HandleFunc("GET /api/sessions/me", s.CurrentSession)

	mux.HandleFunc("POST /webhooks/billing", s.BillingWebhook)

	mux.HandleFunc("GET /health", s.Health)
	mux.HandleFunc("GET /health/live", s.HealthLive)
	mux.HandleFunc("GET /health/ready", s.HealthReady)
	mux.Handle("GET /metrics/prometheus", metrics.Global().Handler())

	var h http.Handler = mux
	h = s.identityMiddleware(h)
	h = requestMiddleware(h)
	h = observability.HTTPMiddleware(h)
	return h
}

// identityMiddleware resolves an optional bearer identity for API routes.
// Absence of identity is valid; handlers that require one check themselves.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			if id := s.Sessions.Authenticate(r); id != nil {
				r = r.WithContext(auth.WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requestMiddleware assigns a request ID and records the request log and
// metrics once the handler finishes.
func requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		route := r.Method + " " + r.URL.Path
		metrics.Global().HTTPRequest(route, rw.status, elapsed)

		if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/webhooks/") {
			logging.Default().Log(&logging.RequestLog{
				RequestID:  requestID,
				Feature:    route,
				ClientIP:   clientIP(r),
				Status:     rw.status,
				DurationMs: elapsed.Milliseconds(),
				Success:    rw.status < 400,
			})
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// resolveTier picks the effective quota class: an authenticated identity's
// tier wins; otherwise the caller-asserted tier is taken at face value (this
// layer does not verify entitlement). Unknown values fall back to free.
func resolveTier(r *http.Request, asserted string) string {
	if id := auth.GetIdentity(r.Context()); id != nil && id.Tier != "" {
		return id.Tier
	}
	switch asserted {
	case ratelimit.TierFree, ratelimit.TierEdge:
		return asserted
	default:
		return ratelimit.TierFree
	}
}

/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the back-office frontend
  5. Auth:       JWT bearer gate (disabled when no secret configured)

ROUTE GROUPS:
  /api/disbursements/*     Disbursement lifecycle
  /api/soa/*               SOAs and their fee totals
  /api/reserve-releases/*  Reserve releases and their fee totals
  /api/payees/*            Payee management
  /api/client-settings/*   Per-client fee schedules
  /api/client-payees/*     Client<->payee associations
  /health                  Liveness probe (unauthenticated)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: JWT verification
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures cross-cutting behavior of the router.
type RouterOptions struct {
	// AllowedOrigins for CORS; empty means allow all.
	AllowedOrigins []string
	// JWTSecret enables the bearer token gate when non-empty.
	JWTSecret string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(RequireAuth(opts.JWTSecret))
		}

		r.Route("/disbursements", func(r chi.Router) {
			r.Get("/", h.ListDisbursements)
			r.Post("/", h.CreateDisbursement)
			r.Get("/{id}", h.GetDisbursement)
			r.Put("/{id}", h.UpdateDisbursement)
			r.Delete("/{id}", h.DeleteDisbursement)
		})

		r.Route("/soa", func(r chi.Router) {
			r.Get("/", h.ListSOAs)
			r.Post("/", h.CreateSOA)
			r.Get("/{id}", h.GetSOA)
			r.Put("/{id}", h.UpdateSOA)
			r.Get("/{id}/fees", h.GetSOAFees)
		})

		r.Route("/reserve-releases", func(r chi.Router) {
			r.Get("/", h.ListReserveReleases)
			r.Post("/", h.CreateReserveRelease)
			r.Get("/{id}", h.GetReserveRelease)
			r.Put("/{id}", h.UpdateReserveRelease)
			r.Get("/{id}/fees", h.GetReserveReleaseFees)
		})

		r.Route("/payees", func(r chi.Router) {
			r.Get("/", h.ListPayees)
			r.Post("/", h.CreatePayee)
			r.Get("/{id}", h.GetPayee)
			r.Put("/{id}", h.UpdatePayee)
		})

		r.Route("/client-settings", func(r chi.Router) {
			r.Post("/", h.SaveClientSettings)
			r.Get("/{clientID}", h.GetClientSettings)
		})

		r.Route("/client-payees", func(r chi.Router) {
			r.Post("/", h.SaveClientPayee)
			r.Get("/{clientID}/{payeeID}", h.GetClientPayee)
		})
	})

	return r
}

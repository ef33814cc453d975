package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

func (h *Handlers) corsOrigins() []string {
	if len(h.opts.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return h.opts.CORSOrigins
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	// Static files (served from embedded filesystem)
	r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))

	// WebSocket connections are long-lived and sit outside the request timeout.
	r.Get("/ws", h.Hub.ServeWs)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Dashboard (public)
		r.Get("/", h.handleIndex)

		// Results API (public, readable from other origins such as a venue screen)
		r.Group(func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: h.corsOrigins(),
				AllowedMethods: []string{"GET", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				MaxAge:         300,
			}))
			r.Get("/api/tournament", h.handleGetTournament)
			r.Get("/api/summary", h.handleGetSummary)
			r.Get("/api/qr", h.handleQRCode)
			r.Route("/api/categories/{key}", func(r chi.Router) {
				r.Get("/", h.handleGetCategory)
				r.Get("/matches", h.handleGetMatches)
				r.Get("/standings", h.handleGetStandings)
				r.Get("/bracket", h.handleGetBracket)
				r.Get("/podium", h.handleGetPodium)
			})
		})

		// Auth routes (public)
		r.Get("/admin/login", h.handleLoginPage)
		r.Post("/admin/login", h.handleLogin)
		r.Post("/admin/logout", h.handleLogout)

		// Admin pages (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)
			r.Get("/admin", h.handleAdminPage)
		})

		// Admin API (protected)
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(h.Auth.RequireAuthAPI)

			r.Get("/roster-template", h.handleRosterTemplate)

			r.Route("/categories/{key}", func(r chi.Router) {
				r.Delete("/", h.handleClearCategory)
				r.Post("/import", h.handleImportRoster)
				r.Post("/teams", h.handleImportTeams)
				r.Put("/matches/{id}", h.handleUpdateMatch)
				r.Post("/matches/{id}/winner", h.handleSetWinner)
				r.Post("/matches/reorder", h.handleReorderMatches)
				r.Post("/seed", h.handleSeedBracket)
				r.Get("/variant", h.handleGetVariant)
				r.Put("/variant", h.handleSetVariant)
				r.Post("/simulate", h.handleSimulate)
			})

			r.Post("/reset", h.handleReset)
			r.Put("/tournament", h.handleReplaceTournament)

			r.Get("/sync", h.handleGetSyncStatus)
			r.Post("/sync", h.handleUpload)
			r.Post("/sync/pull", h.handlePull)

			r.Get("/audit", h.handleGetAudit)
		})
	})

	return r
}

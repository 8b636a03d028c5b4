package server

import (
	"net/http"

	"resumecraft/internal/observability"

	"github.com/go-chi/chi/v5"
)

// Handler builds the routed, instrumented handler. om may be nil.
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	s.om = om
	return om.HTTPMiddleware()(s.setupRoutes(om))
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.healthHandler)
	r.Get("/stats", s.statsHandler)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware(om))
		r.Use(s.authMiddleware)
		r.Use(s.requestSizeLimitMiddleware)

		r.Post("/generate", s.generateHandler)
		r.Post("/extract/image", s.extractImageHandler)
		r.Post("/profile/parse", s.parseProfileHandler)

		r.Route("/workspaces", func(r chi.Router) {
			r.Get("/", s.listWorkspacesHandler)
			r.Post("/", s.importWorkspaceHandler)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getWorkspaceHandler)
				r.Delete("/", s.deleteWorkspaceHandler)
				r.Post("/rescore", s.rescoreHandler)
				r.Post("/keywords", s.integrateKeywordHandler)
				r.Post("/job-title", s.fixJobTitleHandler)
				r.Get("/render", s.renderHandler)
				r.Get("/export", s.exportHandler)
				r.Get("/surfaces/{surface}", s.getSurfaceHandler)
				r.Delete("/surfaces/{surface}", s.closeSurfaceHandler)
				r.Patch("/surfaces/{surface}/fields", s.fieldChangeHandler)
				r.Post("/surfaces/{surface}/commit", s.commitHandler)
			})
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.listAccountsHandler)
			r.Post("/signup", s.signupHandler)
			r.Post("/login", s.loginHandler)
			r.Post("/verify", s.verifyHandler)
			r.Get("/{email}", s.getAccountHandler)
			r.Put("/{email}/profile", s.updateProfileHandler)
			r.Post("/{email}/templates", s.saveTemplateHandler)
		})
	})

	return r
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if s.APIKeys.Len() == 0 {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys.Has(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next.ServeHTTP(w, r)
	})
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}
		next.ServeHTTP(w, r)
	})
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/divyyeahhhhh/autocampaign/internal/auth"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials for the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	// Auth and landing routes (no auth required)
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/user", h.HandleUserInfo)
	r.Post("/auth/view", h.HandleOpenAuth)
	r.Delete("/auth/view", h.HandleCloseAuth)
	r.Post("/contact", h.HandleContact)
	r.Get("/sample.csv", h.HandleDownloadSample)

	// The tour drives its own sign-in, so it sits outside the auth wall.
	r.Route("/tour", func(r chi.Router) {
		r.Post("/start", h.HandleStartTour)
		r.Post("/stop", h.HandleStopTour)
		r.Get("/", h.HandleTourStatus)
		r.Get("/audio", h.HandleTourAudio)
	})

	// API routes (protected by auth middleware)
	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if !authManager.IsAuthenticated(req) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte(`{"error":"unauthorized"}`))
					return
				}
				next.ServeHTTP(w, req)
			})
		})

		r.Get("/session", h.HandleGetSession)
		r.Get("/dashboard/stats", h.HandleDashboardStats)

		r.Route("/dataset", func(r chi.Router) {
			r.Post("/", h.HandleUploadDataset)
			r.Post("/sample", h.HandleLoadSampleDataset)
			r.Delete("/", h.HandleClearDataset)
		})

		r.Route("/campaign", func(r chi.Router) {
			r.Put("/config", h.HandleSetConfig)
			r.Post("/generate", h.HandleGenerate)
			r.Post("/back", h.HandleBackToConfig)

			r.Route("/runs/{runID}", func(r chi.Router) {
				r.Get("/", h.HandleGetRun)
				r.Post("/abort", h.HandleAbort)
				r.Get("/progress", h.HandleRunProgress)
				r.Get("/events", h.HandleRunEvents)
				r.Get("/export.csv", h.HandleExportRun)
				r.Put("/messages/{rowNumber}", h.HandleEditMessage)
			})
		})

		r.Route("/studio", func(r chi.Router) {
			r.Post("/content", h.HandleStudioContent)
		})
		r.Post("/leads/strategy", h.HandleLeadStrategy)
	})

	return r
}

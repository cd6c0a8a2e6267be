package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/bookings"
	"github.com/wayfarer-app/wayfarer/internal/observability"
	"github.com/wayfarer-app/wayfarer/internal/reviews"
	"github.com/wayfarer-app/wayfarer/internal/tours"
	"github.com/wayfarer-app/wayfarer/internal/users"
	"github.com/wayfarer-app/wayfarer/internal/web"
	"github.com/wayfarer-app/wayfarer/internal/web/assets"
	"github.com/wayfarer-app/wayfarer/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AuthMiddleware  auth.Middleware
	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	ToursHandler    *tours.Handler
	ReviewsHandler  *reviews.Handler
	BookingsHandler *bookings.Handler
	WebHandler      *web.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r, params.AuthMiddleware)
			params.UsersHandler.MountRoutes(r, params.AuthMiddleware)
		})
		r.Route("/tours", func(r chi.Router) {
			params.ToursHandler.MountRoutes(r, params.AuthMiddleware)
			r.Route("/{tourId}/reviews", func(r chi.Router) {
				params.ReviewsHandler.MountTourRoutes(r, params.AuthMiddleware)
			})
		})
		r.Route("/reviews", func(r chi.Router) {
			params.ReviewsHandler.MountRoutes(r, params.AuthMiddleware)
		})
		r.Route("/bookings", func(r chi.Router) {
			params.BookingsHandler.MountRoutes(r, params.AuthMiddleware)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	if params.WebHandler != nil {
		params.WebHandler.MountRoutes(r, params.AuthMiddleware)
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

package app

import (
	"net/http"
	"slices"
	"taskAPI/internal/docs"
	"taskAPI/internal/handlers"
	"taskAPI/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func (a *App) routes() *chi.Mux {
	taskHandler := handlers.NewTaskHandler(a.service)
	infoHandler := handlers.NewInfoHandler(a.config.App.Version, a.config.App.Description)

	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(a.corsHandler())
	r.Use(chimw.Timeout(a.config.Server.RequestTimeout))

	r.Get("/", infoHandler.Root)
	r.Get("/health", taskHandler.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/api-docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api-docs/index.html", http.StatusMovedPermanently)
	})
	r.Get("/api-docs/openapi.json", docs.Handler(a.config.App.Version, a.config.App.Description))
	r.Get("/api-docs/*", httpSwagger.Handler(httpSwagger.URL("/api-docs/openapi.json")))

	r.Route("/tasks", func(r chi.Router) {
		r.Use(middleware.RateLimit(a.limiter))

		r.Get("/", taskHandler.GetAllTasks) // GET /tasks
		r.Post("/", taskHandler.PostTask)   // POST /tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.GetTaskByID)       // GET /tasks/{id}
			r.Put("/", taskHandler.UpdateTaskByID)    // PUT /tasks/{id}
			r.Delete("/", taskHandler.DeleteTaskByID) // DELETE /tasks/{id}
		})
	})

	return r
}

// corsHandler: "*" в списке - отражаем любой Origin, чтобы работали credentials
func (a *App) corsHandler() func(http.Handler) http.Handler {
	origins := a.config.CORS.AllowedOrigins
	options := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	} else {
		options.AllowedOrigins = origins
	}
	return cors.Handler(options)
}

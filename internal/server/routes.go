package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.accessLog)
	r.Use(s.recoverer)
	r.Use(s.instrument)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Handler)

		r.Route("/todos", func(r chi.Router) {
			r.Post("/", s.createTodoHandler)
			r.Get("/", s.getAllTodosHandler)
			r.Get("/{id}", s.getTodoByIDHandler)
			r.Put("/{id}", s.updateTodoHandler)
			r.Delete("/{id}", s.deleteTodoHandler)
			r.Post("/{todoId}/tags", s.assignTagsHandler)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Post("/", s.createTagHandler)
			r.Get("/", s.getAllTagsHandler)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", s.createCategoryHandler)
			r.Get("/", s.getAllCategoriesHandler)
		})

		r.Route("/secrets", func(r chi.Router) {
			r.Get("/", s.listSecretsHandler)
			r.Post("/", s.createSecretHandler)
			r.Get("/{name}", s.getSecretHandler)
			r.Put("/{name}", s.updateSecretHandler)
			r.Delete("/{name}", s.deleteSecretHandler)
		})

		if s.filesEnabled {
			r.Route("/files", func(r chi.Router) {
				r.Post("/", s.uploadFileHandler)
				r.Get("/", s.listFilesHandler)
				r.Get("/presigned", s.openPresignedHandler)
				r.Get("/{id}", s.downloadFileHandler)
				r.Delete("/{id}", s.deleteFileHandler)
				r.Post("/{id}/presign", s.presignFileHandler)
			})
		}

		if s.notificationsEnabled {
			r.Route("/notifications", func(r chi.Router) {
				r.Post("/email", s.sendEmailHandler)
				r.Post("/sms", s.sendSMSHandler)
			})
		}
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	report := make(map[string]map[string]string, len(s.health))
	code := http.StatusOK
	for name, checker := range s.health {
		stats := checker.Health()
		report[name] = stats
		if name == "database" && stats["status"] == "down" {
			code = http.StatusServiceUnavailable
		}
	}
	respondWithJSON(w, code, report)
}

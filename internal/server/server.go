package server

import (
	"net/http"
	"time"

	"github.com/alfagnish/users-api/internal/config"
	"github.com/alfagnish/users-api/internal/handlers"
	usersmw "github.com/alfagnish/users-api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// New creates a fully-configured chi router with the user routes,
// middleware, and fallback handlers wired together.
func New(cfg *config.Config, svc handlers.UserService, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	// ── Middleware ───────────────────────────────────────────
	r.Use(requestLogger(log))
	r.Use(usersmw.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(usersmw.JSONContentType)

	// ── Routes ──────────────────────────────────────────────
	usersH := handlers.NewUsersHandler(svc, log)
	usersH.Routes(r)

	r.NotFound(usersH.NotFound)
	r.MethodNotAllowed(usersH.MethodNotAllowed)

	return r
}

// requestLogger logs each HTTP request with method, path, status code, and
// duration.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   status,
				"duration": time.Since(start).Round(time.Millisecond).String(),
			}).Info("request")
		})
	}
}

package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	appLogger "github.com/FACorreiaa/go-item-tracker/app/logger"
	appMiddleware "github.com/FACorreiaa/go-item-tracker/app/middleware"
	_ "github.com/FACorreiaa/go-item-tracker/docs"
	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/api/auth"
	"github.com/FACorreiaa/go-item-tracker/internal/api/health"
	"github.com/FACorreiaa/go-item-tracker/internal/api/item"
)

const msgTooManyRequests = "Too many requests."

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler    *auth.AuthHandler
	ItemHandler    *item.ItemHandler
	HealthHandler  *health.HealthHandler
	Verifier       auth.TokenVerifier
	Logger         *slog.Logger
	AllowedOrigins []string
	// AuthRateLimit caps register and login requests per client IP per minute.
	// Zero disables the limit.
	AuthRateLimit  int
	SwaggerEnabled bool
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

// SetupRouter initializes and configures the main application router,
// server-wide middleware included.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(appMiddleware.EchoRequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(appMiddleware.Recoverer(cfg.Logger))
	r.Use(middleware.StripSlashes)
	r.Use(otelhttp.NewMiddleware("item-tracker"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", cfg.HealthHandler.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.AuthRateLimit > 0 {
					r.Use(httprate.Limit(
						cfg.AuthRateLimit,
						time.Minute,
						httprate.WithKeyFuncs(httprate.KeyByIP),
						httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
							api.ErrorResponse(w, r, http.StatusTooManyRequests, msgTooManyRequests)
						}),
					))
				}
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/login", cfg.AuthHandler.Login)
			})

			r.With(auth.RequireAuth(cfg.Logger, cfg.Verifier)).Get("/me", cfg.AuthHandler.Me)
		})

		r.Route("/items", func(r chi.Router) {
			// Reads are public; the identity is attached when present.
			r.Group(func(r chi.Router) {
				r.Use(auth.OptionalAuth(cfg.Verifier))
				r.Get("/", cfg.ItemHandler.ListItems)
				r.Get("/{id}", cfg.ItemHandler.GetItem)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(cfg.Logger, cfg.Verifier))
				r.Post("/", cfg.ItemHandler.CreateItem)
				r.Put("/{id}", cfg.ItemHandler.UpdateItem)
				r.Delete("/{id}", cfg.ItemHandler.DeleteItem)
			})
		})
	})

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	if cfg.SwaggerEnabled {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	return r
}

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/config"
	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP routes and middleware. When a JWT secret is configured every
// /api route needs a staff or admin token and deletes need admin.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	shipments handler.ShipmentHandler,
	senders handler.PartyHandler,
	receivers handler.PartyHandler,
	charges handler.ChargeHandler,
	payments handler.PaymentHandler,
	dashboard handler.DashboardHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		health.RegisterRoutes(api)
		api.Group(func(pr chi.Router) {
			if cfg.JWTSecret != "" {
				pr.Use(AuthMiddleware(cfg.JWTSecret))
				pr.Use(RequireRole(domain.RoleAdmin, domain.RoleStaff))
				adminOnly := RequireRole(domain.RoleAdmin)
				shipments.DeleteMiddleware = adminOnly
				senders.DeleteMiddleware = adminOnly
				receivers.DeleteMiddleware = adminOnly
				charges.DeleteMiddleware = adminOnly
				payments.DeleteMiddleware = adminOnly
			} else {
				logger.Warn("JWT_SECRET not set, /api routes are unauthenticated")
			}
			shipments.RegisterRoutes(pr)
			senders.RegisterRoutes(pr)
			receivers.RegisterRoutes(pr)
			charges.RegisterRoutes(pr)
			payments.RegisterRoutes(pr)
			dashboard.RegisterRoutes(pr)
		})
	})

	return r
}

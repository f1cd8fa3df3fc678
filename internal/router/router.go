package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tapas-pos/api/internal/config"
	"github.com/tapas-pos/api/internal/database"
	"github.com/tapas-pos/api/internal/handler"
	mw "github.com/tapas-pos/api/internal/middleware"
	"github.com/tapas-pos/api/internal/service"
	"github.com/tapas-pos/api/internal/session"
	"github.com/tapas-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Recoverer)
	r.Use(mw.RequestLogger)
	r.Use(mw.Metrics)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Order service shared by the REST handlers and the cart sessions.
	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, queries, newOrderStore)
	manager := session.NewManager(orderService)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		customerHandler := handler.NewCustomerHandler(queries)
		customerHandler.RegisterRoutes(r)

		menuHandler := handler.NewMenuHandler(queries)
		menuHandler.RegisterRoutes(r)

		staffHandler := handler.NewStaffHandler(queries)
		staffHandler.RegisterRoutes(r)

		orderHandler := handler.NewOrderHandler(orderService, hub)
		orderHandler.RegisterRoutes(r)

		cartHandler := handler.NewCartHandler(manager, queries, hub)
		cartHandler.RegisterRoutes(r)
	})

	slog.Info("router initialized")
	return r
}

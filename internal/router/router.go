package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mesa-pos/api/internal/config"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/handler"
	"github.com/mesa-pos/api/internal/logger"
	mw "github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/ws"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New creates a Chi router with all application routes wired up.
// Three surfaces: /public for unauthenticated customer devices (QR code
// flows), /restaurants for authenticated staff, and the platform routes for
// SUPERADMIN.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mw.Metrics)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})
	r.Handle("/metrics", promhttp.Handler())

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/restaurants/{rid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	orderHandler := handler.NewOrderHandler(orderService, queries, hub)
	menuHandler := handler.NewMenuHandler(queries)
	callHandler := handler.NewCallHandler(queries, hub)
	ratingHandler := handler.NewRatingHandler(queries)

	// Customer-facing routes: no login, reachable from the table QR code.
	// Blocked restaurants are cut off here too.
	r.Route("/public/restaurants/{rid}", func(r chi.Router) {
		r.Use(mw.RequireRestaurantActive(queries))

		r.Route("/menu", menuHandler.RegisterPublicRoutes)
		r.Route("/orders", orderHandler.RegisterPublicRoutes)
		r.Route("/calls", callHandler.RegisterPublicRoutes)
		r.Route("/ratings", ratingHandler.RegisterPublicRoutes)
	})

	// Staff routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Platform routes (SUPERADMIN only)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleSuperAdmin))

			restaurantHandler := handler.NewRestaurantHandler(queries, pool, func(db database.DBTX) handler.RestaurantTxStore {
				return database.New(db)
			})
			r.Post("/restaurants", restaurantHandler.Create)
			r.Get("/restaurants", restaurantHandler.List)
			r.Post("/restaurants/{rid}/block", restaurantHandler.Block)
			r.Post("/restaurants/{rid}/unblock", restaurantHandler.Unblock)
		})

		// Restaurant-scoped routes
		r.Route("/restaurants/{rid}", func(r chi.Router) {
			r.Use(mw.RequireRestaurant)
			r.Use(mw.RequireRestaurantActive(queries))

			restaurantHandler := handler.NewRestaurantHandler(queries, pool, func(db database.DBTX) handler.RestaurantTxStore {
				return database.New(db)
			})
			r.Get("/", restaurantHandler.Get)

			tableHandler := handler.NewTableHandler(queries)
			r.Route("/tables", tableHandler.RegisterRoutes)

			r.Route("/menu", menuHandler.RegisterRoutes)

			r.Route("/orders", orderHandler.RegisterRoutes)

			kitchenHandler := handler.NewKitchenHandler(queries, hub)
			r.Route("/kitchen/tickets", kitchenHandler.RegisterRoutes)

			r.Route("/calls", callHandler.RegisterRoutes)

			r.Route("/ratings", ratingHandler.RegisterRoutes)

			staffHandler := handler.NewStaffHandler(queries)
			r.Route("/staff", staffHandler.RegisterRoutes)
		})
	})

	logger.L().Info("router initialized")
	return r
}

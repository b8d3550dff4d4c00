package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vinylvault/vinylvault/internal/auth"
	"github.com/vinylvault/vinylvault/internal/cart"
	handler "github.com/vinylvault/vinylvault/internal/handler/http"
	"github.com/vinylvault/vinylvault/internal/order"
	"github.com/vinylvault/vinylvault/internal/record"
	"github.com/vinylvault/vinylvault/internal/user"
)

// NewRouter wires repositories, services and handlers onto one chi router.
func NewRouter(pool *pgxpool.Pool, tokens *auth.TokenManager) *chi.Mux {
	userService := user.NewService(user.NewRepository(pool))
	recordService := record.NewService(record.NewRepository(pool))
	cartService := cart.NewService(cart.NewRepository(pool))
	orderService := order.NewService(order.NewRepository(pool))

	authHandler := handler.NewAuthHandler(userService, tokens)
	recordHandler := handler.NewRecordHandler(recordService)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(orderService)
	adminHandler := handler.NewAdminHandler(recordService, orderService)

	authenticate := handler.Authenticate(tokens)
	requireAdmin := handler.RequireAdmin(userService)

	r := chi.NewRouter()
	r.Use(handler.RequestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(router chi.Router) {
			authHandler.RegisterRoutes(router, authenticate)
		})

		api.Route("/records", func(router chi.Router) {
			recordHandler.RegisterRoutes(router, authenticate)
		})

		api.Route("/cart", func(router chi.Router) {
			router.Use(authenticate)
			cartHandler.RegisterRoutes(router)
		})

		api.Route("/orders", func(router chi.Router) {
			router.Use(authenticate)
			orderHandler.RegisterRoutes(router)
		})

		api.Route("/admin", func(router chi.Router) {
			router.Use(authenticate, requireAdmin)
			adminHandler.RegisterRoutes(router)
		})
	})

	return r
}

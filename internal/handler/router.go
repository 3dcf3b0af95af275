package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	custommiddleware "github.com/ashevelev/shoppoints/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса shoppoints.
func (h *Handler) SetupRouter(corsOrigin string, metrics *custommiddleware.Metrics) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	if metrics != nil {
		r.Use(metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/token", h.Token)
		r.Get("/verify-token/{token}", h.VerifyToken)
		r.Post("/logout", h.Logout)

		r.Get("/users", h.ListUsers)
		r.Delete("/users", h.DeleteAllUsers)
		r.Delete("/users/{userID}", h.DeleteUser)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/users/me", h.CurrentUser)
		})
	})

	r.Route("/product", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)
		r.Get("/{productID}", h.GetProduct)
		r.Put("/{productID}", h.UpdateProduct)
		r.Delete("/{productID}", h.DeleteProduct)
	})

	r.Route("/billboards", func(r chi.Router) {
		r.Post("/", h.CreateBillboard)
		r.Get("/", h.ListBillboards)
		r.Get("/{billboardID}", h.GetBillboard)
		r.Put("/{billboardID}", h.UpdateBillboard)
		r.Delete("/{billboardID}", h.DeleteBillboard)
	})

	r.Route("/order", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{orderID}", h.GetOrder)
		r.Delete("/{orderID}", h.DeleteOrder)
	})

	r.Route("/points", func(r chi.Router) {
		r.Post("/add", h.AddPoints)
		r.Post("/redeem", h.RedeemPoints)
		r.Get("/{userID}", h.GetPoints)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

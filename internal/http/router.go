package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aliabbasi2000/ezelectronics/internal/auth"
	"github.com/aliabbasi2000/ezelectronics/internal/user"
)

// NewRouter wires every handler under the /ezelectronics service root.
// Authentication and role gating happen here; handlers assume the principal
// has already been resolved and authorized.
func NewRouter(jwtService *auth.JWTService, users *UserHandler, products *ProductHandler, carts *CartHandler, reviews *ReviewHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)

	requireAuth := RequireAuth(jwtService)
	customerOnly := RequireRole(user.RoleCustomer)
	staffOnly := RequireRole(user.RoleAdmin, user.RoleManager)
	adminOnly := RequireRole(user.RoleAdmin)

	r.Route("/ezelectronics", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", users.Create)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.With(adminOnly).Get("/", users.List)
				r.With(adminOnly).Get("/roles/{role}", users.ListByRole)
				r.With(adminOnly).Delete("/", users.DeleteAll)
				r.Get("/{username}", users.Get)
				r.Patch("/{username}", users.Update)
				r.Delete("/{username}", users.Delete)
			})
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", users.Login)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Delete("/current", users.Logout)
				r.Get("/current", users.CurrentSession)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Use(requireAuth)

			r.Group(func(r chi.Router) {
				r.Use(staffOnly)
				r.Post("/", products.Register)
				r.Get("/", products.List)
				r.Patch("/{model}", products.Restock)
				r.Patch("/{model}/sell", products.Sell)
				r.Delete("/{model}", products.Delete)
				r.Delete("/", products.DeleteAll)
			})

			r.Get("/available", products.ListAvailable)
		})

		r.Route("/carts", func(r chi.Router) {
			r.Use(requireAuth)

			r.Group(func(r chi.Router) {
				r.Use(customerOnly)
				r.Get("/", carts.GetCurrent)
				r.Post("/", carts.AddProduct)
				r.Patch("/", carts.Checkout)
				r.Get("/history", carts.History)
				r.Delete("/products/{model}", carts.RemoveProduct)
				r.Delete("/current", carts.Clear)
			})

			r.Group(func(r chi.Router) {
				r.Use(staffOnly)
				r.Delete("/", carts.DeleteAll)
				r.Get("/all", carts.All)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(requireAuth)

			r.With(customerOnly).Post("/{model}", reviews.Add)
			r.Get("/{model}", reviews.List)
			r.With(customerOnly).Delete("/{model}", reviews.Delete)
			r.With(staffOnly).Delete("/{model}/all", reviews.DeleteForProduct)
			r.With(staffOnly).Delete("/", reviews.DeleteAll)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "service": "ezelectronics"}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

package http

import (
	"net/http"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/go-chi/chi/v5"
)

func baseRouter(auth Authenticator, lgr logger.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(lgr))
	r.Use(RecoveryMiddleware(lgr))
	r.Use(AuthMiddleware(auth, lgr))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// NewStorefrontRouter serves the customer API. tracking may be nil when the
// tracking service runs as its own process.
func NewStorefrontRouter(store *StorefrontHandler, account *AccountHandler, tracking *TrackingHandler, auth Authenticator, lgr logger.Logger) http.Handler {
	r := baseRouter(auth, lgr)

	r.Route("/api", func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Get("/products", store.ListProducts)
		r.Get("/products/popular", store.PopularProducts)
		r.Get("/products/{id}", store.GetProduct)

		r.Get("/cart", store.GetCart)
		r.Delete("/cart", store.ClearCart)
		r.Post("/cart/items", store.AddItem)
		r.Patch("/cart/items/{lineID}", store.UpdateItem)
		r.Delete("/cart/items/{lineID}", store.RemoveItem)
		r.Post("/cart/gift-card", store.ApplyGiftCard)
		r.Delete("/cart/gift-card", store.RemoveGiftCard)
		r.Post("/checkout", store.Checkout)

		r.Get("/gift-cards/{code}", store.GiftCardBalance)
		r.Post("/gift-cards", store.SendGiftCard)

		r.Post("/table/scan", store.ScanTable)
		r.Get("/table", store.GetTable)
		r.Delete("/table", store.ClearTable)
		r.Delete("/session", store.CloseSession)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", account.Register)
			r.Post("/signup", account.Register)
			r.Post("/login", account.Login)
			r.Post("/signin", account.Login)
			r.Post("/logout", account.Logout)
			r.With(RequireRole()).Get("/user", account.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(RequireRole())
			r.With(RequireRole(domain.RoleOwner)).Get("/", account.ListUsers)
			r.Get("/{id}", account.GetUser)
			r.Put("/{id}", account.UpdateUser)
			r.With(RequireRole(domain.RoleOwner)).Delete("/{id}", account.DeleteUser)
		})

		r.Route("/loyalty", func(r chi.Router) {
			r.Get("/levels", account.LoyaltyLevels)
			r.Get("/rewards", account.LoyaltyRewards)
			r.With(RequireRole()).Get("/", account.LoyaltySummary)
			r.With(RequireRole()).Put("/birthday-reminder", account.SetBirthdayReminder)
			r.With(RequireRole(domain.RoleOwner)).Post("/{userID}/points", account.AwardPoints)
		})
	})

	if tracking != nil {
		mountTracking(r, tracking)
	}
	return r
}

func NewTrackingRouter(tracking *TrackingHandler, auth Authenticator, lgr logger.Logger) http.Handler {
	r := baseRouter(auth, lgr)
	mountTracking(r, tracking)
	return r
}

func mountTracking(r chi.Router, h *TrackingHandler) {
	r.Get("/orders/{number}/status", h.GetOrderStatus)
	r.Get("/orders/{number}/history", h.GetOrderHistory)

	r.Group(func(r chi.Router) {
		r.Use(RequireRole(domain.RoleWorker, domain.RoleOwner))
		r.Get("/orders", h.ListOrders)
		r.Put("/orders/{number}/status", h.UpdateOrderStatus)
		r.Get("/workers/status", h.GetBaristasStatus)
		r.Get("/dashboard", h.Dashboard)
	})
}

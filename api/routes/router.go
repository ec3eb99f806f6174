package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telemart/storefront-gateway/api/controllers"
	"github.com/telemart/storefront-gateway/api/middleware"
	"github.com/telemart/storefront-gateway/internal/cart"
	checkoutsvc "github.com/telemart/storefront-gateway/internal/checkout"
	"github.com/telemart/storefront-gateway/internal/nav"
	"github.com/telemart/storefront-gateway/internal/notify"
	prefsvc "github.com/telemart/storefront-gateway/internal/prefs"
	"github.com/telemart/storefront-gateway/pkg/config"
	"github.com/telemart/storefront-gateway/pkg/logger"
	"github.com/telemart/storefront-gateway/pkg/telegram"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Validator *telegram.Validator

	Catalog  controllers.Catalog
	Orders   controllers.Orders
	Profile  controllers.Profile
	Carts    *cart.Manager
	Toasts   *notify.Registry
	Nav      *nav.Store
	Checkout checkoutsvc.Service
	Prefs    prefsvc.Service

	ReadyChecks map[string]controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.TelegramAuth(deps.Validator, logg))

		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/products/{id}", controllers.GetProduct(deps.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
		r.Get("/tags", controllers.ListTags(deps.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Carts, deps.Toasts, logg))
			r.Delete("/", controllers.ClearCart(deps.Carts, deps.Toasts, logg))
			r.Post("/items", controllers.AddCartItem(deps.Carts, deps.Toasts, logg))
			r.Put("/items/{productID}", controllers.UpdateCartItem(deps.Carts, deps.Toasts, logg))
			r.Delete("/items/{productID}", controllers.RemoveCartItem(deps.Carts, deps.Toasts, logg))
		})

		r.Post("/checkout", controllers.SubmitCheckout(deps.Checkout, deps.Carts, deps.Toasts, logg))
		r.Post("/coupons/validate", controllers.ApplyCoupon(deps.Checkout, deps.Carts, deps.Toasts, logg))

		r.Get("/orders/my", controllers.ListMyOrders(deps.Orders, logg))
		r.Get("/orders/{id}", controllers.GetOrder(deps.Orders, logg))

		r.Get("/customers/me", controllers.GetMe(deps.Profile, logg))
		r.Put("/customers/me", controllers.UpdateMe(deps.Profile, logg))
		r.Post("/users/register", controllers.Register(deps.Profile, logg))

		r.Route("/navigation", func(r chi.Router) {
			r.Get("/", controllers.GetHistory(deps.Nav, logg))
			r.Post("/visit", controllers.RecordVisit(deps.Nav, logg))
			r.Post("/back", controllers.NavigateBack(deps.Nav, logg))
			r.Post("/reset", controllers.ResetHistory(deps.Nav, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Toasts, logg))
			r.Delete("/{id}", controllers.DismissNotification(deps.Toasts, logg))
		})

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", controllers.GetPreferences(deps.Prefs, logg))
			r.Post("/write-access-asked", controllers.MarkWriteAccessAsked(deps.Prefs, logg))
			r.Put("/language", controllers.SetLanguage(deps.Prefs, logg))
		})
	})

	return r
}

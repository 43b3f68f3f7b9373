package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/multimart/multimart-backend/api/controllers"
	"github.com/multimart/multimart-backend/api/middleware"
	cartsvc "github.com/multimart/multimart-backend/internal/cart"
	checkoutsvc "github.com/multimart/multimart-backend/internal/checkout"
	"github.com/multimart/multimart-backend/internal/orders"
	"github.com/multimart/multimart-backend/internal/products"
	"github.com/multimart/multimart-backend/pkg/config"
	"github.com/multimart/multimart-backend/pkg/db"
	"github.com/multimart/multimart-backend/pkg/logger"
	"github.com/multimart/multimart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redis.Pinger,
	cartManager *cartsvc.Manager,
	checkoutService checkoutsvc.Service,
	productsRepo products.Repository,
	ordersRepo orders.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(productsRepo, logg))
		r.Get("/{id}", controllers.ProductGet(productsRepo, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartManager, logg))
			r.Post("/items", controllers.CartAdd(cartManager, logg))
			r.Delete("/items/{key}", controllers.CartRemove(cartManager, logg))
			r.Patch("/items/{key}/quantity", controllers.CartQuantity(cartManager, logg))
			r.Patch("/items/{key}/customization", controllers.CartCustomize(cartManager, logg))
			r.Post("/items/{key}/toggle", controllers.CartToggle(cartManager, logg))
			r.Post("/select-all", controllers.CartSelectAll(cartManager, logg))
			r.Post("/deselect-all", controllers.CartDeselectAll(cartManager, logg))
			r.Delete("/", controllers.CartClear(cartManager, logg))
			r.Delete("/notification", controllers.CartNotificationDismiss(cartManager, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutStart(checkoutService, cartManager, logg))
			r.Get("/", controllers.CheckoutGet(checkoutService, logg))
			r.Patch("/items/{key}/customization", controllers.CheckoutCustomize(checkoutService, logg))
			r.Post("/advance", controllers.CheckoutAdvance(checkoutService, logg))
			r.Post("/back", controllers.CheckoutBack(checkoutService, logg))
			r.Delete("/", controllers.CheckoutCancel(checkoutService, logg))
			r.Post("/locate", controllers.CheckoutLocate(checkoutService, logg))
			r.Post("/submit", controllers.CheckoutSubmit(checkoutService, cartManager, logg))
			r.Post("/payment-callback", controllers.CheckoutPaymentCallback(checkoutService, cartManager, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{orderID}", controllers.OrderGet(ordersRepo, logg))
			r.Get("/", controllers.OrdersRecent(ordersRepo, logg))
		})
	})

	return r
}

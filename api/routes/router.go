package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/wholesale-backend/api/controllers"
	catalogcontrollers "github.com/angelmondragon/wholesale-backend/api/controllers/catalog"
	creditcontrollers "github.com/angelmondragon/wholesale-backend/api/controllers/credit"
	ordercontrollers "github.com/angelmondragon/wholesale-backend/api/controllers/orders"
	pricingcontrollers "github.com/angelmondragon/wholesale-backend/api/controllers/pricing"
	"github.com/angelmondragon/wholesale-backend/api/middleware"
	"github.com/angelmondragon/wholesale-backend/internal/accounts"
	"github.com/angelmondragon/wholesale-backend/internal/checkout"
	"github.com/angelmondragon/wholesale-backend/internal/ledger"
	"github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/redis"
)

// Services groups everything the HTTP layer dispatches to.
type Services struct {
	Accounts accounts.Service
	Checkout checkout.Service
	Orders   orders.Service
	Ledger   ledger.Service
	Catalog  catalogcontrollers.Reader
}

// Infra carries the shared clients the router needs for probes and middleware.
type Infra struct {
	Idempotency redis.IdempotencyStore
	Readiness   map[string]controllers.Pinger
	Metrics     prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services, infra Infra) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, infra.Readiness))
	})

	if infra.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.AccountRoleRetailer, logg))
		r.Use(middleware.RequireApprovedAccount(svc.Accounts, logg))
		r.Use(middleware.Idempotency(infra.Idempotency, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Place(svc.Checkout, logg))
			r.Get("/", ordercontrollers.List(svc.Orders, logg))
			r.Get("/reorder/last", ordercontrollers.ReorderLast(svc.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Get(svc.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogcontrollers.List(svc.Catalog, logg))
			r.Get("/{productId}", catalogcontrollers.Get(svc.Catalog, logg))
		})

		r.Route("/pricing", func(r chi.Router) {
			r.Post("/calculate", pricingcontrollers.Calculate(svc.Checkout, logg))
			r.Post("/cart-total", pricingcontrollers.CartTotal(svc.Checkout, logg))
		})

		r.Route("/credit", func(r chi.Router) {
			r.Get("/", creditcontrollers.Summary(svc.Ledger, logg))
			r.Get("/ledger", creditcontrollers.Ledger(svc.Ledger, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.AccountRoleAdmin, logg))
		r.Use(middleware.Idempotency(infra.Idempotency, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(svc.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Get(svc.Orders, logg))
			r.Patch("/{orderId}/status", ordercontrollers.AdminUpdateStatus(svc.Orders, logg))
		})

		r.Route("/accounts/{accountId}", func(r chi.Router) {
			r.Patch("/credit-limit", creditcontrollers.AdminSetCreditLimit(svc.Accounts, logg))
			r.Post("/payments", creditcontrollers.AdminRecordPayment(svc.Ledger, logg))
		})
	})

	return r
}

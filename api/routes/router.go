package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mealora/mealora-backend/api/controllers"
	"github.com/mealora/mealora-backend/api/middleware"
	"github.com/mealora/mealora-backend/internal/dispatch"
	"github.com/mealora/mealora-backend/internal/estimator"
	"github.com/mealora/mealora-backend/internal/orders"
	"github.com/mealora/mealora-backend/internal/payments"
	"github.com/mealora/mealora-backend/internal/presence"
	"github.com/mealora/mealora-backend/pkg/config"
	"github.com/mealora/mealora-backend/pkg/enums"
	"github.com/mealora/mealora-backend/pkg/logger"
	"github.com/mealora/mealora-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     *redis.Client
	Hub       *presence.Hub
	Orders    orders.Service
	Dispatch  dispatch.Service
	Estimator estimator.Service
	Payments  payments.Service
	Registry  *prometheus.Registry
}

// NewRouter assembles the HTTP surface.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	logg := deps.Logger

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.Healthz(deps.DB, deps.Redis, logg))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/webhooks/payment", controllers.PaymentWebhook(deps.Payments, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Config.JWT, logg))

			r.Get("/stream", controllers.Stream(deps.Hub, logg))
			r.Post("/estimates", controllers.EstimateFee(deps.Estimator, logg))

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.RequireRole(logg, enums.RoleCustomer)).Post("/", controllers.PlaceOrder(deps.Orders, logg))
				r.With(middleware.RequireRole(logg, enums.RoleCustomer)).Get("/", controllers.ListMyOrders(deps.Orders, logg))
				r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
				r.With(middleware.RequireRole(logg, enums.RoleManager, enums.RoleAdmin)).Post("/{orderID}/status", controllers.AdvanceOrderStatus(deps.Orders, logg))
			})

			r.Route("/courier", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleCourier))

				r.Get("/orders/available", controllers.ListClaimableOrders(deps.Orders, logg))
				r.With(middleware.ClaimRateLimit(deps.Config.RateLimit, deps.Redis, logg)).
					Post("/orders/{orderID}/claim", controllers.ClaimOrder(deps.Dispatch, logg))
				r.Post("/orders/{orderID}/pickup", controllers.ConfirmPickup(deps.Dispatch, logg))
				r.Post("/orders/{orderID}/delivery", controllers.ConfirmDelivery(deps.Dispatch, logg))
				r.Post("/location", controllers.PublishLocation(deps.Hub, logg))
			})
		})
	})

	return r
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/paygmeter-backend/api/controllers"
	"github.com/angelmondragon/paygmeter-backend/api/middleware"
	"github.com/angelmondragon/paygmeter-backend/internal/customers"
	"github.com/angelmondragon/paygmeter-backend/internal/fleets"
	"github.com/angelmondragon/paygmeter-backend/internal/items"
	"github.com/angelmondragon/paygmeter-backend/internal/payments"
	"github.com/angelmondragon/paygmeter-backend/internal/plans"
	"github.com/angelmondragon/paygmeter-backend/pkg/config"
	"github.com/angelmondragon/paygmeter-backend/pkg/db"
	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
	"github.com/angelmondragon/paygmeter-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	paymentsService payments.Service,
	itemsService items.Service,
	plansService plans.Service,
	fleetsService fleets.Service,
	customersService customers.Service,
) http.Handler {
	r := chi.NewRouter()

	// A typed nil *redis.Client must not sneak past interface nil checks
	// downstream.
	var redisP redis.Pinger
	var idemStore redis.IdempotencyStore
	if redisClient != nil {
		redisP = redisClient
		idemStore = redisClient
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.Idempotency(idemStore, cfg.Payments.IdempotencyTTL, logg))

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", controllers.PlanCreate(plansService, logg))
			r.Get("/", controllers.PlanList(plansService, logg))
			r.Post("/assign", controllers.PlanAssign(plansService, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Post("/", controllers.ItemCreate(itemsService, logg))
			r.Post("/bulk", controllers.ItemBulkCreate(itemsService, logg))
			r.Get("/", controllers.ItemList(itemsService, logg))
			r.Post("/assign-fleet", controllers.ItemAssignFleet(itemsService, logg))
			r.Post("/reassign-fleet", controllers.ItemReassignFleet(itemsService, logg))
			r.Route("/{itemId}", func(r chi.Router) {
				r.Get("/", controllers.ItemGet(itemsService, logg))
				r.Delete("/", controllers.ItemDelete(itemsService, logg))
				r.Post("/buy", controllers.ItemBuy(itemsService, logg))
				r.Get("/payments", controllers.PaymentHistory(paymentsService, logg))
				r.Get("/codes", controllers.PaymentCodes(paymentsService, logg))
			})
		})

		r.Route("/fleets", func(r chi.Router) {
			r.Post("/", controllers.FleetCreate(fleetsService, logg))
			r.Get("/", controllers.FleetList(fleetsService, logg))
			r.Post("/assign", controllers.FleetAssignAgent(fleetsService, logg))
			r.Post("/reassign", controllers.FleetReassignAgent(fleetsService, logg))
			r.Delete("/{fleetId}", controllers.FleetDelete(fleetsService, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.CustomerCreate(customersService, logg))
			r.Get("/", controllers.CustomerList(customersService, logg))
		})

		r.Post("/payments", controllers.PaymentSubmit(paymentsService, logg))
	})

	return r
}

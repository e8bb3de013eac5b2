package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/stockroom-backend/api/controllers"
	"github.com/angelmondragon/stockroom-backend/api/middleware"
	"github.com/angelmondragon/stockroom-backend/internal/catalog"
	"github.com/angelmondragon/stockroom-backend/internal/inventory"
	"github.com/angelmondragon/stockroom-backend/internal/movements"
	"github.com/angelmondragon/stockroom-backend/internal/orders"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/stockroom-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    controllers.DependencyPinger
	RedisPinger controllers.DependencyPinger
	Redis       pkgredis.IdempotencyStore
	Registry    *prometheus.Registry
	Inventory   inventory.Service
	Orders      orders.Service
	Catalog     catalog.Service
	Movements   movements.Service
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.DBPinger, deps.RedisPinger))
	})

	r.Get("/api/public/ping", controllers.PublicPing())

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, deps.Logger, deps.Config.Idempotency.TTL))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, deps.Logger))
			r.Get("/", controllers.ListOrders(deps.Orders, deps.Logger))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, deps.Logger))
			r.Post("/{orderId}/status", controllers.TransitionOrder(deps.Orders, deps.Logger))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, deps.Logger))
			r.Get("/{orderId}/movements", controllers.GetOrderMovements(deps.Orders, deps.Movements, deps.Logger))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.ListStock(deps.Inventory, deps.Logger))
			r.Post("/adjust", controllers.AdjustStock(deps.Inventory, deps.Logger))
			r.Get("/low-stock", controllers.ListLowStock(deps.Inventory, deps.Logger))
			r.Get("/movements", controllers.ListStockMovements(deps.Inventory, deps.Logger))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(deps.Catalog, deps.Logger))
			r.Get("/", controllers.ListProducts(deps.Catalog, deps.Logger))
			r.Get("/{productId}", controllers.GetProduct(deps.Catalog, deps.Logger))
			r.Patch("/{productId}", controllers.UpdateProduct(deps.Catalog, deps.Logger))
		})

		r.Route("/warehouses", func(r chi.Router) {
			r.Post("/", controllers.CreateWarehouse(deps.Catalog, deps.Logger))
			r.Get("/", controllers.ListWarehouses(deps.Catalog, deps.Logger))
			r.Get("/{warehouseId}", controllers.GetWarehouse(deps.Catalog, deps.Logger))
			r.Patch("/{warehouseId}", controllers.UpdateWarehouse(deps.Catalog, deps.Logger))
		})
	})

	return r
}

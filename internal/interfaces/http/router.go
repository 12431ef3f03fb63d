package http

import (
	nethttp "net/http"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/inventario-ledger/internal/application/adjustment"
	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/catalog"
	"github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/application/pos"
	"github.com/jhoicas/inventario-ledger/internal/application/purchasing"
)

// MetricsExporter expone /metrics y mide cada request.
type MetricsExporter interface {
	RequestRecorder
	Handler() nethttp.Handler
}

// AppConfig opciones del servidor fiber.
type AppConfig struct {
	Name         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SwaggerPath  string // se monta /docs solo si el archivo existe
}

// NewApp crea la aplicación fiber con recover, manejo de errores, métricas, /health y swagger.
func NewApp(cfg AppConfig, metrics MetricsExporter) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: ErrorHandler,
	})
	app.Use(recover.New())

	if metrics != nil {
		app.Use(MetricsMiddleware(metrics))
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	}

	if cfg.SwaggerPath != "" {
		if _, err := os.Stat(cfg.SwaggerPath); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.SwaggerPath,
				Path:     "docs",
				Title:    cfg.Name,
			}))
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.Name})
	})
	return app
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger     *ledger.UseCase
	Catalog    *catalog.UseCase
	Purchasing *purchasing.UseCase
	Adjustment *adjustment.UseCase
	POS        *pos.UseCase
	Audit      *audit.UseCase
	JWTSecret  string
}

// Router registra las rutas de la API. Todas requieren Bearer Token: el actor sale del claim user_id.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.Catalog, deps.Ledger)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Get("/:id/stock", productHandler.Stock)

	ledgerHandler := NewLedgerHandler(deps.Ledger)
	api.Post("/ledger/movements", ledgerHandler.ApplyMovement)

	orders := api.Group("/purchase-orders")
	orderHandler := NewPurchaseOrderHandler(deps.Purchasing)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Put("/:id/items", orderHandler.UpdateItems)
	orders.Post("/:id/transitions", orderHandler.Transition)

	adjustments := api.Group("/adjustments")
	adjustmentHandler := NewAdjustmentHandler(deps.Adjustment)
	adjustments.Post("/", adjustmentHandler.Create)
	adjustments.Get("/", adjustmentHandler.List)
	adjustments.Get("/:id", adjustmentHandler.GetByID)
	adjustments.Post("/:id/approve", adjustmentHandler.Approve)
	adjustments.Post("/:id/reject", adjustmentHandler.Reject)

	posGroup := api.Group("/pos")
	posHandler := NewPOSHandler(deps.POS)
	posGroup.Post("/checkout", posHandler.Checkout)
	posGroup.Get("/sales/:id", posHandler.GetSale)

	auditGroup := api.Group("/audit")
	auditHandler := NewAuditHandler(deps.Audit)
	auditGroup.Get("/movements", auditHandler.Movements)
	auditGroup.Get("/transitions", auditHandler.Transitions)
	auditGroup.Get("/products/:id/explain", auditHandler.Explain)
	auditGroup.Get("/reorder", auditHandler.Reorder)
}

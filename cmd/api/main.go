package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/adjustment"
	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/catalog"
	"github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/application/pos"
	"github.com/jhoicas/inventario-ledger/internal/application/purchasing"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/events"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Almacenamiento: repos para lecturas fuera de transacción + runner de la unidad atómica.
	var (
		repos    ledger.TxRepos
		txRunner ledger.TxRunner
	)
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		store := memory.NewStore()
		repos, txRunner = store.Repos(), store
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.EnsureSchema(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("esquema de base de datos")
			}
		}
		repos, txRunner = postgres.Repos(pool), postgres.NewTxRunner(pool, cfg.DB.LockTimeout)
	}

	m := metrics.New("inventario")

	var publisher ledger.EventPublisher = ledger.NopPublisher{}
	if cfg.Kafka.Enabled() {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Source)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar publicador kafka")
			}
		}()
		publisher = kafkaPublisher
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("eventos del ledger hacia kafka")
	}

	defaultRate, err := decimal.NewFromString(cfg.Tax.DefaultRate)
	if err != nil {
		log.Fatal().Err(err).Msg("TAX_DEFAULT_RATE inválido")
	}
	branchRates, err := pos.ParseBranchRates(cfg.Tax.BranchRates)
	if err != nil {
		log.Fatal().Err(err).Msg("TAX_BRANCH_RATES inválido")
	}

	retry := ledger.RetryPolicy{
		MaxAttempts:         cfg.Ledger.MaxAttempts,
		InitialInterval:     cfg.Ledger.InitialInterval,
		MaxInterval:         cfg.Ledger.MaxInterval,
		RandomizationFactor: cfg.Ledger.Jitter,
	}
	ledgerUC := ledger.NewUseCase(txRunner, repos.Products, publisher, m, retry, log.Component("ledger"))
	catalogUC := catalog.NewUseCase(repos.Products)
	purchasingUC := purchasing.NewUseCase(ledgerUC, repos.PurchaseOrders, repos.Products, m)
	adjustmentUC := adjustment.NewUseCase(ledgerUC, repos.Adjustments, repos.Products, m)
	posUC := pos.NewUseCase(ledgerUC, repos.Products, repos.Sales, pos.StaticTaxRates{Default: defaultRate, ByBranch: branchRates}, m)
	auditUC := audit.NewUseCase(repos.Products, repos.Movements, repos.Transitions, cfg.Audit.PageSize)

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:         cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		SwaggerPath:  cfg.HTTP.SwaggerPath,
	}, m)
	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:     ledgerUC,
		Catalog:    catalogUC,
		Purchasing: purchasingUC,
		Adjustment: adjustmentUC,
		POS:        posUC,
		Audit:      auditUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/application/pos"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

type RepositoryIntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	repos     ledger.TxRepos
	ledger    *ledger.UseCase
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcpostgres.Run(s.ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("inventario_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	pool, err := postgres.NewPool(s.ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 16})
	s.Require().NoError(err)
	s.pool = pool

	// dos veces: el esquema debe ser idempotente
	s.Require().NoError(postgres.EnsureSchema(s.ctx, pool))
	s.Require().NoError(postgres.EnsureSchema(s.ctx, pool))

	s.repos = postgres.Repos(pool)
	policy := ledger.RetryPolicy{MaxAttempts: 20, InitialInterval: time.Millisecond, MaxInterval: 20 * time.Millisecond, RandomizationFactor: 0.5}
	s.ledger = ledger.NewUseCase(postgres.NewTxRunner(pool, 2*time.Second), s.repos.Products, nil, nil, policy, zerolog.Nop())
}

func (s *RepositoryIntegrationTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.Require().NoError(testcontainers.TerminateContainer(s.container))
	}
}

func (s *RepositoryIntegrationTestSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE products, stock_movements, purchase_orders, purchase_order_items,
		stock_adjustments, sales, sale_items, status_transitions CASCADE`)
	s.Require().NoError(err)
}

func TestRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}

func (s *RepositoryIntegrationTestSuite) createProduct(id string, stock int64) {
	now := time.Now().UTC()
	s.Require().NoError(s.repos.Products.Create(s.ctx, &entity.Product{
		ID:           id,
		SKU:          "SKU-" + id,
		Name:         "Producto " + id,
		Stock:        stock,
		InitialStock: stock,
		BuyPrice:     decimal.RequireFromString("4.50"),
		SellPrice:    decimal.NewFromInt(10),
		AvgCost:      decimal.RequireFromString("4.50"),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func (s *RepositoryIntegrationTestSuite) stock(id string) int64 {
	p, err := s.repos.Products.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(p)
	return p.Stock
}

func manual(productID string, dir entity.Direction, qty int64) ledger.MovementCommand {
	return ledger.MovementCommand{
		ProductID: productID,
		Direction: dir,
		Quantity:  qty,
		Reason:    "conteo",
		CausedBy:  entity.Cause{Type: entity.CauseManual, ID: "m-" + productID},
		Actor:     "u1",
	}
}

func (s *RepositoryIntegrationTestSuite) TestProductRepo_RoundTripConDecimales() {
	s.createProduct("p1", 7)

	p, err := s.repos.Products.GetByID(s.ctx, "p1")
	s.Require().NoError(err)
	s.Require().NotNil(p)
	s.Equal(int64(7), p.Stock)
	s.True(p.BuyPrice.Equal(decimal.RequireFromString("4.5")), "buy price %s", p.BuyPrice)

	missing, err := s.repos.Products.GetByID(s.ctx, "no-existe")
	s.NoError(err)
	s.Nil(missing)
}

func (s *RepositoryIntegrationTestSuite) TestProductRepo_SKUDuplicado() {
	s.createProduct("p1", 1)

	err := s.repos.Products.Create(s.ctx, &entity.Product{ID: "p2", SKU: "SKU-p1", Name: "otro", Version: 1})
	s.ErrorIs(err, domain.ErrDuplicate)
}

func (s *RepositoryIntegrationTestSuite) TestProductRepo_UpdateStockCompareAndSwap() {
	s.createProduct("p1", 5)

	s.Require().NoError(s.repos.Products.UpdateStock(s.ctx, "p1", 6, decimal.NewFromInt(4), 1))

	err := s.repos.Products.UpdateStock(s.ctx, "p1", 9, decimal.NewFromInt(4), 1)
	s.ErrorIs(err, domain.ErrConcurrencyConflict)

	p, err := s.repos.Products.GetByID(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(int64(6), p.Stock)
	s.Equal(int64(2), p.Version)
}

func (s *RepositoryIntegrationTestSuite) TestProductRepo_CheckRechazaStockNegativo() {
	s.createProduct("p1", 5)

	err := s.repos.Products.UpdateStock(s.ctx, "p1", -1, decimal.Zero, 1)
	s.ErrorIs(err, domain.ErrPersistence)
	s.Equal(int64(5), s.stock("p1"))
}

func (s *RepositoryIntegrationTestSuite) TestLedger_SalidasConcurrentesNuncaDejanStockNegativo() {
	s.createProduct("p1", 5)

	const workers = 8
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ledger.ApplyMovement(s.ctx, manual("p1", entity.DirectionDecrease, 1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConcurrencyConflict):
				rejected++
			default:
				s.Failf("error inesperado", "%v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(5, ok)
	s.Equal(workers-5, rejected)
	s.Equal(int64(0), s.stock("p1"))

	totals, err := s.repos.Movements.Totals(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(int64(5), totals.Count)
	s.Equal(int64(-5), totals.Net())
}

func (s *RepositoryIntegrationTestSuite) TestMovementRepo_PaginacionPorLlave() {
	s.createProduct("p1", 0)
	for i := 0; i < 5; i++ {
		_, err := s.ledger.ApplyMovement(s.ctx, manual("p1", entity.DirectionIncrease, 1))
		s.Require().NoError(err)
	}

	var (
		all    []entity.Movement
		cursor *repository.PageCursor
	)
	for {
		page, err := s.repos.Movements.ListPage(s.ctx, repository.MovementFilter{ProductID: "p1"}, cursor, 2)
		s.Require().NoError(err)
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		last := page[len(page)-1]
		cursor = &repository.PageCursor{At: last.CreatedAt, ID: last.ID}
	}

	s.Require().Len(all, 5)
	seen := make(map[string]bool)
	for i, m := range all {
		s.False(seen[m.ID], "movimiento repetido %s", m.ID)
		seen[m.ID] = true
		if i > 0 {
			s.False(m.CreatedAt.After(all[i-1].CreatedAt), "orden descendente")
		}
	}
	s.Equal(int64(5), all[0].QuantityAfter)
	s.Equal(int64(1), all[4].QuantityAfter)
}

func (s *RepositoryIntegrationTestSuite) TestPurchaseOrderRepo_ItemsYCompareAndSwap() {
	s.createProduct("p1", 0)
	now := time.Now().UTC()
	po := &entity.PurchaseOrder{
		ID:         "po-1",
		PONumber:   "PO-20260101-AAAA0001",
		SupplierID: "sup-1",
		Status:     entity.POStatusPending,
		OrderDate:  now,
		Items: []entity.PurchaseOrderItem{
			{ID: "i1", ProductID: "p1", Name: "Producto p1", Quantity: 5, UnitCost: decimal.NewFromInt(100)},
			{ID: "i2", Name: "Flete", Quantity: 1, UnitCost: decimal.NewFromInt(30)},
		},
		CreatedBy: "u1",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	po.Recalculate()
	s.Require().NoError(s.repos.PurchaseOrders.Create(s.ctx, po))

	got, err := s.repos.PurchaseOrders.GetByID(s.ctx, "po-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Require().Len(got.Items, 2)
	s.Equal("p1", got.Items[0].ProductID)
	s.False(got.Items[1].AffectsStock())
	s.True(got.TotalAmount.Equal(decimal.NewFromInt(530)), "total %s", got.TotalAmount)
	s.True(got.TotalsConsistent())

	got.Status = entity.POStatusApproved
	s.Require().NoError(s.repos.PurchaseOrders.UpdateStatus(s.ctx, got, 1))
	s.Equal(int64(2), got.Version)

	got.Status = entity.POStatusCancelled
	err = s.repos.PurchaseOrders.UpdateStatus(s.ctx, got, 1)
	s.ErrorIs(err, domain.ErrConcurrencyConflict)

	dup := *po
	dup.ID = "po-2"
	dup.Items = nil
	s.ErrorIs(s.repos.PurchaseOrders.Create(s.ctx, &dup), domain.ErrDuplicate)
}

func (s *RepositoryIntegrationTestSuite) TestCheckout_LineaFallidaRevierteTodo() {
	s.createProduct("a", 5)
	s.createProduct("b", 1)
	uc := pos.NewUseCase(s.ledger, s.repos.Products, s.repos.Sales, pos.StaticTaxRates{Default: decimal.RequireFromString("0.19")}, nil)

	_, err := uc.Checkout(s.ctx, "cajero", dto.CheckoutRequest{
		BranchID:      "b1",
		PaymentMethod: entity.PaymentCash,
		Items: []dto.CheckoutItemRequest{
			{ProductID: "a", Quantity: 2},
			{ProductID: "b", Quantity: 3},
		},
	})
	s.ErrorIs(err, domain.ErrInsufficientStock)
	s.Equal(int64(5), s.stock("a"))
	s.Equal(int64(1), s.stock("b"))

	receipt, err := uc.Checkout(s.ctx, "cajero", dto.CheckoutRequest{
		BranchID:      "b1",
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.CheckoutItemRequest{{ProductID: "a", Quantity: 2}},
	})
	s.Require().NoError(err)
	s.Equal(int64(3), s.stock("a"))
	s.True(receipt.Total.Equal(decimal.RequireFromString("23.8")), "total %s", receipt.Total)

	sale, err := s.repos.Sales.GetByID(s.ctx, receipt.SaleID)
	s.Require().NoError(err)
	s.Require().NotNil(sale)
	s.Len(sale.Items, 1)

	totals, err := s.repos.Movements.Totals(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal(int64(1), totals.Count)
}

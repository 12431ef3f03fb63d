package pos_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/application/pos"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

type fixture struct {
	repos ledger.TxRepos
	uc    *pos.UseCase
}

func newFixture(t *testing.T, stocks map[string]int64) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	policy := ledger.RetryPolicy{MaxAttempts: 5, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, RandomizationFactor: 0.5}
	l := ledger.NewUseCase(store, repos.Products, nil, nil, policy, zerolog.Nop())
	for id, stock := range stocks {
		require.NoError(t, repos.Products.Create(context.Background(), &entity.Product{
			ID: id, SKU: "SKU-" + id, Name: id, Stock: stock, InitialStock: stock,
			SellPrice: decimal.NewFromInt(1000), Version: 1,
		}))
	}
	taxes := pos.StaticTaxRates{
		Default:  decimal.RequireFromString("0.19"),
		ByBranch: map[string]decimal.Decimal{"b-free": decimal.Zero},
	}
	return &fixture{repos: repos, uc: pos.NewUseCase(l, repos.Products, repos.Sales, taxes, nil)}
}

func (f *fixture) stock(t *testing.T, id string) int64 {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) saleMovements(t *testing.T) []entity.Movement {
	t.Helper()
	list, err := f.repos.Movements.ListPage(context.Background(), repository.MovementFilter{CauseType: entity.CauseSale}, nil, 0)
	require.NoError(t, err)
	return list
}

func cart(branch string, lines ...dto.CheckoutItemRequest) dto.CheckoutRequest {
	return dto.CheckoutRequest{BranchID: branch, Items: lines, PaymentMethod: "cash"}
}

func line(productID string, qty int64) dto.CheckoutItemRequest {
	return dto.CheckoutItemRequest{ProductID: productID, Quantity: qty}
}

func TestCheckout_DescuentaCadaLineaYCalculaTotales(t *testing.T) {
	f := newFixture(t, map[string]int64{"A": 10, "B": 4})
	price := decimal.NewFromInt(250)
	in := cart("b1", line("A", 2), dto.CheckoutItemRequest{ProductID: "B", Quantity: 4, UnitPrice: &price})
	in.Customer = &dto.CustomerRequest{Name: "Ana"}

	receipt, err := f.uc.Checkout(context.Background(), "cajero", in)
	require.NoError(t, err)

	assert.Equal(t, int64(8), f.stock(t, "A"))
	assert.Equal(t, int64(0), f.stock(t, "B"))
	// 2*1000 + 4*250 = 3000; IVA 19% = 570
	assert.True(t, receipt.Subtotal.Equal(decimal.NewFromInt(3000)), "subtotal %s", receipt.Subtotal)
	assert.True(t, receipt.Tax.Equal(decimal.NewFromInt(570)), "tax %s", receipt.Tax)
	assert.True(t, receipt.Total.Equal(decimal.NewFromInt(3570)), "total %s", receipt.Total)
	assert.Equal(t, "cajero", receipt.CashierID)
	require.NotNil(t, receipt.Customer)
	assert.Equal(t, "Ana", receipt.Customer.Name)

	movs := f.saleMovements(t)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, receipt.SaleID, m.CausedBy.ID)
		assert.Equal(t, entity.DirectionDecrease, m.Direction)
	}

	stored, err := f.uc.GetSale(context.Background(), receipt.SaleID)
	require.NoError(t, err)
	assert.Equal(t, receipt.Number, stored.Number)
	assert.Len(t, stored.Lines, 2)
}

func TestCheckout_TasaPorSucursal(t *testing.T) {
	f := newFixture(t, map[string]int64{"A": 10})

	receipt, err := f.uc.Checkout(context.Background(), "cajero", cart("b-free", line("A", 1)))
	require.NoError(t, err)
	assert.True(t, receipt.Tax.IsZero())
	assert.True(t, receipt.Total.Equal(decimal.NewFromInt(1000)))
}

func TestCheckout_StockInsuficienteNoDejaRastro(t *testing.T) {
	f := newFixture(t, map[string]int64{"A": 10})

	_, err := f.uc.Checkout(context.Background(), "cajero", cart("b1", line("A", 15)))
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(15), insufficient.Requested)
	assert.Equal(t, int64(10), insufficient.Available)

	assert.Equal(t, int64(10), f.stock(t, "A"))
	assert.Empty(t, f.saleMovements(t))
}

func TestCheckout_UnaLineaFallidaAbortaElCarrito(t *testing.T) {
	f := newFixture(t, map[string]int64{"A": 5, "B": 3})

	_, err := f.uc.Checkout(context.Background(), "cajero", cart("b1", line("A", 2), line("B", 5)))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(5), f.stock(t, "A"))
	assert.Equal(t, int64(3), f.stock(t, "B"))
	assert.Empty(t, f.saleMovements(t))
}

func TestCheckout_LineasRepetidasSeAgreganContraElStock(t *testing.T) {
	f := newFixture(t, map[string]int64{"A": 5})

	_, err := f.uc.Checkout(context.Background(), "cajero", cart("b1", line("A", 3), line("A", 3)))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(5), f.stock(t, "A"))

	_, err = f.uc.Checkout(context.Background(), "cajero", cart("b1", line("A", 3), line("A", 2)))
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.stock(t, "A"))
	assert.Len(t, f.saleMovements(t), 2)
}

func TestCheckout_Validaciones(t *testing.T) {
	f := newFixture(t, map[string]int64{"A": 5})
	ctx := context.Background()
	negative := decimal.NewFromInt(-1)

	cases := map[string]dto.CheckoutRequest{
		"carrito vacío":   cart("b1"),
		"sin sucursal":    cart("", line("A", 1)),
		"cantidad cero":   cart("b1", line("A", 0)),
		"sin producto":    cart("b1", line("", 1)),
		"precio negativo": cart("b1", dto.CheckoutItemRequest{ProductID: "A", Quantity: 1, UnitPrice: &negative}),
		"medio de pago": func() dto.CheckoutRequest {
			c := cart("b1", line("A", 1))
			c.PaymentMethod = "bitcoin"
			return c
		}(),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.Checkout(ctx, "cajero", in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err := f.uc.Checkout(ctx, "", cart("b1", line("A", 1)))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Checkout(ctx, "cajero", cart("b1", line("X", 1)))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(5), f.stock(t, "A"))
}

func TestCheckout_MedioDePagoNormalizado(t *testing.T) {
	f := newFixture(t, map[string]int64{"A": 5})
	in := cart("b1", line("A", 1))
	in.PaymentMethod = " CARD "

	receipt, err := f.uc.Checkout(context.Background(), "cajero", in)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentCard, receipt.PaymentMethod)
}

func TestCheckout_DosVentasConcurrentesSobreElMismoStock(t *testing.T) {
	f := newFixture(t, map[string]int64{"A": 5})

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Checkout(context.Background(), "cajero", cart("b1", line("A", 3)))
		}(i)
	}
	wg.Wait()

	var ok, failed int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		failed++
		assert.True(t, errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrConcurrencyConflict), "err %v", err)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, int64(2), f.stock(t, "A"))
	assert.Len(t, f.saleMovements(t), 1)
}

func TestCheckout_NConcurrentesNuncaVendenDeMas(t *testing.T) {
	const (
		stock   = 20
		qty     = 3
		buyers  = 16
		maxSold = stock / qty
	)
	f := newFixture(t, map[string]int64{"A": stock})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int64
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.uc.Checkout(context.Background(), "cajero", cart("b1", line("A", qty))); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, successes, int64(maxSold))
	assert.Equal(t, stock-successes*qty, f.stock(t, "A"))
	assert.Len(t, f.saleMovements(t), int(successes))
}

func TestGetSale_Inexistente(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.uc.GetSale(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

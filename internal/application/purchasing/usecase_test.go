package purchasing_test

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
	"github.com/jhoicas/inventario-ledger/internal/application/purchasing"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

type fixture struct {
	repos  ledger.TxRepos
	ledger *ledger.UseCase
	uc     *purchasing.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	policy := ledger.RetryPolicy{MaxAttempts: 20, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	l := ledger.NewUseCase(store, repos.Products, nil, nil, policy, zerolog.Nop())
	for _, id := range []string{"A", "B"} {
		require.NoError(t, repos.Products.Create(context.Background(), &entity.Product{
			ID: id, SKU: "SKU-" + id, Name: "Producto " + id, Stock: 10, InitialStock: 10, Version: 1,
		}))
	}
	return &fixture{repos: repos, ledger: l, uc: purchasing.NewUseCase(l, repos.PurchaseOrders, repos.Products, nil)}
}

func (f *fixture) createOrder(t *testing.T) *entity.PurchaseOrder {
	t.Helper()
	po, err := f.uc.CreatePurchaseOrder(context.Background(), "u1", dto.CreatePurchaseOrderRequest{
		SupplierID: "sup-1",
		Items: []dto.PurchaseOrderItemRequest{
			{ProductID: "A", Quantity: 5, UnitCost: decimal.NewFromInt(100)},
			{ProductID: "B", Quantity: 3, UnitCost: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)
	return po
}

func (f *fixture) advance(t *testing.T, id string, statuses ...entity.PurchaseOrderStatus) {
	t.Helper()
	for _, s := range statuses {
		_, applied, err := f.uc.TransitionPurchaseOrder(context.Background(), id, s, "u1", "")
		require.NoError(t, err)
		require.True(t, applied)
	}
}

func (f *fixture) stock(t *testing.T, id string) int64 {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) movements(t *testing.T, poID string) []entity.Movement {
	t.Helper()
	list, err := f.repos.Movements.ListPage(context.Background(), repository.MovementFilter{
		CauseType: entity.CausePurchaseOrder, CauseID: poID,
	}, nil, 0)
	require.NoError(t, err)
	return list
}

func TestCreatePurchaseOrder_CalculaTotales(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t)

	assert.Equal(t, entity.POStatusPending, po.Status)
	assert.True(t, po.TotalAmount.Equal(decimal.NewFromInt(650)), "total %s", po.TotalAmount)
	assert.True(t, po.TotalsConsistent())
	assert.NotEmpty(t, po.PONumber)
	assert.Equal(t, "Producto A", po.Items[0].Name)

	history, err := f.repos.Transitions.ListPage(context.Background(), repository.TransitionFilter{RecordID: po.ID}, nil, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "", history[0].From)
	assert.Equal(t, "pending", history[0].To)
}

func TestCreatePurchaseOrder_TotalDeclaradoDistintoSeRechaza(t *testing.T) {
	f := newFixture(t)
	declared := decimal.NewFromInt(600)
	_, err := f.uc.CreatePurchaseOrder(context.Background(), "u1", dto.CreatePurchaseOrderRequest{
		SupplierID:  "sup-1",
		Items:       []dto.PurchaseOrderItemRequest{{ProductID: "A", Quantity: 5, UnitCost: decimal.NewFromInt(100)}},
		TotalAmount: &declared,
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "total_amount", verr.Field)
}

func TestCreatePurchaseOrder_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := dto.PurchaseOrderItemRequest{ProductID: "A", Quantity: 1, UnitCost: decimal.NewFromInt(1)}

	_, err := f.uc.CreatePurchaseOrder(ctx, "u1", dto.CreatePurchaseOrderRequest{Items: []dto.PurchaseOrderItemRequest{item}})
	assert.ErrorIs(t, err, domain.ErrValidation, "sin proveedor")

	_, err = f.uc.CreatePurchaseOrder(ctx, "u1", dto.CreatePurchaseOrderRequest{SupplierID: "s"})
	assert.ErrorIs(t, err, domain.ErrValidation, "sin líneas")

	_, err = f.uc.CreatePurchaseOrder(ctx, "u1", dto.CreatePurchaseOrderRequest{SupplierID: "s",
		Items: []dto.PurchaseOrderItemRequest{{Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrValidation, "línea sin producto ni nombre")

	_, err = f.uc.CreatePurchaseOrder(ctx, "u1", dto.CreatePurchaseOrderRequest{SupplierID: "s",
		Items: []dto.PurchaseOrderItemRequest{{ProductID: "A", Quantity: 1, UnitCost: decimal.NewFromInt(-1)}}})
	assert.ErrorIs(t, err, domain.ErrValidation, "costo negativo")

	_, err = f.uc.CreatePurchaseOrder(ctx, "u1", dto.CreatePurchaseOrderRequest{SupplierID: "s",
		Items: []dto.PurchaseOrderItemRequest{{ProductID: "X", Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.CreatePurchaseOrder(ctx, "", dto.CreatePurchaseOrderRequest{SupplierID: "s", Items: []dto.PurchaseOrderItemRequest{item}})
	assert.ErrorIs(t, err, domain.ErrValidation, "sin actor")
}

func TestCreatePurchaseOrder_NumeroDuplicado(t *testing.T) {
	f := newFixture(t)
	in := dto.CreatePurchaseOrderRequest{
		PONumber:   "PO-1",
		SupplierID: "sup-1",
		Items:      []dto.PurchaseOrderItemRequest{{Name: "flete", Quantity: 1, UnitCost: decimal.NewFromInt(10)}},
	}
	_, err := f.uc.CreatePurchaseOrder(context.Background(), "u1", in)
	require.NoError(t, err)
	_, err = f.uc.CreatePurchaseOrder(context.Background(), "u1", in)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.uc.GetPurchaseOrder(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionPurchaseOrder_RecepcionSumaStockUnaSolaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.createOrder(t)
	f.advance(t, po.ID, entity.POStatusApproved, entity.POStatusOrdered)
	assert.Empty(t, f.movements(t, po.ID), "aprobar y ordenar no mueven stock")

	received, applied, err := f.uc.TransitionPurchaseOrder(ctx, po.ID, entity.POStatusReceived, "u2", "llegó completo")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, entity.POStatusReceived, received.Status)
	assert.Equal(t, "u2", received.ReceivedBy)
	require.NotNil(t, received.ReceivedAt)
	assert.Equal(t, int64(15), f.stock(t, "A"))
	assert.Equal(t, int64(13), f.stock(t, "B"))
	assert.Len(t, f.movements(t, po.ID), 2)

	again, applied, err := f.uc.TransitionPurchaseOrder(ctx, po.ID, entity.POStatusReceived, "u2", "")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, entity.POStatusReceived, again.Status)
	assert.Equal(t, int64(15), f.stock(t, "A"))
	assert.Equal(t, int64(13), f.stock(t, "B"))
	assert.Len(t, f.movements(t, po.ID), 2)
}

func TestTransitionPurchaseOrder_RecepcionValorizaCosto(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t)
	f.advance(t, po.ID, entity.POStatusApproved, entity.POStatusOrdered, entity.POStatusReceived)

	p, err := f.repos.Products.GetByID(context.Background(), "A")
	require.NoError(t, err)
	// 10 u a 0 + 5 u a 100
	assert.True(t, p.AvgCost.Equal(decimal.RequireFromString("33.3333")), "avg %s", p.AvgCost)
}

func TestTransitionPurchaseOrder_AristasInvalidas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.createOrder(t)

	_, _, err := f.uc.TransitionPurchaseOrder(ctx, po.ID, entity.POStatusReceived, "u1", "")
	var terr *domain.StateTransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "pending", terr.From)
	assert.Equal(t, "received", terr.To)
	assert.Empty(t, f.movements(t, po.ID))

	f.advance(t, po.ID, entity.POStatusCancelled)
	_, _, err = f.uc.TransitionPurchaseOrder(ctx, po.ID, entity.POStatusApproved, "u1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, _, err = f.uc.TransitionPurchaseOrder(ctx, po.ID, entity.POStatusReceived, "u1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, _, err = f.uc.TransitionPurchaseOrder(ctx, po.ID, entity.PurchaseOrderStatus("shipped"), "u1", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = f.uc.TransitionPurchaseOrder(ctx, "nope", entity.POStatusApproved, "u1", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionPurchaseOrder_RecibidaNoSePuedeCancelar(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t)
	f.advance(t, po.ID, entity.POStatusApproved, entity.POStatusOrdered, entity.POStatusReceived)

	_, _, err := f.uc.TransitionPurchaseOrder(context.Background(), po.ID, entity.POStatusCancelled, "u1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestTransitionPurchaseOrder_EstadoNormalizado(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t)

	out, applied, err := f.uc.TransitionPurchaseOrder(context.Background(), po.ID, " APPROVED ", "u1", "")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, entity.POStatusApproved, out.Status)
}

func TestTransitionPurchaseOrder_LineasTextoLibreNoMuevenStock(t *testing.T) {
	f := newFixture(t)
	po, err := f.uc.CreatePurchaseOrder(context.Background(), "u1", dto.CreatePurchaseOrderRequest{
		SupplierID: "sup-1",
		Items: []dto.PurchaseOrderItemRequest{
			{ProductID: "A", Quantity: 2, UnitCost: decimal.NewFromInt(10)},
			{Name: "flete", Quantity: 1, UnitCost: decimal.NewFromInt(30)},
		},
	})
	require.NoError(t, err)
	f.advance(t, po.ID, entity.POStatusApproved, entity.POStatusOrdered, entity.POStatusReceived)

	assert.Equal(t, int64(12), f.stock(t, "A"))
	assert.Len(t, f.movements(t, po.ID), 1)
}

func TestTransitionPurchaseOrder_RecepcionesConcurrentesAplicanUnaVez(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t)
	f.advance(t, po.ID, entity.POStatusApproved, entity.POStatusOrdered)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applies int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, applied, err := f.uc.TransitionPurchaseOrder(context.Background(), po.ID, entity.POStatusReceived, "u1", "")
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
				return
			}
			if applied {
				mu.Lock()
				applies++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applies)
	assert.Equal(t, int64(15), f.stock(t, "A"))
	assert.Len(t, f.movements(t, po.ID), 2)
}

func TestUpdatePurchaseOrderItems_SoloEnPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.createOrder(t)

	updated, err := f.uc.UpdatePurchaseOrderItems(ctx, po.ID, "u1", dto.UpdatePurchaseOrderItemsRequest{
		Items: []dto.PurchaseOrderItemRequest{{ProductID: "A", Quantity: 2, UnitCost: decimal.NewFromInt(7)}},
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(14)))
	assert.Len(t, updated.Items, 1)

	stored, err := f.uc.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalsConsistent())
	assert.Equal(t, updated.Version, stored.Version)

	f.advance(t, po.ID, entity.POStatusApproved)
	_, err = f.uc.UpdatePurchaseOrderItems(ctx, po.ID, "u1", dto.UpdatePurchaseOrderItemsRequest{
		Items: []dto.PurchaseOrderItemRequest{{ProductID: "A", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestListPurchaseOrders_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createOrder(t)
	f.createOrder(t)
	f.advance(t, first.ID, entity.POStatusApproved)

	pending, err := f.uc.ListPurchaseOrders(ctx, repository.PurchaseOrderFilter{Status: entity.POStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	approved, err := f.uc.ListPurchaseOrders(ctx, repository.PurchaseOrderFilter{Status: "Approved"})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)
}

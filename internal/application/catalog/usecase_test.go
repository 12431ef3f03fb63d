package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/catalog"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

func newUseCase() *catalog.UseCase {
	return catalog.NewUseCase(memory.NewStore().Repos().Products)
}

func register(t *testing.T, uc *catalog.UseCase, sku, name, category string, stock, minStock int64) *dto.ProductResponse {
	t.Helper()
	out, err := uc.RegisterProduct(context.Background(), dto.CreateProductRequest{
		SKU: sku, Name: name, Category: category,
		InitialStock: stock, MinStock: minStock,
		BuyPrice: decimal.NewFromInt(4), SellPrice: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	return out
}

func TestRegisterProduct_StockInicialYCostoPromedio(t *testing.T) {
	uc := newUseCase()

	out := register(t, uc, " ACE-500 ", " Acetaminofén 500mg ", "analgesicos", 12, 5)

	assert.Equal(t, "ACE-500", out.SKU)
	assert.Equal(t, "Acetaminofén 500mg", out.Name)
	assert.Equal(t, int64(12), out.Stock)
	assert.Equal(t, int64(12), out.InitialStock)
	assert.True(t, out.AvgCost.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "in_stock", out.Status)
	assert.Equal(t, int64(1), out.Version)
}

func TestRegisterProduct_Validaciones(t *testing.T) {
	cases := []struct {
		name  string
		in    dto.CreateProductRequest
		field string
	}{
		{"sin sku", dto.CreateProductRequest{Name: "x"}, "sku"},
		{"sin nombre", dto.CreateProductRequest{SKU: "A"}, "name"},
		{"stock negativo", dto.CreateProductRequest{SKU: "A", Name: "x", InitialStock: -1}, "initial_stock"},
		{"max menor que min", dto.CreateProductRequest{SKU: "A", Name: "x", MinStock: 5, MaxStock: 2}, "max_stock"},
		{"precio negativo", dto.CreateProductRequest{SKU: "A", Name: "x", SellPrice: decimal.NewFromInt(-1)}, "sell_price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newUseCase().RegisterProduct(context.Background(), tc.in)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRegisterProduct_SKUDuplicado(t *testing.T) {
	uc := newUseCase()
	register(t, uc, "A-1", "Alcohol", "", 1, 0)

	_, err := uc.RegisterProduct(context.Background(), dto.CreateProductRequest{SKU: "A-1", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUpdateProduct_NoTocaStock(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	p := register(t, uc, "G-1", "Gasas", "curacion", 3, 1)

	name := "Gasas estériles"
	minStock := int64(3)
	out, err := uc.UpdateProduct(ctx, p.ID, dto.UpdateProductRequest{Name: &name, MinStock: &minStock})
	require.NoError(t, err)

	assert.Equal(t, name, out.Name)
	assert.Equal(t, int64(3), out.Stock)
	assert.Equal(t, "low_stock", out.Status)
	assert.Equal(t, int64(2), out.Version)
}

func TestUpdateProduct_Errores(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()

	_, err := uc.UpdateProduct(ctx, "no-existe", dto.UpdateProductRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p := register(t, uc, "V-1", "Vendas", "", 1, 0)
	blank := "  "
	_, err = uc.UpdateProduct(ctx, p.ID, dto.UpdateProductRequest{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListProducts_FiltraPorCategoriaYEstado(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	register(t, uc, "B", "Bisturí", "quirurgico", 0, 2)
	register(t, uc, "A", "Algodón", "curacion", 1, 2)
	register(t, uc, "C", "Clorhexidina", "curacion", 20, 2)

	all, err := uc.ListProducts(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, "Algodón", all.Items[0].Name)

	curacion, err := uc.ListProducts(ctx, repository.ProductFilter{Category: "curacion"})
	require.NoError(t, err)
	assert.Len(t, curacion.Items, 2)

	low, err := uc.ListProducts(ctx, repository.ProductFilter{Status: " LOW_STOCK "})
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "A", low.Items[0].SKU)

	_, err = uc.ListProducts(ctx, repository.ProductFilter{Status: "agotado"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

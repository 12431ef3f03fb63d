package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

func TestWeightedAverageCost_PromediaEntradas(t *testing.T) {
	// 10 u a 100 + 10 u a 200 = 150
	got := inventory.WeightedAverageCost(10, decimal.NewFromInt(100), 10, decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(150)), "got %s", got)
}

func TestWeightedAverageCost_SinStockPrevioTomaCostoEntrada(t *testing.T) {
	got := inventory.WeightedAverageCost(0, decimal.Zero, 5, decimal.NewFromInt(40))
	assert.True(t, got.Equal(decimal.NewFromInt(40)), "got %s", got)
}

func TestWeightedAverageCost_CantidadCeroDevuelveCero(t *testing.T) {
	got := inventory.WeightedAverageCost(0, decimal.NewFromInt(10), 0, decimal.NewFromInt(40))
	assert.True(t, got.IsZero())
}

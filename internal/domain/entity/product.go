package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados del stock frente a los umbrales MinStock/MaxStock.
const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// Product representa un producto del catálogo con su contador de stock autoritativo.
// Stock solo cambia a través del ledger (ledger.ApplyInTx); Version soporta el compare-and-swap.
type Product struct {
	ID           string
	SKU          string // código único
	Name         string
	Category     string
	Stock        int64 // cantidad en mano, nunca negativa
	InitialStock int64 // stock al registrar el producto; base de la conciliación con movimientos
	MinStock     int64
	MaxStock     int64
	BuyPrice     decimal.Decimal
	SellPrice    decimal.Decimal
	AvgCost      decimal.Decimal // costo promedio ponderado (entradas valorizadas)
	SupplierID   string
	ExpiryDate   *time.Time
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StockStatus calcula el estado a partir de una cantidad y los umbrales del producto.
func (p *Product) StockStatus(stock int64) string {
	switch {
	case stock <= 0:
		return StockStatusOutOfStock
	case stock <= p.MinStock:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// Status devuelve el estado derivado del stock actual.
func (p *Product) Status() string {
	return p.StockStatus(p.Stock)
}

// IsValidStockStatus indica si s es uno de los estados derivados.
func IsValidStockStatus(s string) bool {
	return s == StockStatusInStock || s == StockStatusLowStock || s == StockStatusOutOfStock
}

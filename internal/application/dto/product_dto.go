package dto

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para registrar un producto. InitialStock fija el stock de partida.
type CreateProductRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Category     string          `json:"category"`
	InitialStock int64           `json:"initial_stock" validate:"min=0"`
	MinStock     int64           `json:"min_stock" validate:"min=0"`
	MaxStock     int64           `json:"max_stock" validate:"min=0"`
	BuyPrice     decimal.Decimal `json:"buy_price"`
	SellPrice    decimal.Decimal `json:"sell_price"`
	SupplierID   string          `json:"supplier_id"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
}

// UpdateProductRequest entrada para actualizar un producto (sin Stock ni costo promedio).
type UpdateProductRequest struct {
	Name       *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Category   *string          `json:"category"`
	MinStock   *int64           `json:"min_stock"`
	MaxStock   *int64           `json:"max_stock"`
	BuyPrice   *decimal.Decimal `json:"buy_price"`
	SellPrice  *decimal.Decimal `json:"sell_price"`
	SupplierID *string          `json:"supplier_id"`
	ExpiryDate *time.Time       `json:"expiry_date"`
}

// ProductResponse salida de un producto con su estado derivado.
type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Stock        int64           `json:"stock"`
	InitialStock int64           `json:"initial_stock"`
	MinStock     int64           `json:"min_stock"`
	MaxStock     int64           `json:"max_stock"`
	Status       string          `json:"status"`
	BuyPrice     decimal.Decimal `json:"buy_price"`
	SellPrice    decimal.Decimal `json:"sell_price"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	SupplierID   string          `json:"supplier_id,omitempty"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// StockResponse stock autoritativo de un producto.
type StockResponse struct {
	ProductID string `json:"product_id"`
	Stock     int64  `json:"stock"`
}

// FromProduct mapea la entidad a su respuesta.
func FromProduct(p *entity.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Category:     p.Category,
		Stock:        p.Stock,
		InitialStock: p.InitialStock,
		MinStock:     p.MinStock,
		MaxStock:     p.MaxStock,
		Status:       p.Status(),
		BuyPrice:     p.BuyPrice,
		SellPrice:    p.SellPrice,
		AvgCost:      p.AvgCost,
		SupplierID:   p.SupplierID,
		ExpiryDate:   p.ExpiryDate,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductFilter filtros de listado de productos.
type ProductFilter struct {
	Category string
	Status   string // in_stock, low_stock, out_of_stock (derivado)
	Limit    int
	Offset   int
}

// ProductReader puerto de lectura del catálogo. GetByID devuelve (nil, nil) si no existe.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	List(ctx context.Context, f ProductFilter) ([]*entity.Product, error)
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// No existe un setter de stock fuera de UpdateStock, que solo invoca el ledger.
type ProductRepository interface {
	ProductReader
	Create(ctx context.Context, product *entity.Product) error
	// Update modifica metadatos (nunca Stock ni AvgCost) e incrementa Version.
	Update(ctx context.Context, product *entity.Product) error
	// GetForUpdate lee la fila y la bloquea (o registra su versión) dentro de la unidad atómica.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// UpdateStock escribe stock y costo promedio si la versión coincide (compare-and-swap);
	// en otro caso devuelve domain.ErrConcurrencyConflict.
	UpdateStock(ctx context.Context, id string, stock int64, avgCost decimal.Decimal, expectedVersion int64) error
}

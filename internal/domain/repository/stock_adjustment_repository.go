package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// AdjustmentFilter filtros de listado de ajustes.
type AdjustmentFilter struct {
	Status    entity.AdjustmentStatus
	ProductID string
	BranchID  string
	Limit     int
	Offset    int
}

// StockAdjustmentRepository define el puerto de persistencia de ajustes de stock.
type StockAdjustmentRepository interface {
	Create(ctx context.Context, adj *entity.StockAdjustment) error
	GetByID(ctx context.Context, id string) (*entity.StockAdjustment, error)
	GetForUpdate(ctx context.Context, id string) (*entity.StockAdjustment, error)
	List(ctx context.Context, f AdjustmentFilter) ([]*entity.StockAdjustment, error)
	// UpdateStatus persiste el estado y los datos de aprobación/rechazo con compare-and-swap de versión.
	UpdateStatus(ctx context.Context, adj *entity.StockAdjustment, expectedVersion int64) error
}

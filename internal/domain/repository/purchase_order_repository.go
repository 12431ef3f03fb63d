package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// PurchaseOrderFilter filtros de listado de órdenes de compra.
type PurchaseOrderFilter struct {
	Status     entity.PurchaseOrderStatus
	SupplierID string
	Limit      int
	Offset     int
}

// PurchaseOrderRepository define el puerto de persistencia de órdenes de compra y sus líneas.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	List(ctx context.Context, f PurchaseOrderFilter) ([]*entity.PurchaseOrder, error)
	// UpdateStatus persiste Status/ReceivedBy/ReceivedAt si la versión coincide y la incrementa en po.
	UpdateStatus(ctx context.Context, po *entity.PurchaseOrder, expectedVersion int64) error
	// ReplaceItems reemplaza las líneas y el total con la misma disciplina de versión.
	ReplaceItems(ctx context.Context, po *entity.PurchaseOrder, expectedVersion int64) error
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

const purchaseOrderColumns = `id, po_number, supplier_id, branch_id, status, order_date, expected_delivery,
	total_amount, notes, created_by, received_by, received_at, version, created_at, updated_at`

// PurchaseOrderRepo persiste cabeceras y líneas de órdenes de compra.
type PurchaseOrderRepo struct {
	q Querier
}

func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

func scanPurchaseOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := row.Scan(
		&po.ID, &po.PONumber, &po.SupplierID, &po.BranchID, &po.Status, &po.OrderDate, &po.ExpectedDelivery,
		&po.TotalAmount, &po.Notes, &po.CreatedBy, &po.ReceivedBy, &po.ReceivedAt, &po.Version, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// Create inserta la cabecera y sus líneas. Número de orden duplicado => domain.ErrDuplicate.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_orders (`+purchaseOrderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		po.ID, po.PONumber, po.SupplierID, po.BranchID, po.Status, po.OrderDate, po.ExpectedDelivery,
		po.TotalAmount, po.Notes, po.CreatedBy, po.ReceivedBy, po.ReceivedAt, po.Version, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		return mapError("insert purchase order", err)
	}
	return r.insertItems(ctx, po)
}

func (r *PurchaseOrderRepo) insertItems(ctx context.Context, po *entity.PurchaseOrder) error {
	if len(po.Items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, item := range po.Items {
		var productID *string
		if item.AffectsStock() {
			productID = &item.ProductID
		}
		batch.Queue(`
			INSERT INTO purchase_order_items (id, purchase_order_id, position, product_id, name, quantity, unit_cost, total_cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, po.ID, i, productID, item.Name, item.Quantity, item.UnitCost, item.TotalCost,
		)
	}
	return mapError("insert purchase order items", r.q.SendBatch(ctx, batch).Close())
}

func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.getOne(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera; las líneas solo cambian bajo ese bloqueo.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.getOne(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *PurchaseOrderRepo) getOne(ctx context.Context, query, id string) (*entity.PurchaseOrder, error) {
	po, err := scanPurchaseOrder(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get purchase order", err)
	}
	if po.Items, err = r.items(ctx, po.ID); err != nil {
		return nil, err
	}
	return po, nil
}

func (r *PurchaseOrderRepo) items(ctx context.Context, orderID string) ([]entity.PurchaseOrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, name, quantity, unit_cost, total_cost
		FROM purchase_order_items
		WHERE purchase_order_id = $1
		ORDER BY position`, orderID)
	if err != nil {
		return nil, mapError("list purchase order items", err)
	}
	defer rows.Close()

	var items []entity.PurchaseOrderItem
	for rows.Next() {
		var item entity.PurchaseOrderItem
		var productID *string
		if err := rows.Scan(&item.ID, &productID, &item.Name, &item.Quantity, &item.UnitCost, &item.TotalCost); err != nil {
			return nil, mapError("scan purchase order item", err)
		}
		if productID != nil {
			item.ProductID = *productID
		}
		items = append(items, item)
	}
	return items, mapError("list purchase order items", rows.Err())
}

// List devuelve órdenes más recientes primero, con sus líneas.
func (r *PurchaseOrderRepo) List(ctx context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	var c conds
	if f.Status != "" {
		c.add("status = $%d", f.Status)
	}
	if f.SupplierID != "" {
		c.add("supplier_id = $%d", f.SupplierID)
	}
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders` + c.where() +
		` ORDER BY created_at DESC, id DESC` + c.limit(f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, mapError("list purchase orders", err)
	}
	var list []*entity.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			rows.Close()
			return nil, mapError("scan purchase order", err)
		}
		list = append(list, po)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError("list purchase orders", err)
	}

	// Las líneas se leen después de cerrar el cursor: una conexión no admite dos consultas abiertas.
	for _, po := range list {
		if po.Items, err = r.items(ctx, po.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// UpdateStatus aplica el compare-and-swap de versión sobre el estado.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, po *entity.PurchaseOrder, expectedVersion int64) error {
	err := r.q.QueryRow(ctx, `
		UPDATE purchase_orders SET status = $2, received_by = $3, received_at = $4, updated_at = $5, version = version + 1
		WHERE id = $1 AND version = $6
		RETURNING version`,
		po.ID, po.Status, po.ReceivedBy, po.ReceivedAt, po.UpdatedAt, expectedVersion,
	).Scan(&po.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: orden de compra %s versión %d", domain.ErrConcurrencyConflict, po.ID, expectedVersion)
	}
	return mapError("update purchase order status", err)
}

// ReplaceItems reemplaza las líneas y el total bajo la misma versión.
func (r *PurchaseOrderRepo) ReplaceItems(ctx context.Context, po *entity.PurchaseOrder, expectedVersion int64) error {
	err := r.q.QueryRow(ctx, `
		UPDATE purchase_orders SET total_amount = $2, updated_at = $3, version = version + 1
		WHERE id = $1 AND version = $4
		RETURNING version`,
		po.ID, po.TotalAmount, po.UpdatedAt, expectedVersion,
	).Scan(&po.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: orden de compra %s versión %d", domain.ErrConcurrencyConflict, po.ID, expectedVersion)
	}
	if err != nil {
		return mapError("update purchase order total", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id = $1`, po.ID); err != nil {
		return mapError("delete purchase order items", err)
	}
	return r.insertItems(ctx, po)
}

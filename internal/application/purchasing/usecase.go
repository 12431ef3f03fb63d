package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ReasonReceived motivo de los movimientos generados al recibir una orden.
const ReasonReceived = "purchase_order_received"

// UseCase flujo de órdenes de compra. La recepción suma stock por línea de catálogo
// en la misma unidad atómica que el cambio de estado.
type UseCase struct {
	ledger   *ledger.UseCase
	orders   repository.PurchaseOrderRepository
	products repository.ProductReader
	metrics  ledger.Metrics
}

// NewUseCase construye el caso de uso. orders y products son los repositorios fuera de transacción.
func NewUseCase(l *ledger.UseCase, orders repository.PurchaseOrderRepository, products repository.ProductReader, metrics ledger.Metrics) *UseCase {
	if metrics == nil {
		metrics = ledger.NopMetrics{}
	}
	return &UseCase{ledger: l, orders: orders, products: products, metrics: metrics}
}

// CreatePurchaseOrder valida y registra una orden en pending junto con su transición de creación.
func (uc *UseCase) CreatePurchaseOrder(ctx context.Context, actor string, in dto.CreatePurchaseOrderRequest) (*entity.PurchaseOrder, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, domain.NewValidationError("actor", "es obligatorio")
	}
	if strings.TrimSpace(in.SupplierID) == "" {
		return nil, domain.NewValidationError("supplier_id", "es obligatorio")
	}
	items, err := uc.buildItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	po := &entity.PurchaseOrder{
		ID:               uuid.New().String(),
		PONumber:         strings.TrimSpace(in.PONumber),
		SupplierID:       in.SupplierID,
		BranchID:         in.BranchID,
		Status:           entity.POStatusPending,
		OrderDate:        now,
		ExpectedDelivery: in.ExpectedDelivery,
		Notes:            in.Notes,
		Items:            items,
		CreatedBy:        actor,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.OrderDate != nil {
		po.OrderDate = in.OrderDate.UTC()
	}
	if po.PONumber == "" {
		po.PONumber = newNumber("PO", now)
	}
	po.Recalculate()
	if err := checkDeclaredTotal(po, in.TotalAmount); err != nil {
		return nil, err
	}

	err = uc.ledger.Atomic(ctx, "purchase_order.create", func(tx *ledger.Tx) error {
		if err := tx.PurchaseOrders.Create(ctx, po); err != nil {
			return err
		}
		return tx.Transitions.Append(ctx, newTransition(po.ID, "", string(po.Status), actor, "", now))
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.TransitionApplied(entity.WorkflowPurchaseOrder, string(po.Status))
	return po, nil
}

// TransitionPurchaseOrder mueve la orden por la máquina de estados. received -> received es un
// no-op (applied=false); cualquier otra arista fuera de la tabla es ErrInvalidStateTransition.
func (uc *UseCase) TransitionPurchaseOrder(ctx context.Context, id string, next entity.PurchaseOrderStatus, actor, note string) (*entity.PurchaseOrder, bool, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, false, domain.NewValidationError("actor", "es obligatorio")
	}
	next = entity.PurchaseOrderStatus(dto.NormalizeCode(string(next)))
	if !next.IsValid() {
		return nil, false, domain.NewValidationError("status", fmt.Sprintf("estado desconocido %q", next))
	}

	var (
		out     *entity.PurchaseOrder
		applied bool
	)
	err := uc.ledger.Atomic(ctx, "purchase_order.transition", func(tx *ledger.Tx) error {
		out, applied = nil, false
		po, err := tx.PurchaseOrders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.NotFound("orden de compra", id)
		}
		if po.Status == entity.POStatusReceived && next == entity.POStatusReceived {
			out = po
			return nil
		}
		if !po.Status.CanTransitionTo(next) {
			return &domain.StateTransitionError{
				Workflow: entity.WorkflowPurchaseOrder,
				ID:       po.ID,
				From:     string(po.Status),
				To:       string(next),
			}
		}

		if next == entity.POStatusReceived {
			for _, item := range po.Items {
				if !item.AffectsStock() {
					continue
				}
				cost := item.UnitCost
				_, err := tx.Apply(ctx, ledger.MovementCommand{
					ProductID: item.ProductID,
					Direction: entity.DirectionIncrease,
					Quantity:  item.Quantity,
					Reason:    ReasonReceived,
					CausedBy:  entity.Cause{Type: entity.CausePurchaseOrder, ID: po.ID},
					Actor:     actor,
					UnitCost:  &cost,
				})
				if err != nil {
					return err
				}
			}
			receivedAt := tx.Now
			po.ReceivedBy = actor
			po.ReceivedAt = &receivedAt
		}

		from := po.Status
		po.Status = next
		po.UpdatedAt = tx.Now
		if err := tx.PurchaseOrders.UpdateStatus(ctx, po, po.Version); err != nil {
			return err
		}
		if err := tx.Transitions.Append(ctx, newTransition(po.ID, string(from), string(next), actor, note, tx.Now)); err != nil {
			return err
		}
		out, applied = po, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if applied {
		uc.metrics.TransitionApplied(entity.WorkflowPurchaseOrder, string(next))
	}
	return out, applied, nil
}

// UpdatePurchaseOrderItems reemplaza las líneas de una orden pendiente y recalcula el total.
func (uc *UseCase) UpdatePurchaseOrderItems(ctx context.Context, id, actor string, in dto.UpdatePurchaseOrderItemsRequest) (*entity.PurchaseOrder, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, domain.NewValidationError("actor", "es obligatorio")
	}
	items, err := uc.buildItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	var out *entity.PurchaseOrder
	err = uc.ledger.Atomic(ctx, "purchase_order.items", func(tx *ledger.Tx) error {
		po, err := tx.PurchaseOrders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.NotFound("orden de compra", id)
		}
		if po.Status != entity.POStatusPending {
			return fmt.Errorf("%w: la orden %s está en %s; solo se editan líneas en pending",
				domain.ErrInvalidStateTransition, po.ID, po.Status)
		}
		po.Items = items
		po.Recalculate()
		if err := checkDeclaredTotal(po, in.TotalAmount); err != nil {
			return err
		}
		po.UpdatedAt = tx.Now
		if err := tx.PurchaseOrders.ReplaceItems(ctx, po, po.Version); err != nil {
			return err
		}
		out = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetPurchaseOrder obtiene una orden con sus líneas.
func (uc *UseCase) GetPurchaseOrder(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.NotFound("orden de compra", id)
	}
	return po, nil
}

// ListPurchaseOrders lista órdenes (más recientes primero).
func (uc *UseCase) ListPurchaseOrders(ctx context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	if f.Status != "" {
		f.Status = entity.PurchaseOrderStatus(dto.NormalizeCode(string(f.Status)))
		if !f.Status.IsValid() {
			return nil, domain.NewValidationError("status", "estado desconocido")
		}
	}
	return uc.orders.List(ctx, f)
}

func (uc *UseCase) buildItems(ctx context.Context, in []dto.PurchaseOrderItemRequest) ([]entity.PurchaseOrderItem, error) {
	if len(in) == 0 {
		return nil, domain.NewValidationError("items", "debe tener al menos una línea")
	}
	items := make([]entity.PurchaseOrderItem, 0, len(in))
	for i, it := range in {
		field := fmt.Sprintf("items[%d]", i)
		if it.Quantity <= 0 {
			return nil, domain.NewValidationError(field+".quantity", "debe ser mayor que cero")
		}
		if it.UnitCost.IsNegative() {
			return nil, domain.NewValidationError(field+".unit_cost", "no puede ser negativo")
		}
		name := strings.TrimSpace(it.Name)
		if it.ProductID == "" {
			if name == "" {
				return nil, domain.NewValidationError(field, "requiere product_id o name")
			}
		} else {
			product, err := uc.products.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, err
			}
			if product == nil {
				return nil, domain.NotFound("producto", it.ProductID)
			}
			if name == "" {
				name = product.Name
			}
		}
		items = append(items, entity.PurchaseOrderItem{
			ID:        uuid.New().String(),
			ProductID: it.ProductID,
			Name:      name,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
		})
	}
	return items, nil
}

func checkDeclaredTotal(po *entity.PurchaseOrder, declared *decimal.Decimal) error {
	if declared != nil && !declared.Equal(po.TotalAmount) {
		return domain.NewValidationError("total_amount",
			fmt.Sprintf("declarado %s no coincide con la suma de líneas %s", declared.String(), po.TotalAmount.String()))
	}
	if !po.TotalsConsistent() {
		return domain.NewValidationError("total_amount", "total inconsistente con las líneas")
	}
	return nil
}

func newTransition(recordID, from, to, actor, note string, at time.Time) *entity.StatusTransition {
	return &entity.StatusTransition{
		ID:       uuid.New().String(),
		Workflow: entity.WorkflowPurchaseOrder,
		RecordID: recordID,
		From:     from,
		To:       to,
		Actor:    actor,
		Note:     note,
		At:       at,
	}
}

func newNumber(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
}

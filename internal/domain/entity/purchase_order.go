package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra.
type PurchaseOrderStatus string

const (
	POStatusPending   PurchaseOrderStatus = "pending"
	POStatusApproved  PurchaseOrderStatus = "approved"
	POStatusOrdered   PurchaseOrderStatus = "ordered"
	POStatusReceived  PurchaseOrderStatus = "received"
	POStatusCancelled PurchaseOrderStatus = "cancelled"
)

// Aristas permitidas; received y cancelled son terminales.
var poTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	POStatusPending:  {POStatusApproved, POStatusCancelled},
	POStatusApproved: {POStatusOrdered, POStatusCancelled},
	POStatusOrdered:  {POStatusReceived, POStatusCancelled},
}

// IsValid indica si el estado es conocido.
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case POStatusPending, POStatusApproved, POStatusOrdered, POStatusReceived, POStatusCancelled:
		return true
	}
	return false
}

// IsTerminal indica si no se permite ninguna transición desde s.
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == POStatusReceived || s == POStatusCancelled
}

// CanTransitionTo indica si la arista s -> next está en la máquina de estados.
func (s PurchaseOrderStatus) CanTransitionTo(next PurchaseOrderStatus) bool {
	for _, allowed := range poTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PurchaseOrderItem es una línea de la orden: producto del catálogo o texto libre.
type PurchaseOrderItem struct {
	ID        string
	ProductID string // vacío si la línea es de texto libre
	Name      string
	Quantity  int64
	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal // Quantity * UnitCost
}

// AffectsStock indica si la línea mueve stock al recibirse.
func (i *PurchaseOrderItem) AffectsStock() bool {
	return i.ProductID != ""
}

// PurchaseOrder representa una orden de compra a proveedor.
// Invariante: TotalAmount == Σ Items.TotalCost.
type PurchaseOrder struct {
	ID               string
	PONumber         string
	SupplierID       string
	BranchID         string
	Status           PurchaseOrderStatus
	OrderDate        time.Time
	ExpectedDelivery *time.Time
	TotalAmount      decimal.Decimal
	Notes            string
	Items            []PurchaseOrderItem
	CreatedBy        string
	ReceivedBy       string
	ReceivedAt       *time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Recalculate recomputa TotalCost por línea y TotalAmount.
func (po *PurchaseOrder) Recalculate() {
	total := decimal.Zero
	for i := range po.Items {
		item := &po.Items[i]
		item.TotalCost = item.UnitCost.Mul(decimal.NewFromInt(item.Quantity))
		total = total.Add(item.TotalCost)
	}
	po.TotalAmount = total
}

// ItemsTotal devuelve Σ TotalCost sin modificar la orden.
func (po *PurchaseOrder) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range po.Items {
		total = total.Add(item.TotalCost)
	}
	return total
}

// TotalsConsistent verifica el invariante de totales.
func (po *PurchaseOrder) TotalsConsistent() bool {
	for _, item := range po.Items {
		if !item.TotalCost.Equal(item.UnitCost.Mul(decimal.NewFromInt(item.Quantity))) {
			return false
		}
	}
	return po.TotalAmount.Equal(po.ItemsTotal())
}

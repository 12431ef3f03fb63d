package dto

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItemRequest línea de una orden: ProductID del catálogo o Name de texto libre.
type PurchaseOrderItemRequest struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreatePurchaseOrderRequest entrada para crear una orden de compra.
// TotalAmount es opcional; si viene debe coincidir con la suma de las líneas.
type CreatePurchaseOrderRequest struct {
	PONumber         string                     `json:"po_number"`
	SupplierID       string                     `json:"supplier_id" validate:"required"`
	BranchID         string                     `json:"branch_id"`
	OrderDate        *time.Time                 `json:"order_date"`
	ExpectedDelivery *time.Time                 `json:"expected_delivery"`
	Notes            string                     `json:"notes"`
	Items            []PurchaseOrderItemRequest `json:"items" validate:"required,min=1"`
	TotalAmount      *decimal.Decimal           `json:"total_amount"`
}

// UpdatePurchaseOrderItemsRequest reemplazo de líneas de una orden pendiente.
type UpdatePurchaseOrderItemsRequest struct {
	Items       []PurchaseOrderItemRequest `json:"items" validate:"required,min=1"`
	TotalAmount *decimal.Decimal           `json:"total_amount"`
}

// TransitionPurchaseOrderRequest cambio de estado solicitado.
type TransitionPurchaseOrderRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

// PurchaseOrderItemResponse línea de orden.
type PurchaseOrderItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// PurchaseOrderResponse salida de una orden de compra.
type PurchaseOrderResponse struct {
	ID               string                      `json:"id"`
	PONumber         string                      `json:"po_number"`
	SupplierID       string                      `json:"supplier_id"`
	BranchID         string                      `json:"branch_id,omitempty"`
	Status           string                      `json:"status"`
	OrderDate        time.Time                   `json:"order_date"`
	ExpectedDelivery *time.Time                  `json:"expected_delivery,omitempty"`
	TotalAmount      decimal.Decimal             `json:"total_amount"`
	Notes            string                      `json:"notes,omitempty"`
	Items            []PurchaseOrderItemResponse `json:"items"`
	CreatedBy        string                      `json:"created_by"`
	ReceivedBy       string                      `json:"received_by,omitempty"`
	ReceivedAt       *time.Time                  `json:"received_at,omitempty"`
	Version          int64                       `json:"version"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// TransitionResponse resultado de una transición; Applied=false si fue un no-op.
type TransitionResponse struct {
	Order   PurchaseOrderResponse `json:"order"`
	Applied bool                  `json:"applied"`
}

// PurchaseOrderListResponse lista paginada de órdenes.
type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// FromPurchaseOrder mapea la entidad.
func FromPurchaseOrder(po *entity.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(po.Items))
	for _, it := range po.Items {
		items = append(items, PurchaseOrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
			TotalCost: it.TotalCost,
		})
	}
	return PurchaseOrderResponse{
		ID:               po.ID,
		PONumber:         po.PONumber,
		SupplierID:       po.SupplierID,
		BranchID:         po.BranchID,
		Status:           string(po.Status),
		OrderDate:        po.OrderDate,
		ExpectedDelivery: po.ExpectedDelivery,
		TotalAmount:      po.TotalAmount,
		Notes:            po.Notes,
		Items:            items,
		CreatedBy:        po.CreatedBy,
		ReceivedBy:       po.ReceivedBy,
		ReceivedAt:       po.ReceivedAt,
		Version:          po.Version,
		CreatedAt:        po.CreatedAt,
		UpdatedAt:        po.UpdatedAt,
	}
}

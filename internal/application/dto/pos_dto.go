package dto

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CheckoutItemRequest línea del carrito. UnitPrice nil toma el precio de venta del catálogo.
type CheckoutItemRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int64            `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CustomerRequest identidad opcional del cliente.
type CustomerRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CheckoutRequest carrito completo a cobrar.
type CheckoutRequest struct {
	BranchID      string                `json:"branch_id" validate:"required"`
	Items         []CheckoutItemRequest `json:"items" validate:"required,min=1"`
	PaymentMethod string                `json:"payment_method" validate:"required"`
	Customer      *CustomerRequest      `json:"customer"`
}

// ReceiptLine línea del comprobante.
type ReceiptLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Receipt comprobante de una venta confirmada.
type Receipt struct {
	SaleID        string           `json:"sale_id"`
	Number        string           `json:"number"`
	BranchID      string           `json:"branch_id"`
	Lines         []ReceiptLine    `json:"lines"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	TaxRate       decimal.Decimal  `json:"tax_rate"`
	Tax           decimal.Decimal  `json:"tax"`
	Total         decimal.Decimal  `json:"total"`
	PaymentMethod string           `json:"payment_method"`
	Customer      *CustomerRequest `json:"customer,omitempty"`
	CashierID     string           `json:"cashier_id"`
	CreatedAt     time.Time        `json:"created_at"`
}

// FromSale construye el comprobante de una venta.
func FromSale(s *entity.Sale) *Receipt {
	lines := make([]ReceiptLine, 0, len(s.Items))
	for _, it := range s.Items {
		lines = append(lines, ReceiptLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	var customer *CustomerRequest
	if s.Customer != nil {
		customer = &CustomerRequest{ID: s.Customer.ID, Name: s.Customer.Name, Phone: s.Customer.Phone}
	}
	return &Receipt{
		SaleID:        s.ID,
		Number:        s.Number,
		BranchID:      s.BranchID,
		Lines:         lines,
		Subtotal:      s.Subtotal,
		TaxRate:       s.TaxRate,
		Tax:           s.Tax,
		Total:         s.Total,
		PaymentMethod: s.PaymentMethod,
		Customer:      customer,
		CashierID:     s.CashierID,
		CreatedAt:     s.CreatedAt,
	}
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medios de pago aceptados en caja.
const (
	PaymentCash      = "cash"
	PaymentCard      = "card"
	PaymentTransfer  = "transfer"
	PaymentInsurance = "insurance"
	PaymentOther     = "other"
)

// IsValidPaymentMethod indica si m es un medio de pago conocido.
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentInsurance, PaymentOther:
		return true
	}
	return false
}

// Customer identidad opcional del cliente en una venta.
type Customer struct {
	ID    string
	Name  string
	Phone string
}

// SaleItem línea de venta. LineTotal = Quantity * UnitPrice.
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Sale cabecera de una venta de caja. Se crea junto con un movimiento de salida por línea.
type Sale struct {
	ID            string
	Number        string
	BranchID      string
	Items         []SaleItem
	PaymentMethod string
	Customer      *Customer
	Subtotal      decimal.Decimal
	TaxRate       decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	CashierID     string
	CreatedAt     time.Time
}

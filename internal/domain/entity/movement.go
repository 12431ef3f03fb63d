package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección de un movimiento de stock.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// IsValid indica si la dirección es conocida.
func (d Direction) IsValid() bool {
	return d == DirectionIncrease || d == DirectionDecrease
}

// Tipos de flujo que pueden causar un movimiento.
type CauseType string

const (
	CausePurchaseOrder   CauseType = "purchase_order"
	CauseStockAdjustment CauseType = "stock_adjustment"
	CauseSale            CauseType = "sale"
	CauseManual          CauseType = "manual"
)

// IsValid indica si el tipo de causa es conocido.
func (c CauseType) IsValid() bool {
	switch c {
	case CausePurchaseOrder, CauseStockAdjustment, CauseSale, CauseManual:
		return true
	}
	return false
}

// Cause identifica la instancia de flujo responsable de un movimiento.
type Cause struct {
	Type CauseType
	ID   string
}

func (c Cause) String() string {
	return string(c.Type) + ":" + c.ID
}

// Movement es una entrada inmutable del ledger. Solo se agrega; nunca se actualiza ni se borra.
type Movement struct {
	ID             string
	ProductID      string
	Direction      Direction
	Quantity       int64 // siempre positivo; el signo lo da Direction
	QuantityBefore int64
	QuantityAfter  int64
	Reason         string
	CausedBy       Cause
	Actor          string
	UnitCost       *decimal.Decimal // opcional: valorización de entradas
	CreatedAt      time.Time
}

// Delta devuelve la cantidad con signo.
func (m *Movement) Delta() int64 {
	if m.Direction == DirectionDecrease {
		return -m.Quantity
	}
	return m.Quantity
}

package entity

import "time"

// Tipos de evento emitidos por el ledger después del commit.
const (
	EventMovementRecorded = "movement.recorded"
	EventStockLow         = "stock.low"
	EventStockOut         = "stock.out"
)

// LedgerEvent notificación saliente para colaboradores (no forma parte de la transacción).
type LedgerEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ProductID  string    `json:"product_id"`
	MovementID string    `json:"movement_id,omitempty"`
	Direction  Direction `json:"direction,omitempty"`
	Quantity   int64     `json:"quantity,omitempty"`
	Stock      int64     `json:"stock"`
	MinStock   int64     `json:"min_stock,omitempty"`
	Cause      string    `json:"cause,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

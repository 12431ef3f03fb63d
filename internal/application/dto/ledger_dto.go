package dto

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ManualMovementRequest movimiento manual (causa manual) registrado vía HTTP.
type ManualMovementRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Direction string           `json:"direction" validate:"required,oneof=increase decrease"`
	Quantity  int64            `json:"quantity" validate:"required,gt=0"`
	Reason    string           `json:"reason" validate:"required"`
	Reference string           `json:"reference"`
	UnitCost  *decimal.Decimal `json:"unit_cost"`
}

// MovementResponse entrada del ledger.
type MovementResponse struct {
	ID             string           `json:"id"`
	ProductID      string           `json:"product_id"`
	Direction      string           `json:"direction"`
	Quantity       int64            `json:"quantity"`
	QuantityBefore int64            `json:"quantity_before"`
	QuantityAfter  int64            `json:"quantity_after"`
	Reason         string           `json:"reason"`
	CauseType      string           `json:"cause_type"`
	CauseID        string           `json:"cause_id"`
	Actor          string           `json:"actor"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// FromMovement mapea un movimiento.
func FromMovement(m entity.Movement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Direction:      string(m.Direction),
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reason:         m.Reason,
		CauseType:      string(m.CausedBy.Type),
		CauseID:        m.CausedBy.ID,
		Actor:          m.Actor,
		UnitCost:       m.UnitCost,
		CreatedAt:      m.CreatedAt,
	}
}

package entity

import "time"

// Estados de un ajuste de stock.
type AdjustmentStatus string

const (
	AdjustmentPending  AdjustmentStatus = "pending"
	AdjustmentApproved AdjustmentStatus = "approved"
	AdjustmentRejected AdjustmentStatus = "rejected"
)

// IsValid indica si el estado es conocido.
func (s AdjustmentStatus) IsValid() bool {
	return s == AdjustmentPending || s == AdjustmentApproved || s == AdjustmentRejected
}

// CanTransitionTo: solo pending sale hacia approved o rejected.
func (s AdjustmentStatus) CanTransitionTo(next AdjustmentStatus) bool {
	return s == AdjustmentPending && (next == AdjustmentApproved || next == AdjustmentRejected)
}

// Motivos de ajuste.
const (
	ReasonExpired    = "expired"
	ReasonDamaged    = "damaged"
	ReasonStolen     = "stolen"
	ReasonReturned   = "returned"
	ReasonRestock    = "restock"
	ReasonCorrection = "correction"
	ReasonPromotion  = "promotion"
	ReasonOther      = "other"
)

// IsValidAdjustmentReason indica si r es un motivo enumerado.
func IsValidAdjustmentReason(r string) bool {
	switch r {
	case ReasonExpired, ReasonDamaged, ReasonStolen, ReasonReturned,
		ReasonRestock, ReasonCorrection, ReasonPromotion, ReasonOther:
		return true
	}
	return false
}

// StockAdjustment es una corrección puntual sujeta a aprobación.
// Solo pending -> approved toca el ledger, exactamente una vez.
type StockAdjustment struct {
	ID              string
	ProductID       string
	BranchID        string
	Type            Direction
	Quantity        int64
	Reason          string
	ReferenceNumber string
	Notes           string
	Status          AdjustmentStatus
	CreatedBy       string
	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectedBy      string
	RejectedAt      *time.Time
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

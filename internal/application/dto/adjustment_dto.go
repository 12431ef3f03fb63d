package dto

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// CreateAdjustmentRequest entrada para crear un ajuste pendiente de aprobación.
type CreateAdjustmentRequest struct {
	ProductID       string `json:"product_id" validate:"required"`
	BranchID        string `json:"branch_id" validate:"required"`
	Type            string `json:"type" validate:"required,oneof=increase decrease"`
	Quantity        int64  `json:"quantity" validate:"required,gt=0"`
	Reason          string `json:"reason" validate:"required"`
	ReferenceNumber string `json:"reference_number"`
	Notes           string `json:"notes"`
}

// RejectAdjustmentRequest motivo opcional del rechazo.
type RejectAdjustmentRequest struct {
	Note string `json:"note"`
}

// AdjustmentResponse salida de un ajuste.
type AdjustmentResponse struct {
	ID              string     `json:"id"`
	ProductID       string     `json:"product_id"`
	BranchID        string     `json:"branch_id"`
	Type            string     `json:"type"`
	Quantity        int64      `json:"quantity"`
	Reason          string     `json:"reason"`
	ReferenceNumber string     `json:"reference_number"`
	Notes           string     `json:"notes,omitempty"`
	Status          string     `json:"status"`
	CreatedBy       string     `json:"created_by"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      string     `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AdjustmentListResponse lista paginada de ajustes.
type AdjustmentListResponse struct {
	Items []AdjustmentResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// FromAdjustment mapea la entidad.
func FromAdjustment(a *entity.StockAdjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:              a.ID,
		ProductID:       a.ProductID,
		BranchID:        a.BranchID,
		Type:            string(a.Type),
		Quantity:        a.Quantity,
		Reason:          a.Reason,
		ReferenceNumber: a.ReferenceNumber,
		Notes:           a.Notes,
		Status:          string(a.Status),
		CreatedBy:       a.CreatedBy,
		ApprovedBy:      a.ApprovedBy,
		ApprovedAt:      a.ApprovedAt,
		RejectedBy:      a.RejectedBy,
		RejectedAt:      a.RejectedAt,
		Version:         a.Version,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

package adjustment

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
)

// UseCase ajustes de stock sujetos a aprobación. Solo la aprobación toca el ledger.
type UseCase struct {
	ledger      *ledger.UseCase
	adjustments repository.StockAdjustmentRepository
	products    repository.ProductReader
	metrics     ledger.Metrics
}

// NewUseCase construye el caso de uso.
func NewUseCase(l *ledger.UseCase, adjustments repository.StockAdjustmentRepository, products repository.ProductReader, metrics ledger.Metrics) *UseCase {
	if metrics == nil {
		metrics = ledger.NopMetrics{}
	}
	return &UseCase{ledger: l, adjustments: adjustments, products: products, metrics: metrics}
}

// CreateAdjustment registra un ajuste pending. No mueve stock.
func (uc *UseCase) CreateAdjustment(ctx context.Context, actor string, in dto.CreateAdjustmentRequest) (*entity.StockAdjustment, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, domain.NewValidationError("actor", "es obligatorio")
	}
	if strings.TrimSpace(in.BranchID) == "" {
		return nil, domain.NewValidationError("branch_id", "es obligatorio")
	}
	typ := entity.Direction(dto.NormalizeCode(in.Type))
	if !typ.IsValid() {
		return nil, domain.NewValidationError("type", "debe ser increase o decrease")
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	reason := dto.NormalizeCode(in.Reason)
	if !entity.IsValidAdjustmentReason(reason) {
		return nil, domain.NewValidationError("reason", fmt.Sprintf("motivo desconocido %q", in.Reason))
	}
	product, err := uc.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFound("producto", in.ProductID)
	}

	now := time.Now().UTC()
	adj := &entity.StockAdjustment{
		ID:              uuid.New().String(),
		ProductID:       product.ID,
		BranchID:        in.BranchID,
		Type:            typ,
		Quantity:        in.Quantity,
		Reason:          reason,
		ReferenceNumber: strings.TrimSpace(in.ReferenceNumber),
		Notes:           in.Notes,
		Status:          entity.AdjustmentPending,
		CreatedBy:       actor,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if adj.ReferenceNumber == "" {
		adj.ReferenceNumber = fmt.Sprintf("ADJ-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
	}

	err = uc.ledger.Atomic(ctx, "adjustment.create", func(tx *ledger.Tx) error {
		if err := tx.Adjustments.Create(ctx, adj); err != nil {
			return err
		}
		return tx.Transitions.Append(ctx, newTransition(adj.ID, "", string(adj.Status), actor, "", now))
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.TransitionApplied(entity.WorkflowStockAdjustment, string(adj.Status))
	return adj, nil
}

// ApproveAdjustment aplica el ajuste al ledger y lo marca approved en una sola unidad atómica.
// Si no está pending devuelve ErrInvalidStateTransition; si el stock no alcanza, sigue pending.
func (uc *UseCase) ApproveAdjustment(ctx context.Context, id, actor string) (*entity.StockAdjustment, error) {
	return uc.decide(ctx, id, actor, entity.AdjustmentApproved, "")
}

// RejectAdjustment pending -> rejected, sin efecto en el ledger.
func (uc *UseCase) RejectAdjustment(ctx context.Context, id, actor, note string) (*entity.StockAdjustment, error) {
	return uc.decide(ctx, id, actor, entity.AdjustmentRejected, note)
}

func (uc *UseCase) decide(ctx context.Context, id, actor string, next entity.AdjustmentStatus, note string) (*entity.StockAdjustment, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, domain.NewValidationError("actor", "es obligatorio")
	}
	var out *entity.StockAdjustment
	err := uc.ledger.Atomic(ctx, "adjustment."+string(next), func(tx *ledger.Tx) error {
		adj, err := tx.Adjustments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if adj == nil {
			return domain.NotFound("ajuste", id)
		}
		if !adj.Status.CanTransitionTo(next) {
			return &domain.StateTransitionError{
				Workflow: entity.WorkflowStockAdjustment,
				ID:       adj.ID,
				From:     string(adj.Status),
				To:       string(next),
			}
		}

		at := tx.Now
		switch next {
		case entity.AdjustmentApproved:
			_, err := tx.Apply(ctx, ledger.MovementCommand{
				ProductID: adj.ProductID,
				Direction: adj.Type,
				Quantity:  adj.Quantity,
				Reason:    adj.Reason,
				CausedBy:  entity.Cause{Type: entity.CauseStockAdjustment, ID: adj.ID},
				Actor:     actor,
			})
			if err != nil {
				return err
			}
			adj.ApprovedBy, adj.ApprovedAt = actor, &at
		case entity.AdjustmentRejected:
			adj.RejectedBy, adj.RejectedAt = actor, &at
			if note != "" {
				adj.Notes = note
			}
		}

		from := adj.Status
		adj.Status = next
		adj.UpdatedAt = at
		if err := tx.Adjustments.UpdateStatus(ctx, adj, adj.Version); err != nil {
			return err
		}
		if err := tx.Transitions.Append(ctx, newTransition(adj.ID, string(from), string(next), actor, note, at)); err != nil {
			return err
		}
		out = adj
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.TransitionApplied(entity.WorkflowStockAdjustment, string(next))
	return out, nil
}

// GetAdjustment obtiene un ajuste.
func (uc *UseCase) GetAdjustment(ctx context.Context, id string) (*entity.StockAdjustment, error) {
	adj, err := uc.adjustments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return nil, domain.NotFound("ajuste", id)
	}
	return adj, nil
}

// ListAdjustments lista ajustes (más recientes primero).
func (uc *UseCase) ListAdjustments(ctx context.Context, f repository.AdjustmentFilter) ([]*entity.StockAdjustment, error) {
	if f.Status != "" {
		f.Status = entity.AdjustmentStatus(dto.NormalizeCode(string(f.Status)))
		if !f.Status.IsValid() {
			return nil, domain.NewValidationError("status", "estado desconocido")
		}
	}
	return uc.adjustments.List(ctx, f)
}

func newTransition(recordID, from, to, actor, note string, at time.Time) *entity.StatusTransition {
	return &entity.StatusTransition{
		ID:       uuid.New().String(),
		Workflow: entity.WorkflowStockAdjustment,
		RecordID: recordID,
		From:     from,
		To:       to,
		Actor:    actor,
		Note:     note,
		At:       at,
	}
}

package ledger

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TxRepos repositorios atados a una misma unidad atómica (transacción de BD o snapshot en memoria).
type TxRepos struct {
	Products       repository.ProductRepository
	Movements      repository.MovementRepository
	PurchaseOrders repository.PurchaseOrderRepository
	Adjustments    repository.StockAdjustmentRepository
	Sales          repository.SaleRepository
	Transitions    repository.TransitionRepository
}

// TxRunner ejecuta fn dentro de una unidad atómica: Commit si fn retorna nil, Rollback en otro caso.
// Un conflicto detectado al confirmar se devuelve como domain.ErrConcurrencyConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// EventPublisher publica eventos del ledger después del commit. Los errores no revierten nada.
type EventPublisher interface {
	Publish(ctx context.Context, events ...entity.LedgerEvent) error
}

// NopPublisher descarta los eventos (sin broker configurado).
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...entity.LedgerEvent) error { return nil }

// Metrics contadores del motor. Las implementaciones deben ser seguras para uso concurrente.
type Metrics interface {
	MovementApplied(direction entity.Direction, cause entity.CauseType, quantity int64)
	ConflictRetried(operation string)
	OperationFailed(operation string, err error)
	TransitionApplied(workflow, to string)
	CheckoutCompleted(branchID string, lines int)
}

// NopMetrics no registra nada.
type NopMetrics struct{}

func (NopMetrics) MovementApplied(entity.Direction, entity.CauseType, int64) {}
func (NopMetrics) ConflictRetried(string)                                  {}
func (NopMetrics) OperationFailed(string, error)                           {}
func (NopMetrics) TransitionApplied(string, string)                        {}
func (NopMetrics) CheckoutCompleted(string, int)                           {}

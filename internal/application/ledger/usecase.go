package ledger

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UseCase es el único camino de escritura del stock: cada cambio de Product.Stock
// va acompañado, en la misma unidad atómica, de exactamente un Movement.
type UseCase struct {
	txRunner  TxRunner
	products  repository.ProductReader
	publisher EventPublisher
	metrics   Metrics
	retry     RetryPolicy
	log       zerolog.Logger
}

// NewUseCase construye el ledger. publisher y metrics pueden ser nil.
func NewUseCase(
	txRunner TxRunner,
	products repository.ProductReader,
	publisher EventPublisher,
	metrics Metrics,
	retry RetryPolicy,
	log zerolog.Logger,
) *UseCase {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &UseCase{
		txRunner:  txRunner,
		products:  products,
		publisher: publisher,
		metrics:   metrics,
		retry:     retry,
		log:       log,
	}
}

// MovementCommand entrada de un movimiento de stock.
type MovementCommand struct {
	ProductID string
	Direction entity.Direction
	Quantity  int64
	Reason    string
	CausedBy  entity.Cause
	Actor     string
	UnitCost  *decimal.Decimal // opcional, solo entradas
}

// Validate rechaza la entrada antes de tocar el estado.
func (c MovementCommand) Validate() error {
	switch {
	case strings.TrimSpace(c.ProductID) == "":
		return domain.NewValidationError("product_id", "es obligatorio")
	case !c.Direction.IsValid():
		return domain.NewValidationError("direction", "debe ser increase o decrease")
	case c.Quantity <= 0:
		return domain.NewValidationError("quantity", "debe ser mayor que cero")
	case strings.TrimSpace(c.Reason) == "":
		return domain.NewValidationError("reason", "es obligatorio")
	case !c.CausedBy.Type.IsValid():
		return domain.NewValidationError("caused_by.type", "tipo de causa desconocido")
	case strings.TrimSpace(c.CausedBy.ID) == "":
		return domain.NewValidationError("caused_by.id", "es obligatorio")
	case strings.TrimSpace(c.Actor) == "":
		return domain.NewValidationError("actor", "es obligatorio")
	case c.UnitCost != nil && c.UnitCost.IsNegative():
		return domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	return nil
}

// Applied resultado de un movimiento dentro de la unidad atómica.
type Applied struct {
	Movement       entity.Movement
	Product        entity.Product // estado posterior al movimiento
	PreviousStatus string
}

// ApplyInTx bloquea el producto, valida el stock, escribe el contador con compare-and-swap
// y agrega el movimiento, todo con los repositorios de la unidad atómica del llamador.
func ApplyInTx(ctx context.Context, repos TxRepos, cmd MovementCommand, now time.Time) (Applied, error) {
	if err := cmd.Validate(); err != nil {
		return Applied{}, err
	}
	product, err := repos.Products.GetForUpdate(ctx, cmd.ProductID)
	if err != nil {
		return Applied{}, err
	}
	if product == nil {
		return Applied{}, domain.NotFound("producto", cmd.ProductID)
	}

	before := product.Stock
	after := before
	avgCost := product.AvgCost
	switch cmd.Direction {
	case entity.DirectionIncrease:
		if cmd.Quantity > math.MaxInt64-before {
			return Applied{}, domain.NewValidationError("quantity", "excede el máximo representable")
		}
		after = before + cmd.Quantity
		if cmd.UnitCost != nil {
			avgCost = inventory.WeightedAverageCost(before, product.AvgCost, cmd.Quantity, *cmd.UnitCost)
		}
	case entity.DirectionDecrease:
		if cmd.Quantity > before {
			return Applied{}, &domain.InsufficientStockError{
				ProductID: product.ID,
				Requested: cmd.Quantity,
				Available: before,
			}
		}
		after = before - cmd.Quantity
	}

	if err := repos.Products.UpdateStock(ctx, product.ID, after, avgCost, product.Version); err != nil {
		return Applied{}, err
	}

	mov := entity.Movement{
		ID:             uuid.New().String(),
		ProductID:      product.ID,
		Direction:      cmd.Direction,
		Quantity:       cmd.Quantity,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         cmd.Reason,
		CausedBy:       cmd.CausedBy,
		Actor:          cmd.Actor,
		UnitCost:       cmd.UnitCost,
		CreatedAt:      now,
	}
	if err := repos.Movements.Append(ctx, &mov); err != nil {
		return Applied{}, err
	}

	updated := *product
	updated.Stock = after
	updated.AvgCost = avgCost
	updated.Version++
	updated.UpdatedAt = now
	return Applied{Movement: mov, Product: updated, PreviousStatus: product.Status()}, nil
}

// Tx unidad atómica en curso: repositorios más los movimientos aplicados en ella.
type Tx struct {
	TxRepos
	Now     time.Time
	applied []Applied
}

// Apply registra un movimiento en la unidad atómica actual.
func (tx *Tx) Apply(ctx context.Context, cmd MovementCommand) (Applied, error) {
	res, err := ApplyInTx(ctx, tx.TxRepos, cmd, tx.Now)
	if err != nil {
		return Applied{}, err
	}
	tx.applied = append(tx.applied, res)
	return res, nil
}

// Atomic ejecuta fn en una unidad atómica, reintentando ante conflictos de concurrencia.
// Cada intento parte de cero; los movimientos solo se publican tras el commit.
func (uc *UseCase) Atomic(ctx context.Context, operation string, fn func(tx *Tx) error) error {
	var committed []Applied
	err := uc.retry.Do(ctx, func() error {
		tx := &Tx{Now: time.Now().UTC()}
		err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
			tx.TxRepos = repos
			return fn(tx)
		})
		if err != nil {
			return err
		}
		committed = tx.applied
		return nil
	}, func(err error, wait time.Duration) {
		uc.metrics.ConflictRetried(operation)
		uc.log.Debug().Err(err).Str("operation", operation).Dur("wait", wait).Msg("reintentando tras conflicto")
	})
	if err != nil {
		uc.metrics.OperationFailed(operation, err)
		return err
	}
	uc.publish(ctx, committed)
	return nil
}

// ApplyMovement registra un movimiento en su propia unidad atómica y devuelve el stock resultante.
func (uc *UseCase) ApplyMovement(ctx context.Context, cmd MovementCommand) (int64, error) {
	var stock int64
	err := uc.Atomic(ctx, "ledger.apply", func(tx *Tx) error {
		res, err := tx.Apply(ctx, cmd)
		if err != nil {
			return err
		}
		stock = res.Movement.QuantityAfter
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stock, nil
}

// GetStock lee el contador autoritativo.
func (uc *UseCase) GetStock(ctx context.Context, productID string) (int64, error) {
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, domain.NotFound("producto", productID)
	}
	return product.Stock, nil
}

func (uc *UseCase) publish(ctx context.Context, applied []Applied) {
	if len(applied) == 0 {
		return
	}
	events := make([]entity.LedgerEvent, 0, len(applied))
	for _, a := range applied {
		m := a.Movement
		uc.metrics.MovementApplied(m.Direction, m.CausedBy.Type, m.Quantity)
		events = append(events, entity.LedgerEvent{
			ID:         uuid.New().String(),
			Type:       entity.EventMovementRecorded,
			ProductID:  m.ProductID,
			MovementID: m.ID,
			Direction:  m.Direction,
			Quantity:   m.Quantity,
			Stock:      m.QuantityAfter,
			Cause:      m.CausedBy.String(),
			Actor:      m.Actor,
			OccurredAt: m.CreatedAt,
		})
		status := a.Product.Status()
		if status == a.PreviousStatus || status == entity.StockStatusInStock {
			continue
		}
		typ := entity.EventStockLow
		if status == entity.StockStatusOutOfStock {
			typ = entity.EventStockOut
		}
		events = append(events, entity.LedgerEvent{
			ID:         uuid.New().String(),
			Type:       typ,
			ProductID:  m.ProductID,
			MovementID: m.ID,
			Stock:      m.QuantityAfter,
			MinStock:   a.Product.MinStock,
			Cause:      m.CausedBy.String(),
			OccurredAt: m.CreatedAt,
		})
	}
	if err := uc.publisher.Publish(ctx, events...); err != nil {
		uc.log.Warn().Err(err).Int("events", len(events)).Msg("no se pudieron publicar eventos del ledger")
	}
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, product_id, direction, quantity, quantity_before, quantity_after,
	reason, cause_type, cause_id, actor, unit_cost, created_at`

// MovementRepo ledger de movimientos; solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el repositorio.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.ProductID, m.Direction, m.Quantity, m.QuantityBefore, m.QuantityAfter,
		m.Reason, m.CausedBy.Type, m.CausedBy.ID, m.Actor, m.UnitCost, m.CreatedAt,
	)
	return mapError("insert movement", err)
}

func (r *MovementRepo) ListPage(ctx context.Context, f repository.MovementFilter, after *repository.PageCursor, limit int) ([]entity.Movement, error) {
	var c conds
	if f.ProductID != "" {
		c.add("product_id = $%d", f.ProductID)
	}
	if f.Actor != "" {
		c.add("actor = $%d", f.Actor)
	}
	if f.CauseType != "" {
		c.add("cause_type = $%d", f.CauseType)
	}
	if f.CauseID != "" {
		c.add("cause_id = $%d", f.CauseID)
	}
	if f.Direction != "" {
		c.add("direction = $%d", f.Direction)
	}
	c.addRange("created_at", f.From, f.To)
	c.addCursor("created_at", after)

	query := `SELECT ` + movementColumns + ` FROM stock_movements` + c.where() +
		` ORDER BY created_at DESC, id DESC` + c.limit(limit, 0)

	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, mapError("list movements", err)
	}
	defer rows.Close()

	var list []entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, mapError("scan movement", err)
		}
		list = append(list, m)
	}
	return list, mapError("list movements", rows.Err())
}

func scanMovement(row pgx.Row) (entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(
		&m.ID, &m.ProductID, &m.Direction, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
		&m.Reason, &m.CausedBy.Type, &m.CausedBy.ID, &m.Actor, &m.UnitCost, &m.CreatedAt,
	)
	return m, err
}

// Totals agrega entradas, salidas y delta por tipo de causa de un producto.
func (r *MovementRepo) Totals(ctx context.Context, productID string) (repository.MovementTotals, error) {
	totals := repository.MovementTotals{ByCause: make(map[entity.CauseType]int64)}
	rows, err := r.q.Query(ctx, `
		SELECT cause_type,
			COUNT(*),
			COALESCE(SUM(quantity) FILTER (WHERE direction = 'increase'), 0)::bigint,
			COALESCE(SUM(quantity) FILTER (WHERE direction = 'decrease'), 0)::bigint
		FROM stock_movements
		WHERE product_id = $1
		GROUP BY cause_type`, productID)
	if err != nil {
		return totals, mapError("movement totals", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cause entity.CauseType
		var count, in, out int64
		if err := rows.Scan(&cause, &count, &in, &out); err != nil {
			return totals, mapError("scan movement totals", err)
		}
		totals.Count += count
		totals.Increase += in
		totals.Decrease += out
		totals.ByCause[cause] = in - out
	}
	return totals, mapError("movement totals", rows.Err())
}

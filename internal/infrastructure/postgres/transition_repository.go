package postgres

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.TransitionRepository = (*TransitionRepo)(nil)

// TransitionRepo historial de estados de órdenes y ajustes.
type TransitionRepo struct {
	q Querier
}

func NewTransitionRepository(q Querier) *TransitionRepo {
	return &TransitionRepo{q: q}
}

func (r *TransitionRepo) Append(ctx context.Context, t *entity.StatusTransition) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO status_transitions (id, workflow, record_id, from_status, to_status, actor, note, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Workflow, t.RecordID, t.From, t.To, t.Actor, t.Note, t.At,
	)
	return mapError("insert transition", err)
}

func (r *TransitionRepo) ListPage(ctx context.Context, f repository.TransitionFilter, after *repository.PageCursor, limit int) ([]entity.StatusTransition, error) {
	var c conds
	if f.Workflow != "" {
		c.add("workflow = $%d", f.Workflow)
	}
	if f.RecordID != "" {
		c.add("record_id = $%d", f.RecordID)
	}
	if f.Actor != "" {
		c.add("actor = $%d", f.Actor)
	}
	c.addRange("at", f.From, f.To)
	c.addCursor("at", after)

	query := `SELECT id, workflow, record_id, from_status, to_status, actor, note, at
		FROM status_transitions` + c.where() + ` ORDER BY at DESC, id DESC` + c.limit(limit, 0)

	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, mapError("list transitions", err)
	}
	defer rows.Close()

	var list []entity.StatusTransition
	for rows.Next() {
		var t entity.StatusTransition
		if err := rows.Scan(&t.ID, &t.Workflow, &t.RecordID, &t.From, &t.To, &t.Actor, &t.Note, &t.At); err != nil {
			return nil, mapError("scan transition", err)
		}
		list = append(list, t)
	}
	return list, mapError("list transitions", rows.Err())
}

package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*movementRepo)(nil)

type movementRepo struct {
	run runner
}

func (r *movementRepo) Append(_ context.Context, movement *entity.Movement) error {
	return r.run(func(u *unit) error {
		u.movements = append(u.movements, *movement)
		return nil
	})
}

func (r *movementRepo) ListPage(_ context.Context, f repository.MovementFilter, after *repository.PageCursor, limit int) ([]entity.Movement, error) {
	var out []entity.Movement
	err := r.run(func(u *unit) error {
		u.s.mu.RLock()
		all := make([]entity.Movement, 0, len(u.s.movements)+len(u.movements))
		all = append(all, u.s.movements...)
		u.s.mu.RUnlock()
		all = append(all, u.movements...)
		sort.SliceStable(all, func(i, j int) bool { return newerFirst(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID) })
		for _, m := range all {
			if after != nil && !newerFirst(after.At, after.ID, m.CreatedAt, m.ID) {
				continue
			}
			if !matchMovement(f, m) {
				continue
			}
			out = append(out, m)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) Totals(_ context.Context, productID string) (repository.MovementTotals, error) {
	totals := repository.MovementTotals{ByCause: make(map[entity.CauseType]int64)}
	err := r.run(func(u *unit) error {
		u.s.mu.RLock()
		all := append(append([]entity.Movement(nil), u.s.movements...), u.movements...)
		u.s.mu.RUnlock()
		for _, m := range all {
			if m.ProductID != productID {
				continue
			}
			totals.Count++
			if m.Direction == entity.DirectionIncrease {
				totals.Increase += m.Quantity
			} else {
				totals.Decrease += m.Quantity
			}
			totals.ByCause[m.CausedBy.Type] += m.Delta()
		}
		return nil
	})
	return totals, err
}

func matchMovement(f repository.MovementFilter, m entity.Movement) bool {
	switch {
	case f.ProductID != "" && m.ProductID != f.ProductID:
		return false
	case f.Actor != "" && m.Actor != f.Actor:
		return false
	case f.CauseType != "" && m.CausedBy.Type != f.CauseType:
		return false
	case f.CauseID != "" && m.CausedBy.ID != f.CauseID:
		return false
	case f.Direction != "" && m.Direction != f.Direction:
		return false
	case f.From != nil && m.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && !m.CreatedAt.Before(*f.To):
		return false
	}
	return true
}

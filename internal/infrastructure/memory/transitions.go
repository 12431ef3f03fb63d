package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.TransitionRepository = (*transitionRepo)(nil)

type transitionRepo struct {
	run runner
}

func (r *transitionRepo) Append(_ context.Context, t *entity.StatusTransition) error {
	return r.run(func(u *unit) error {
		u.transitions = append(u.transitions, *t)
		return nil
	})
}

func (r *transitionRepo) ListPage(_ context.Context, f repository.TransitionFilter, after *repository.PageCursor, limit int) ([]entity.StatusTransition, error) {
	var out []entity.StatusTransition
	err := r.run(func(u *unit) error {
		u.s.mu.RLock()
		all := append(append([]entity.StatusTransition(nil), u.s.transitions...), u.transitions...)
		u.s.mu.RUnlock()
		sort.SliceStable(all, func(i, j int) bool { return newerFirst(all[i].At, all[i].ID, all[j].At, all[j].ID) })
		for _, t := range all {
			if after != nil && !newerFirst(after.At, after.ID, t.At, t.ID) {
				continue
			}
			switch {
			case f.Workflow != "" && t.Workflow != f.Workflow,
				f.RecordID != "" && t.RecordID != f.RecordID,
				f.Actor != "" && t.Actor != f.Actor,
				f.From != nil && t.At.Before(*f.From),
				f.To != nil && !t.At.Before(*f.To):
				continue
			}
			out = append(out, t)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// newerFirst orden (at DESC, id DESC): true si (atA, idA) va antes que (atB, idB).
func newerFirst(atA time.Time, idA string, atB time.Time, idB string) bool {
	if !atA.Equal(atB) {
		return atA.After(atB)
	}
	return idA > idB
}

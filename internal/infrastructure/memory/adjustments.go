package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockAdjustmentRepository = (*adjustmentRepo)(nil)

type adjustmentRepo struct {
	run runner
}

func (u *unit) adjustment(id string) (entity.StockAdjustment, bool) {
	return lookup(u, u.adjustments, func() map[string]entity.StockAdjustment { return u.s.adjustments }, u.adjReads, id,
		func(a entity.StockAdjustment) int64 { return a.Version })
}

func (r *adjustmentRepo) Create(_ context.Context, adj *entity.StockAdjustment) error {
	return r.run(func(u *unit) error {
		if _, ok := u.adjustment(adj.ID); ok {
			return domain.ErrDuplicate
		}
		u.adjustments[adj.ID] = *adj
		return nil
	})
}

func (r *adjustmentRepo) GetByID(_ context.Context, id string) (*entity.StockAdjustment, error) {
	var out *entity.StockAdjustment
	err := r.run(func(u *unit) error {
		if adj, ok := u.adjustment(id); ok {
			out = &adj
		}
		return nil
	})
	return out, err
}

func (r *adjustmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockAdjustment, error) {
	return r.GetByID(ctx, id)
}

func (r *adjustmentRepo) List(_ context.Context, f repository.AdjustmentFilter) ([]*entity.StockAdjustment, error) {
	var out []*entity.StockAdjustment
	err := r.run(func(u *unit) error {
		u.s.mu.RLock()
		all := make([]entity.StockAdjustment, 0, len(u.s.adjustments))
		for id, adj := range u.s.adjustments {
			if _, staged := u.adjustments[id]; !staged {
				all = append(all, adj)
			}
		}
		u.s.mu.RUnlock()
		for _, adj := range u.adjustments {
			all = append(all, adj)
		}
		sort.Slice(all, func(i, j int) bool { return newerFirst(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID) })
		for _, adj := range all {
			switch {
			case f.Status != "" && adj.Status != f.Status,
				f.ProductID != "" && adj.ProductID != f.ProductID,
				f.BranchID != "" && adj.BranchID != f.BranchID:
				continue
			}
			out = append(out, &adj)
		}
		out = paginate(out, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *adjustmentRepo) UpdateStatus(_ context.Context, adj *entity.StockAdjustment, expectedVersion int64) error {
	return r.run(func(u *unit) error {
		cur, ok := u.adjustment(adj.ID)
		if !ok {
			return domain.NotFound("ajuste", adj.ID)
		}
		if cur.Version != expectedVersion {
			return domain.ErrConcurrencyConflict
		}
		cur.Status = adj.Status
		cur.ApprovedBy, cur.ApprovedAt = adj.ApprovedBy, adj.ApprovedAt
		cur.RejectedBy, cur.RejectedAt = adj.RejectedBy, adj.RejectedAt
		cur.Notes = adj.Notes
		cur.UpdatedAt = adj.UpdatedAt
		cur.Version++
		u.adjustments[adj.ID] = cur
		adj.Version = cur.Version
		return nil
	})
}

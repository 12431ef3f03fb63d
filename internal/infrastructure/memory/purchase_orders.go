package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*purchaseOrderRepo)(nil)

type purchaseOrderRepo struct {
	run runner
}

func (u *unit) order(id string) (entity.PurchaseOrder, bool) {
	po, ok := lookup(u, u.orders, func() map[string]entity.PurchaseOrder { return u.s.orders }, u.orderReads, id,
		func(po entity.PurchaseOrder) int64 { return po.Version })
	po.Items = slices.Clone(po.Items)
	return po, ok
}

func (r *purchaseOrderRepo) Create(_ context.Context, po *entity.PurchaseOrder) error {
	return r.run(func(u *unit) error {
		if _, ok := u.order(po.ID); ok {
			return domain.ErrDuplicate
		}
		if u.poNumberTaken(po.PONumber, po.ID) {
			return domain.ErrDuplicate
		}
		stored := *po
		stored.Items = slices.Clone(po.Items)
		u.orders[po.ID] = stored
		return nil
	})
}

func (r *purchaseOrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	err := r.run(func(u *unit) error {
		if po, ok := u.order(id); ok {
			out = &po
		}
		return nil
	})
	return out, err
}

func (r *purchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *purchaseOrderRepo) List(_ context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	var out []*entity.PurchaseOrder
	err := r.run(func(u *unit) error {
		u.s.mu.RLock()
		all := make([]entity.PurchaseOrder, 0, len(u.s.orders))
		for id, po := range u.s.orders {
			if _, staged := u.orders[id]; !staged {
				all = append(all, po)
			}
		}
		u.s.mu.RUnlock()
		for _, po := range u.orders {
			all = append(all, po)
		}
		sort.Slice(all, func(i, j int) bool { return newerFirst(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID) })
		for _, po := range all {
			if f.Status != "" && po.Status != f.Status {
				continue
			}
			if f.SupplierID != "" && po.SupplierID != f.SupplierID {
				continue
			}
			po.Items = slices.Clone(po.Items)
			out = append(out, &po)
		}
		out = paginate(out, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *purchaseOrderRepo) UpdateStatus(_ context.Context, po *entity.PurchaseOrder, expectedVersion int64) error {
	return r.run(func(u *unit) error {
		cur, ok := u.order(po.ID)
		if !ok {
			return domain.NotFound("orden de compra", po.ID)
		}
		if cur.Version != expectedVersion {
			return domain.ErrConcurrencyConflict
		}
		cur.Status = po.Status
		cur.ReceivedBy = po.ReceivedBy
		cur.ReceivedAt = po.ReceivedAt
		cur.UpdatedAt = po.UpdatedAt
		cur.Version++
		u.orders[po.ID] = cur
		po.Version = cur.Version
		return nil
	})
}

func (r *purchaseOrderRepo) ReplaceItems(_ context.Context, po *entity.PurchaseOrder, expectedVersion int64) error {
	return r.run(func(u *unit) error {
		cur, ok := u.order(po.ID)
		if !ok {
			return domain.NotFound("orden de compra", po.ID)
		}
		if cur.Version != expectedVersion {
			return domain.ErrConcurrencyConflict
		}
		cur.Items = slices.Clone(po.Items)
		cur.TotalAmount = po.TotalAmount
		cur.UpdatedAt = po.UpdatedAt
		cur.Version++
		u.orders[po.ID] = cur
		po.Version = cur.Version
		return nil
	})
}

func (u *unit) poNumberTaken(number, exceptID string) bool {
	for id, po := range u.orders {
		if id != exceptID && po.PONumber == number {
			return true
		}
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	return u.s.poNumberTakenLocked(number, exceptID)
}

func (s *Store) poNumberTakenLocked(number, exceptID string) bool {
	for id, po := range s.orders {
		if id != exceptID && po.PONumber == number {
			return true
		}
	}
	return false
}

package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*saleRepo)(nil)

type saleRepo struct {
	run runner
}

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.run(func(u *unit) error {
		u.s.mu.RLock()
		_, exists := u.s.sales[sale.ID]
		u.s.mu.RUnlock()
		if exists {
			return domain.ErrDuplicate
		}
		stored := *sale
		stored.Items = slices.Clone(sale.Items)
		u.sales = append(u.sales, stored)
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.run(func(u *unit) error {
		for _, s := range u.sales {
			if s.ID == id {
				out = &s
				return nil
			}
		}
		u.s.mu.RLock()
		s, ok := u.s.sales[id]
		u.s.mu.RUnlock()
		if ok {
			s.Items = slices.Clone(s.Items)
			out = &s
		}
		return nil
	})
	return out, err
}

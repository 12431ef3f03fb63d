package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct {
	run runner
}

func productVersion(p entity.Product) int64 { return p.Version }

func (u *unit) product(id string) (entity.Product, bool) {
	return lookup(u, u.products, func() map[string]entity.Product { return u.s.products }, u.productReads, id, productVersion)
}

func (r *productRepo) Create(_ context.Context, product *entity.Product) error {
	return r.run(func(u *unit) error {
		if _, ok := u.product(product.ID); ok {
			return domain.ErrDuplicate
		}
		u.s.mu.RLock()
		_, taken := u.s.skus[product.SKU]
		u.s.mu.RUnlock()
		if taken {
			return domain.ErrDuplicate
		}
		u.products[product.ID] = *product
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.run(func(u *unit) error {
		if p, ok := u.product(id); ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.run(func(u *unit) error {
		for _, p := range u.stagedOrCommittedProducts() {
			if p.SKU == sku {
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.run(func(u *unit) error {
		all := u.stagedOrCommittedProducts()
		sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
		for i := range all {
			p := all[i]
			if f.Category != "" && p.Category != f.Category {
				continue
			}
			if f.Status != "" && p.Status() != f.Status {
				continue
			}
			out = append(out, &p)
		}
		out = paginate(out, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *productRepo) Update(_ context.Context, product *entity.Product) error {
	return r.run(func(u *unit) error {
		cur, ok := u.product(product.ID)
		if !ok {
			return domain.NotFound("producto", product.ID)
		}
		next := *product
		next.Stock = cur.Stock
		next.AvgCost = cur.AvgCost
		next.InitialStock = cur.InitialStock
		next.Version = cur.Version + 1
		next.CreatedAt = cur.CreatedAt
		u.products[product.ID] = next
		product.Version = next.Version
		return nil
	})
}

func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) UpdateStock(_ context.Context, id string, stock int64, avgCost decimal.Decimal, expectedVersion int64) error {
	return r.run(func(u *unit) error {
		cur, ok := u.product(id)
		if !ok {
			return domain.NotFound("producto", id)
		}
		if cur.Version != expectedVersion {
			return domain.ErrConcurrencyConflict
		}
		cur.Stock = stock
		cur.AvgCost = avgCost
		cur.Version++
		u.products[id] = cur
		return nil
	})
}

func (u *unit) stagedOrCommittedProducts() []entity.Product {
	u.s.mu.RLock()
	all := make([]entity.Product, 0, len(u.s.products)+len(u.products))
	for id, p := range u.s.products {
		if _, staged := u.products[id]; !staged {
			all = append(all, p)
		}
	}
	u.s.mu.RUnlock()
	for _, p := range u.products {
		all = append(all, p)
	}
	return all
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

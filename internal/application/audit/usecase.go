package audit

import (
	"context"
	"iter"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// DefaultPageSize tamaño de página de los recorridos por defecto.
const DefaultPageSize = 100

// UseCase proyección de solo lectura sobre el ledger y el historial de estados.
type UseCase struct {
	products    repository.ProductReader
	movements   repository.MovementReader
	transitions repository.TransitionReader
	pageSize    int
}

// NewUseCase construye la proyección. pageSize <= 0 usa DefaultPageSize.
func NewUseCase(products repository.ProductReader, movements repository.MovementReader, transitions repository.TransitionReader, pageSize int) *UseCase {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &UseCase{products: products, movements: movements, transitions: transitions, pageSize: pageSize}
}

// QueryMovements recorre los movimientos que cumplen f, más recientes primero.
// La secuencia es perezosa y reiniciable: cada range empieza un recorrido nuevo.
func (uc *UseCase) QueryMovements(ctx context.Context, f repository.MovementFilter) iter.Seq2[entity.Movement, error] {
	return scan(ctx, uc.pageSize,
		func(after *repository.PageCursor, limit int) ([]entity.Movement, error) {
			return uc.movements.ListPage(ctx, f, after, limit)
		},
		func(m entity.Movement) repository.PageCursor { return repository.PageCursor{At: m.CreatedAt, ID: m.ID} },
	)
}

// QueryTransitions recorre el historial de estados con la misma forma que QueryMovements.
func (uc *UseCase) QueryTransitions(ctx context.Context, f repository.TransitionFilter) iter.Seq2[entity.StatusTransition, error] {
	return scan(ctx, uc.pageSize,
		func(after *repository.PageCursor, limit int) ([]entity.StatusTransition, error) {
			return uc.transitions.ListPage(ctx, f, after, limit)
		},
		func(t entity.StatusTransition) repository.PageCursor { return repository.PageCursor{At: t.At, ID: t.ID} },
	)
}

func scan[T any](
	ctx context.Context,
	pageSize int,
	page func(after *repository.PageCursor, limit int) ([]T, error),
	cursor func(T) repository.PageCursor,
) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var after *repository.PageCursor
		for {
			if err := ctx.Err(); err != nil {
				var zero T
				yield(zero, err)
				return
			}
			items, err := page(after, pageSize)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if len(items) < pageSize {
				return
			}
			next := cursor(items[len(items)-1])
			after = &next
		}
	}
}

// ExplainStock compara el stock actual con la suma de movimientos del producto.
func (uc *UseCase) ExplainStock(ctx context.Context, productID string) (*dto.StockExplanation, error) {
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFound("producto", productID)
	}
	totals, err := uc.movements.Totals(ctx, productID)
	if err != nil {
		return nil, err
	}
	byCause := make(map[string]int64, len(totals.ByCause))
	for cause, delta := range totals.ByCause {
		byCause[string(cause)] = delta
	}
	return &dto.StockExplanation{
		ProductID:     product.ID,
		InitialStock:  product.InitialStock,
		CurrentStock:  product.Stock,
		MovementCount: totals.Count,
		Increases:     totals.Increase,
		Decreases:     totals.Decrease,
		NetDelta:      totals.Net(),
		ByCause:       byCause,
		Consistent:    product.InitialStock+totals.Net() == product.Stock,
	}, nil
}

// ReorderSuggestions lista los productos en o bajo su stock mínimo con la cantidad sugerida,
// ordenados por urgencia: agotados primero, luego mayor déficit, luego mayor margen.
func (uc *UseCase) ReorderSuggestions(ctx context.Context) ([]dto.ReorderSuggestion, error) {
	var below []*entity.Product
	for _, status := range []string{entity.StockStatusOutOfStock, entity.StockStatusLowStock} {
		list, err := uc.products.List(ctx, repository.ProductFilter{Status: status})
		if err != nil {
			return nil, err
		}
		below = append(below, list...)
	}
	if len(below) == 0 {
		return []dto.ReorderSuggestion{}, nil
	}

	hundred := decimal.NewFromInt(100)
	suggestions := make([]dto.ReorderSuggestion, 0, len(below))
	for _, p := range below {
		ideal := p.MaxStock
		if ideal <= p.MinStock {
			ideal = (p.MinStock*3 + 1) / 2
		}
		qty := ideal - p.Stock
		if qty < 1 {
			qty = 1
		}
		unitCost := p.AvgCost
		if unitCost.IsZero() {
			unitCost = p.BuyPrice
		}
		var margin decimal.Decimal
		if p.SellPrice.GreaterThan(decimal.Zero) {
			margin = p.SellPrice.Sub(unitCost).Div(p.SellPrice).Mul(hundred).Round(2)
		}
		suggestions = append(suggestions, dto.ReorderSuggestion{
			ProductID:          p.ID,
			SKU:                p.SKU,
			ProductName:        p.Name,
			SupplierID:         p.SupplierID,
			CurrentStock:       p.Stock,
			MinStock:           p.MinStock,
			IdealStock:         ideal,
			SuggestedOrderQty:  qty,
			UnitCost:           unitCost,
			EstimatedOrderCost: unitCost.Mul(decimal.NewFromInt(qty)),
			GrossMarginPct:     margin,
			Status:             p.Status(),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		aOut, bOut := a.CurrentStock <= 0, b.CurrentStock <= 0
		if aOut != bOut {
			return aOut
		}
		defA, defB := a.MinStock-a.CurrentStock, b.MinStock-b.CurrentStock
		if defA != defB {
			return defA > defB
		}
		return a.GrossMarginPct.GreaterThan(b.GrossMarginPct)
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementFilter filtros de la proyección de auditoría sobre movimientos.
type MovementFilter struct {
	ProductID string
	Actor     string
	CauseType entity.CauseType
	CauseID   string
	Direction entity.Direction
	From      *time.Time
	To        *time.Time
}

// PageCursor posición de paginación por llave (created_at DESC, id DESC).
type PageCursor struct {
	At time.Time
	ID string
}

// MovementTotals agregados de movimientos de un producto.
type MovementTotals struct {
	Count    int64
	Increase int64
	Decrease int64
	ByCause  map[entity.CauseType]int64 // delta con signo por tipo de causa
}

// Net devuelve Σ deltas con signo.
func (t MovementTotals) Net() int64 {
	return t.Increase - t.Decrease
}

// MovementReader puerto de solo lectura; es lo único que ve la auditoría.
type MovementReader interface {
	// ListPage devuelve hasta limit movimientos posteriores a after (nil = desde el inicio), más recientes primero.
	ListPage(ctx context.Context, f MovementFilter, after *PageCursor, limit int) ([]entity.Movement, error)
	Totals(ctx context.Context, productID string) (MovementTotals, error)
}

// MovementRepository puerto de persistencia del ledger: solo agrega.
type MovementRepository interface {
	MovementReader
	Append(ctx context.Context, movement *entity.Movement) error
}

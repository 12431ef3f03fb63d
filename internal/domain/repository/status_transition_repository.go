package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// TransitionFilter filtros del historial de estados.
type TransitionFilter struct {
	Workflow string
	RecordID string
	Actor    string
	From     *time.Time
	To       *time.Time
}

// TransitionReader lectura del historial de estados (más recientes primero).
type TransitionReader interface {
	ListPage(ctx context.Context, f TransitionFilter, after *PageCursor, limit int) ([]entity.StatusTransition, error)
}

// TransitionRepository agrega transiciones; nunca las modifica.
type TransitionRepository interface {
	TransitionReader
	Append(ctx context.Context, t *entity.StatusTransition) error
}

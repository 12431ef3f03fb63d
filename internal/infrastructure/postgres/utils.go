package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// mapError traduce errores del driver a errores de dominio. Los conflictos de bloqueo y
// serialización se tratan como ErrConcurrencyConflict para que el ledger reintente.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, pgErr.ConstraintName)
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%w: %s: %s", domain.ErrConcurrencyConflict, op, pgErr.Message)
		}
	}
	return domain.NewPersistenceError(op, err)
}

// conds acumula condiciones WHERE con placeholders numerados.
type conds struct {
	parts []string
	args  []any
}

// add agrega expr con un único %d que se reemplaza por el número del placeholder.
func (c *conds) add(expr string, arg any) {
	c.args = append(c.args, arg)
	c.parts = append(c.parts, fmt.Sprintf(expr, len(c.args)))
}

func (c *conds) addRange(column string, from, to *time.Time) {
	if from != nil {
		c.add(column+" >= $%d", *from)
	}
	if to != nil {
		c.add(column+" < $%d", *to)
	}
}

// addCursor agrega la condición de paginación por llave (column DESC, id DESC).
func (c *conds) addCursor(column string, after *repository.PageCursor) {
	if after == nil {
		return
	}
	c.args = append(c.args, after.At, after.ID)
	n := len(c.args)
	c.parts = append(c.parts, fmt.Sprintf("(%s, id) < ($%d, $%d)", column, n-1, n))
}

func (c *conds) where() string {
	if len(c.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.parts, " AND ")
}

// limit agrega LIMIT/OFFSET si corresponden.
func (c *conds) limit(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		c.args = append(c.args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(c.args))
	}
	if offset > 0 {
		c.args = append(c.args, offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(c.args))
	}
	return b.String()
}

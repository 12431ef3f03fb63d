package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockAdjustmentRepository = (*AdjustmentRepo)(nil)

const adjustmentColumns = `id, product_id, branch_id, type, quantity, reason, reference_number, notes, status,
	created_by, approved_by, approved_at, rejected_by, rejected_at, version, created_at, updated_at`

// AdjustmentRepo persiste ajustes de stock.
type AdjustmentRepo struct {
	q Querier
}

func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

func scanAdjustment(row pgx.Row) (*entity.StockAdjustment, error) {
	var a entity.StockAdjustment
	err := row.Scan(
		&a.ID, &a.ProductID, &a.BranchID, &a.Type, &a.Quantity, &a.Reason, &a.ReferenceNumber, &a.Notes, &a.Status,
		&a.CreatedBy, &a.ApprovedBy, &a.ApprovedAt, &a.RejectedBy, &a.RejectedAt, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.StockAdjustment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_adjustments (`+adjustmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		a.ID, a.ProductID, a.BranchID, a.Type, a.Quantity, a.Reason, a.ReferenceNumber, a.Notes, a.Status,
		a.CreatedBy, a.ApprovedBy, a.ApprovedAt, a.RejectedBy, a.RejectedAt, a.Version, a.CreatedAt, a.UpdatedAt,
	)
	return mapError("insert adjustment", err)
}

func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.StockAdjustment, error) {
	return r.getOne(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE id = $1`, id)
}

func (r *AdjustmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockAdjustment, error) {
	return r.getOne(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE id = $1 FOR UPDATE`, id)
}

func (r *AdjustmentRepo) getOne(ctx context.Context, query, id string) (*entity.StockAdjustment, error) {
	a, err := scanAdjustment(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get adjustment", err)
	}
	return a, nil
}

func (r *AdjustmentRepo) List(ctx context.Context, f repository.AdjustmentFilter) ([]*entity.StockAdjustment, error) {
	var c conds
	if f.Status != "" {
		c.add("status = $%d", f.Status)
	}
	if f.ProductID != "" {
		c.add("product_id = $%d", f.ProductID)
	}
	if f.BranchID != "" {
		c.add("branch_id = $%d", f.BranchID)
	}
	query := `SELECT ` + adjustmentColumns + ` FROM stock_adjustments` + c.where() +
		` ORDER BY created_at DESC, id DESC` + c.limit(f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, mapError("list adjustments", err)
	}
	defer rows.Close()

	var list []*entity.StockAdjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, mapError("scan adjustment", err)
		}
		list = append(list, a)
	}
	return list, mapError("list adjustments", rows.Err())
}

// UpdateStatus persiste la decisión con compare-and-swap de versión.
func (r *AdjustmentRepo) UpdateStatus(ctx context.Context, a *entity.StockAdjustment, expectedVersion int64) error {
	err := r.q.QueryRow(ctx, `
		UPDATE stock_adjustments SET
			status = $2, approved_by = $3, approved_at = $4, rejected_by = $5, rejected_at = $6, notes = $7,
			updated_at = $8, version = version + 1
		WHERE id = $1 AND version = $9
		RETURNING version`,
		a.ID, a.Status, a.ApprovedBy, a.ApprovedAt, a.RejectedBy, a.RejectedAt, a.Notes, a.UpdatedAt, expectedVersion,
	).Scan(&a.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: ajuste %s versión %d", domain.ErrConcurrencyConflict, a.ID, expectedVersion)
	}
	return mapError("update adjustment status", err)
}

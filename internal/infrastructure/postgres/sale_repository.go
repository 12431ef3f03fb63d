package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo persiste ventas de caja.
type SaleRepo struct {
	q Querier
}

func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la cabecera y sus líneas en un solo batch.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	var customer entity.Customer
	if s.Customer != nil {
		customer = *s.Customer
	}
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO sales (id, number, branch_id, payment_method, customer_id, customer_name, customer_phone,
			has_customer, subtotal, tax_rate, tax, total, cashier_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.Number, s.BranchID, s.PaymentMethod, customer.ID, customer.Name, customer.Phone,
		s.Customer != nil, s.Subtotal, s.TaxRate, s.Tax, s.Total, s.CashierID, s.CreatedAt,
	)
	for i, item := range s.Items {
		batch.Queue(`
			INSERT INTO sale_items (id, sale_id, position, product_id, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, s.ID, i, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal,
		)
	}
	return mapError("insert sale", r.q.SendBatch(ctx, batch).Close())
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var s entity.Sale
	var customer entity.Customer
	var hasCustomer bool
	err := r.q.QueryRow(ctx, `
		SELECT id, number, branch_id, payment_method, customer_id, customer_name, customer_phone,
			has_customer, subtotal, tax_rate, tax, total, cashier_id, created_at
		FROM sales WHERE id = $1`, id,
	).Scan(
		&s.ID, &s.Number, &s.BranchID, &s.PaymentMethod, &customer.ID, &customer.Name, &customer.Phone,
		&hasCustomer, &s.Subtotal, &s.TaxRate, &s.Tax, &s.Total, &s.CashierID, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get sale", err)
	}
	if hasCustomer {
		s.Customer = &customer
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, quantity, unit_price, line_total
		FROM sale_items WHERE sale_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, mapError("list sale items", err)
	}
	defer rows.Close()
	for rows.Next() {
		item := entity.SaleItem{SaleID: s.ID}
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, mapError("scan sale item", err)
		}
		s.Items = append(s.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list sale items", err)
	}
	return &s, nil
}

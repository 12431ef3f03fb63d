package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, category, stock, initial_stock, min_stock, max_stock,
	buy_price, sell_price, avg_cost, supplier_id, expiry_date, version, created_at, updated_at`

// Expresión SQL equivalente a entity.Product.Status().
const productStatusExpr = `CASE WHEN stock <= 0 THEN 'out_of_stock'
	WHEN stock <= min_stock THEN 'low_stock' ELSE 'in_stock' END`

// ProductRepo implementación de ProductRepository para PostgreSQL.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el repositorio sobre un pool o una transacción.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.Stock, &p.InitialStock, &p.MinStock, &p.MaxStock,
		&p.BuyPrice, &p.SellPrice, &p.AvgCost, &p.SupplierID, &p.ExpiryDate, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserta un producto. SKU duplicado => domain.ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.Category, p.Stock, p.InitialStock, p.MinStock, p.MaxStock,
		p.BuyPrice, p.SellPrice, p.AvgCost, p.SupplierID, p.ExpiryDate, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	return mapError("insert product", err)
}

// GetByID obtiene un producto por ID. Devuelve (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, "get product", `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetBySKU obtiene un producto por código.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, "get product by sku", `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

// GetForUpdate bloquea la fila hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, "lock product", `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepo) getOne(ctx context.Context, op, query string, arg any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(op, err)
	}
	return p, nil
}

// List devuelve productos ordenados por nombre con filtros opcionales.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var c conds
	if f.Category != "" {
		c.add("category = $%d", f.Category)
	}
	if f.Status != "" {
		c.add("("+productStatusExpr+") = $%d", f.Status)
	}
	query := `SELECT ` + productColumns + ` FROM products` + c.where() + ` ORDER BY name, id`
	query += c.limit(f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, mapError("list products", err)
	}
	defer rows.Close()

	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapError("scan product", err)
		}
		list = append(list, p)
	}
	return list, mapError("list products", rows.Err())
}

// Update modifica metadatos del producto; stock, costo promedio y stock inicial no se tocan.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET
			sku = $2, name = $3, category = $4, min_stock = $5, max_stock = $6,
			buy_price = $7, sell_price = $8, supplier_id = $9, expiry_date = $10,
			updated_at = $11, version = version + 1
		WHERE id = $1
		RETURNING version`
	err := r.q.QueryRow(ctx, query,
		p.ID, p.SKU, p.Name, p.Category, p.MinStock, p.MaxStock,
		p.BuyPrice, p.SellPrice, p.SupplierID, p.ExpiryDate, p.UpdatedAt,
	).Scan(&p.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound("producto", p.ID)
	}
	return mapError("update product", err)
}

// UpdateStock aplica el compare-and-swap de versión. Cero filas => conflicto (o inexistente).
func (r *ProductRepo) UpdateStock(ctx context.Context, id string, stock int64, avgCost decimal.Decimal, expectedVersion int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE products SET stock = $2, avg_cost = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4`,
		id, stock, avgCost, expectedVersion,
	)
	if err != nil {
		return mapError("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: producto %s versión %d", domain.ErrConcurrencyConflict, id, expectedVersion)
	}
	return nil
}

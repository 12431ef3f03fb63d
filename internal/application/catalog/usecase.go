package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// UseCase catálogo de productos. Stock y costo promedio se manejan solo vía ledger.
type UseCase struct {
	repo repository.ProductRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.ProductRepository) *UseCase {
	return &UseCase{repo: repo}
}

// RegisterProduct crea un producto con Stock = InitialStock. No genera movimiento:
// InitialStock es la base contra la que se concilia el ledger.
func (uc *UseCase) RegisterProduct(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		return nil, domain.NewValidationError("sku", "es obligatorio")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewValidationError("name", "es obligatorio")
	}
	if in.InitialStock < 0 {
		return nil, domain.NewValidationError("initial_stock", "no puede ser negativo")
	}
	if err := validateThresholds(in.MinStock, in.MaxStock); err != nil {
		return nil, err
	}
	if err := validatePrices(in.BuyPrice, in.SellPrice); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now().UTC()
	product := &entity.Product{
		ID:           uuid.New().String(),
		SKU:          sku,
		Name:         strings.TrimSpace(in.Name),
		Category:     in.Category,
		Stock:        in.InitialStock,
		InitialStock: in.InitialStock,
		MinStock:     in.MinStock,
		MaxStock:     in.MaxStock,
		BuyPrice:     in.BuyPrice,
		SellPrice:    in.SellPrice,
		AvgCost:      in.BuyPrice,
		SupplierID:   in.SupplierID,
		ExpiryDate:   in.ExpiryDate,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return dto.FromProduct(product), nil
}

// GetProduct obtiene un producto con su estado derivado.
func (uc *UseCase) GetProduct(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFound("producto", id)
	}
	return dto.FromProduct(product), nil
}

// UpdateProduct actualiza metadatos. No permite modificar Stock ni AvgCost.
func (uc *UseCase) UpdateProduct(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFound("producto", id)
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.NewValidationError("name", "no puede quedar vacío")
		}
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.MinStock != nil {
		product.MinStock = *in.MinStock
	}
	if in.MaxStock != nil {
		product.MaxStock = *in.MaxStock
	}
	if err := validateThresholds(product.MinStock, product.MaxStock); err != nil {
		return nil, err
	}
	if in.BuyPrice != nil {
		product.BuyPrice = *in.BuyPrice
	}
	if in.SellPrice != nil {
		product.SellPrice = *in.SellPrice
	}
	if err := validatePrices(product.BuyPrice, product.SellPrice); err != nil {
		return nil, err
	}
	if in.SupplierID != nil {
		product.SupplierID = *in.SupplierID
	}
	if in.ExpiryDate != nil {
		product.ExpiryDate = in.ExpiryDate
	}
	product.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return uc.GetProduct(ctx, id)
}

// ListProducts lista productos por categoría y/o estado derivado.
func (uc *UseCase) ListProducts(ctx context.Context, f repository.ProductFilter) (*dto.ProductListResponse, error) {
	if f.Status != "" {
		f.Status = dto.NormalizeCode(f.Status)
		if !entity.IsValidStockStatus(f.Status) {
			return nil, domain.NewValidationError("status", "debe ser in_stock, low_stock u out_of_stock")
		}
	}
	list, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *dto.FromProduct(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset},
	}, nil
}

func validateThresholds(minStock, maxStock int64) error {
	if minStock < 0 {
		return domain.NewValidationError("min_stock", "no puede ser negativo")
	}
	if maxStock < 0 {
		return domain.NewValidationError("max_stock", "no puede ser negativo")
	}
	if maxStock > 0 && maxStock < minStock {
		return domain.NewValidationError("max_stock", "debe ser mayor o igual a min_stock")
	}
	return nil
}

func validatePrices(buy, sell decimal.Decimal) error {
	if buy.IsNegative() {
		return domain.NewValidationError("buy_price", "no puede ser negativo")
	}
	if sell.IsNegative() {
		return domain.NewValidationError("sell_price", "no puede ser negativo")
	}
	return nil
}

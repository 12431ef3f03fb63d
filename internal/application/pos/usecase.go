package pos

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ReasonSale motivo de los movimientos de una venta.
const ReasonSale = "sale"

// UseCase cobro en caja: todas las líneas del carrito se descuentan en una sola unidad
// atómica; si una falla no queda venta, movimiento ni cambio de stock.
type UseCase struct {
	ledger   *ledger.UseCase
	products repository.ProductReader
	sales    repository.SaleRepository
	taxes    TaxRateProvider
	metrics  ledger.Metrics
}

// NewUseCase construye el caso de uso.
func NewUseCase(l *ledger.UseCase, products repository.ProductReader, sales repository.SaleRepository, taxes TaxRateProvider, metrics ledger.Metrics) *UseCase {
	if metrics == nil {
		metrics = ledger.NopMetrics{}
	}
	return &UseCase{ledger: l, products: products, sales: sales, taxes: taxes, metrics: metrics}
}

// Checkout valida el carrito contra el stock actual, descuenta cada línea y registra la venta.
func (uc *UseCase) Checkout(ctx context.Context, actor string, in dto.CheckoutRequest) (*dto.Receipt, error) {
	payment, err := validateCheckout(actor, in)
	if err != nil {
		return nil, err
	}

	// Validación rápida contra el snapshot: cantidades agregadas por producto.
	requested := make(map[string]int64, len(in.Items))
	catalog := make(map[string]*entity.Product, len(in.Items))
	for _, it := range in.Items {
		requested[it.ProductID] += it.Quantity
		if _, ok := catalog[it.ProductID]; ok {
			continue
		}
		product, err := uc.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.NotFound("producto", it.ProductID)
		}
		catalog[it.ProductID] = product
	}
	for _, it := range in.Items {
		p := catalog[it.ProductID]
		if qty := requested[it.ProductID]; qty > p.Stock {
			return nil, &domain.InsufficientStockError{ProductID: p.ID, Requested: qty, Available: p.Stock}
		}
	}

	rate, err := uc.taxes.RateFor(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}

	sale := &entity.Sale{
		ID:            uuid.New().String(),
		BranchID:      in.BranchID,
		PaymentMethod: payment,
		TaxRate:       rate,
		CashierID:     actor,
	}
	if c := in.Customer; c != nil {
		sale.Customer = &entity.Customer{ID: c.ID, Name: c.Name, Phone: c.Phone}
	}
	subtotal := decimal.Zero
	for _, it := range in.Items {
		price := catalog[it.ProductID].SellPrice
		if it.UnitPrice != nil {
			price = *it.UnitPrice
		}
		line := entity.SaleItem{
			ID:        uuid.New().String(),
			SaleID:    sale.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: price,
			LineTotal: price.Mul(decimal.NewFromInt(it.Quantity)),
		}
		subtotal = subtotal.Add(line.LineTotal)
		sale.Items = append(sale.Items, line)
	}
	sale.Subtotal = subtotal
	sale.Tax = subtotal.Mul(rate).Round(2)
	sale.Total = subtotal.Add(sale.Tax)

	err = uc.ledger.Atomic(ctx, "pos.checkout", func(tx *ledger.Tx) error {
		sale.CreatedAt = tx.Now
		sale.Number = fmt.Sprintf("S-%s-%s", tx.Now.Format("20060102"), strings.ToUpper(sale.ID[:8]))
		for _, line := range sale.Items {
			_, err := tx.Apply(ctx, ledger.MovementCommand{
				ProductID: line.ProductID,
				Direction: entity.DirectionDecrease,
				Quantity:  line.Quantity,
				Reason:    ReasonSale,
				CausedBy:  entity.Cause{Type: entity.CauseSale, ID: sale.ID},
				Actor:     actor,
			})
			if err != nil {
				return err
			}
		}
		return tx.Sales.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.CheckoutCompleted(sale.BranchID, len(sale.Items))
	return dto.FromSale(sale), nil
}

// GetSale obtiene el comprobante de una venta.
func (uc *UseCase) GetSale(ctx context.Context, id string) (*dto.Receipt, error) {
	sale, err := uc.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.NotFound("venta", id)
	}
	return dto.FromSale(sale), nil
}

func validateCheckout(actor string, in dto.CheckoutRequest) (string, error) {
	if strings.TrimSpace(actor) == "" {
		return "", domain.NewValidationError("actor", "es obligatorio")
	}
	if strings.TrimSpace(in.BranchID) == "" {
		return "", domain.NewValidationError("branch_id", "es obligatorio")
	}
	if len(in.Items) == 0 {
		return "", domain.NewValidationError("items", "el carrito está vacío")
	}
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.ProductID) == "" {
			return "", domain.NewValidationError(field+".product_id", "es obligatorio")
		}
		if it.Quantity <= 0 {
			return "", domain.NewValidationError(field+".quantity", "debe ser mayor que cero")
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return "", domain.NewValidationError(field+".unit_price", "no puede ser negativo")
		}
	}
	payment := dto.NormalizeCode(in.PaymentMethod)
	if !entity.IsValidPaymentMethod(payment) {
		return "", domain.NewValidationError("payment_method", fmt.Sprintf("medio de pago desconocido %q", in.PaymentMethod))
	}
	return payment, nil
}

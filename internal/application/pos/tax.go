package pos

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRateProvider entrega la tasa de impuesto (fracción, p. ej. 0.19) de una sucursal.
type TaxRateProvider interface {
	RateFor(ctx context.Context, branchID string) (decimal.Decimal, error)
}

// StaticTaxRates tasa por defecto con sobrescrituras por sucursal, cargadas desde configuración.
type StaticTaxRates struct {
	Default  decimal.Decimal
	ByBranch map[string]decimal.Decimal
}

// RateFor devuelve la tasa de la sucursal o la tasa por defecto.
func (t StaticTaxRates) RateFor(_ context.Context, branchID string) (decimal.Decimal, error) {
	if rate, ok := t.ByBranch[branchID]; ok {
		return rate, nil
	}
	return t.Default, nil
}

// ParseBranchRates interpreta "b1=0.05,b2=0.19". Cadena vacía devuelve un mapa vacío.
func ParseBranchRates(raw string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		branch, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(branch) == "" {
			return nil, fmt.Errorf("tasa por sucursal inválida %q", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("tasa por sucursal %q: %w", pair, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("tasa por sucursal %q fuera de rango [0,1]", pair)
		}
		rates[strings.TrimSpace(branch)] = rate
	}
	return rates, nil
}

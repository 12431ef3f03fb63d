package dto

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockExplanation responde "por qué el stock es X" a partir del ledger.
type StockExplanation struct {
	ProductID     string           `json:"product_id"`
	InitialStock  int64            `json:"initial_stock"`
	CurrentStock  int64            `json:"current_stock"`
	MovementCount int64            `json:"movement_count"`
	Increases     int64            `json:"increases"`
	Decreases     int64            `json:"decreases"`
	NetDelta      int64            `json:"net_delta"`
	ByCause       map[string]int64 `json:"by_cause"`
	Consistent    bool             `json:"consistent"` // InitialStock + NetDelta == CurrentStock
}

// ReorderSuggestion producto en o bajo su stock mínimo con la cantidad sugerida de pedido.
type ReorderSuggestion struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	SupplierID         string          `json:"supplier_id,omitempty"`
	CurrentStock       int64           `json:"current_stock"`
	MinStock           int64           `json:"min_stock"`
	IdealStock         int64           `json:"ideal_stock"`          // MaxStock, o MinStock * 1.5 si no hay máximo
	SuggestedOrderQty  int64           `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo promedio, o de compra si no hay entradas valorizadas
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	GrossMarginPct     decimal.Decimal `json:"gross_margin_pct"`
	Status             string          `json:"status"`
	Priority           int             `json:"priority"` // 1 = más urgente
}

// TransitionResponseItem entrada del historial de estados.
type TransitionResponseItem struct {
	ID       string    `json:"id"`
	Workflow string    `json:"workflow"`
	RecordID string    `json:"record_id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Actor    string    `json:"actor"`
	Note     string    `json:"note,omitempty"`
	At       time.Time `json:"at"`
}

// FromTransition mapea una transición.
func FromTransition(t entity.StatusTransition) TransitionResponseItem {
	return TransitionResponseItem{
		ID:       t.ID,
		Workflow: t.Workflow,
		RecordID: t.RecordID,
		From:     t.From,
		To:       t.To,
		Actor:    t.Actor,
		Note:     t.Note,
		At:       t.At,
	}
}

// MovementListResponse página de la consulta de auditoría. HasMore indica que hay más resultados
// que el límite pedido (acotar con el filtro to para continuar).
type MovementListResponse struct {
	Items   []MovementResponse `json:"items"`
	HasMore bool               `json:"has_more"`
}

// TransitionListResponse página del historial de estados.
type TransitionListResponse struct {
	Items   []TransitionResponseItem `json:"items"`
	HasMore bool                     `json:"has_more"`
}

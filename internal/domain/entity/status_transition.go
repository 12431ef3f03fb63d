package entity

import "time"

// Flujos con historial de estados.
const (
	WorkflowPurchaseOrder   = "purchase_order"
	WorkflowStockAdjustment = "stock_adjustment"
)

// StatusTransition registra un cambio de estado de un flujo (incluida la creación, From vacío).
type StatusTransition struct {
	ID       string
	Workflow string
	RecordID string
	From     string
	To       string
	Actor    string
	Note     string
	At       time.Time
}

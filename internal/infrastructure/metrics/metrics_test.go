package metrics_test

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
)

func TestMetrics_ContadoresDelLedger(t *testing.T) {
	m := metrics.New("inventory")

	m.MovementApplied(entity.DirectionDecrease, entity.CauseSale, 3)
	m.MovementApplied(entity.DirectionDecrease, entity.CauseSale, 2)
	m.ConflictRetried("pos.checkout")
	m.OperationFailed("pos.checkout", &domain.InsufficientStockError{ProductID: "p1"})
	m.OperationFailed("pos.checkout", fmt.Errorf("db: %w", domain.ErrPersistence))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MovementsTotal.WithLabelValues("decrease", "sale")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.MovementUnits.WithLabelValues("decrease")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConflictRetries.WithLabelValues("pos.checkout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationFailures.WithLabelValues("pos.checkout", "insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationFailures.WithLabelValues("pos.checkout", "persistence")))
}

func TestMetrics_HandlerExponeRegistro(t *testing.T) {
	m := metrics.New("inventory")
	m.TransitionApplied(entity.WorkflowPurchaseOrder, "received")
	m.CheckoutCompleted("b1", 2)
	m.RecordHTTPRequest("GET", "/api/products", 200, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "inventory_workflow_transitions_total")
	assert.Contains(t, string(body), "inventory_pos_checkouts_total")
	assert.Contains(t, string(body), "inventory_http_requests_total")
}

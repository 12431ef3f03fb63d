package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ ledger.Metrics = (*Metrics)(nil)

// Metrics contadores Prometheus del motor de inventario y de la API.
type Metrics struct {
	registry *prometheus.Registry

	MovementsTotal      *prometheus.CounterVec
	MovementUnits       *prometheus.CounterVec
	ConflictRetries     *prometheus.CounterVec
	OperationFailures   *prometheus.CounterVec
	TransitionsTotal    *prometheus.CounterVec
	CheckoutsTotal      *prometheus.CounterVec
	CheckoutLines       prometheus.Histogram
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registra las métricas bajo namespace en un registro propio.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		MovementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_movements_total",
			Help:      "Movimientos de stock confirmados",
		}, []string{"direction", "cause"}),
		MovementUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_movement_units_total",
			Help:      "Unidades movidas por dirección",
		}, []string{"direction"}),
		ConflictRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_conflict_retries_total",
			Help:      "Reintentos por conflicto de concurrencia",
		}, []string{"operation"}),
		OperationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operation_failures_total",
			Help:      "Operaciones atómicas fallidas por tipo de error",
		}, []string{"operation", "kind"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_transitions_total",
			Help:      "Cambios de estado de órdenes de compra y ajustes",
		}, []string{"workflow", "to"}),
		CheckoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pos_checkouts_total",
			Help:      "Ventas confirmadas por sucursal",
		}, []string{"branch"}),
		CheckoutLines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pos_checkout_lines",
			Help:      "Líneas por venta",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Solicitudes HTTP",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de solicitudes HTTP",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path"}),
	}
	registry.MustRegister(
		m.MovementsTotal, m.MovementUnits, m.ConflictRetries, m.OperationFailures,
		m.TransitionsTotal, m.CheckoutsTotal, m.CheckoutLines,
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
	)
	return m
}

// Handler expone el registro en formato de texto de Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry devuelve el registro subyacente.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) MovementApplied(direction entity.Direction, cause entity.CauseType, quantity int64) {
	m.MovementsTotal.WithLabelValues(string(direction), string(cause)).Inc()
	m.MovementUnits.WithLabelValues(string(direction)).Add(float64(quantity))
}

func (m *Metrics) ConflictRetried(operation string) {
	m.ConflictRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) OperationFailed(operation string, err error) {
	m.OperationFailures.WithLabelValues(operation, errorKind(err)).Inc()
}

func (m *Metrics) TransitionApplied(workflow, to string) {
	m.TransitionsTotal.WithLabelValues(workflow, to).Inc()
}

func (m *Metrics) CheckoutCompleted(branchID string, lines int) {
	m.CheckoutsTotal.WithLabelValues(branchID).Inc()
	m.CheckoutLines.Observe(float64(lines))
}

// RecordHTTPRequest registra una solicitud atendida. path es la ruta registrada, no la URL.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	default:
		return "persistence"
	}
}

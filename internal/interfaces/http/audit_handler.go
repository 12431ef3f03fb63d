package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const (
	auditDefaultLimit = 100
	auditMaxLimit     = 1000
)

// AuditHandler consultas de solo lectura sobre el ledger y el historial de estados.
type AuditHandler struct {
	uc *audit.UseCase
}

func NewAuditHandler(uc *audit.UseCase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

// Movements godoc
// @Summary      Consultar movimientos
// @Description  Más recientes primero. from/to en RFC3339; to es exclusivo.
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto"
// @Param        actor       query  string  false  "Actor"
// @Param        cause_type  query  string  false  "purchase_order | stock_adjustment | sale | manual"
// @Param        cause_id    query  string  false  "ID de la causa"
// @Param        direction   query  string  false  "increase | decrease"
// @Param        from        query  string  false  "Desde (RFC3339)"
// @Param        to          query  string  false  "Hasta (RFC3339)"
// @Param        limit       query  int     false  "Límite"  default(100)
// @Success      200         {object}  dto.MovementListResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Router       /api/audit/movements [get]
func (h *AuditHandler) Movements(c *fiber.Ctx) error {
	from, to, err := timeRange(c)
	if err != nil {
		return writeError(c, err)
	}
	f := repository.MovementFilter{
		ProductID: c.Query("product_id"),
		Actor:     c.Query("actor"),
		CauseType: entity.CauseType(dto.NormalizeCode(c.Query("cause_type"))),
		CauseID:   c.Query("cause_id"),
		Direction: entity.Direction(dto.NormalizeCode(c.Query("direction"))),
		From:      from,
		To:        to,
	}
	limit := auditLimit(c)

	out := dto.MovementListResponse{Items: make([]dto.MovementResponse, 0)}
	for m, err := range h.uc.QueryMovements(c.UserContext(), f) {
		if err != nil {
			return writeError(c, err)
		}
		if len(out.Items) == limit {
			out.HasMore = true
			break
		}
		out.Items = append(out.Items, dto.FromMovement(m))
	}
	return c.JSON(out)
}

// Transitions godoc
// @Summary      Consultar historial de estados
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        workflow   query  string  false  "purchase_order | stock_adjustment"
// @Param        record_id  query  string  false  "ID del registro"
// @Param        actor      query  string  false  "Actor"
// @Param        from       query  string  false  "Desde (RFC3339)"
// @Param        to         query  string  false  "Hasta (RFC3339)"
// @Param        limit      query  int     false  "Límite"  default(100)
// @Success      200        {object}  dto.TransitionListResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Router       /api/audit/transitions [get]
func (h *AuditHandler) Transitions(c *fiber.Ctx) error {
	from, to, err := timeRange(c)
	if err != nil {
		return writeError(c, err)
	}
	f := repository.TransitionFilter{
		Workflow: dto.NormalizeCode(c.Query("workflow")),
		RecordID: c.Query("record_id"),
		Actor:    c.Query("actor"),
		From:     from,
		To:       to,
	}
	limit := auditLimit(c)

	out := dto.TransitionListResponse{Items: make([]dto.TransitionResponseItem, 0)}
	for t, err := range h.uc.QueryTransitions(c.UserContext(), f) {
		if err != nil {
			return writeError(c, err)
		}
		if len(out.Items) == limit {
			out.HasMore = true
			break
		}
		out.Items = append(out.Items, dto.FromTransition(t))
	}
	return c.JSON(out)
}

// Explain godoc
// @Summary      Explicar el stock de un producto
// @Description  Concilia stock inicial + Σ movimientos contra el stock actual.
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockExplanation
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/audit/products/{id}/explain [get]
func (h *AuditHandler) Explain(c *fiber.Ctx) error {
	out, err := h.uc.ExplainStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reorder godoc
// @Summary      Sugerencias de reposición
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReorderSuggestion
// @Router       /api/audit/reorder [get]
func (h *AuditHandler) Reorder(c *fiber.Ctx) error {
	out, err := h.uc.ReorderSuggestions(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func auditLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("limit", auditDefaultLimit)
	if limit <= 0 {
		return auditDefaultLimit
	}
	return min(limit, auditMaxLimit)
}

func timeRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if from, err = queryTime(c, "from"); err != nil {
		return nil, nil, err
	}
	if to, err = queryTime(c, "to"); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, domain.NewValidationError("from", "debe ser anterior a to")
	}
	return from, to, nil
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "debe ser RFC3339")
	}
	return &t, nil
}

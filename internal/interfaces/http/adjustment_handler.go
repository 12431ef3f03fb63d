package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/adjustment"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// AdjustmentHandler maneja ajustes de stock sujetos a aprobación.
type AdjustmentHandler struct {
	uc *adjustment.UseCase
}

func NewAdjustmentHandler(uc *adjustment.UseCase) *AdjustmentHandler {
	return &AdjustmentHandler{uc: uc}
}

// Create godoc
// @Summary      Crear ajuste de stock (pendiente)
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAdjustmentRequest  true  "Ajuste"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.BranchID == "" {
		in.BranchID = GetBranchID(c)
	}
	adj, err := h.uc.CreateAdjustment(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromAdjustment(adj))
}

// GetByID godoc
// @Summary      Obtener ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id} [get]
func (h *AdjustmentHandler) GetByID(c *fiber.Ctx) error {
	adj, err := h.uc.GetAdjustment(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromAdjustment(adj))
}

// List godoc
// @Summary      Listar ajustes
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        status      query  string  false  "pending | approved | rejected"
// @Param        product_id  query  string  false  "Producto"
// @Param        branch_id   query  string  false  "Sucursal"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200         {object}  dto.AdjustmentListResponse
// @Router       /api/adjustments [get]
func (h *AdjustmentHandler) List(c *fiber.Ctx) error {
	page := pageFrom(c)
	list, err := h.uc.ListAdjustments(c.UserContext(), repository.AdjustmentFilter{
		Status:    entity.AdjustmentStatus(dto.NormalizeCode(c.Query("status"))),
		ProductID: c.Query("product_id"),
		BranchID:  c.Query("branch_id"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.AdjustmentListResponse{
		Items: make([]dto.AdjustmentResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, adj := range list {
		out.Items = append(out.Items, dto.FromAdjustment(adj))
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar ajuste
// @Description  Aplica el movimiento exactamente una vez. Si el stock no alcanza, el ajuste sigue pendiente.
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/approve [post]
func (h *AdjustmentHandler) Approve(c *fiber.Ctx) error {
	adj, err := h.uc.ApproveAdjustment(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromAdjustment(adj))
}

// Reject godoc
// @Summary      Rechazar ajuste
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del ajuste"
// @Param        body  body  dto.RejectAdjustmentRequest  false  "Nota"
// @Success      200   {object}  dto.AdjustmentResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/reject [post]
func (h *AdjustmentHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectAdjustmentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	adj, err := h.uc.RejectAdjustment(c.UserContext(), c.Params("id"), GetUserID(c), in.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromAdjustment(adj))
}

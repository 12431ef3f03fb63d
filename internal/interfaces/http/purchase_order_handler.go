package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/purchasing"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// PurchaseOrderHandler maneja órdenes de compra (protegido).
type PurchaseOrderHandler struct {
	uc *purchasing.UseCase
}

func NewPurchaseOrderHandler(uc *purchasing.UseCase) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "Cabecera y líneas"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.BranchID == "" {
		in.BranchID = GetBranchID(c)
	}
	po, err := h.uc.CreatePurchaseOrder(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromPurchaseOrder(po))
}

// GetByID godoc
// @Summary      Obtener orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *fiber.Ctx) error {
	po, err := h.uc.GetPurchaseOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// List godoc
// @Summary      Listar órdenes de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "Estado"
// @Param        supplier_id  query  string  false  "Proveedor"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200          {object}  dto.PurchaseOrderListResponse
// @Router       /api/purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *fiber.Ctx) error {
	page := pageFrom(c)
	list, err := h.uc.ListPurchaseOrders(c.UserContext(), repository.PurchaseOrderFilter{
		Status:     entity.PurchaseOrderStatus(dto.NormalizeCode(c.Query("status"))),
		SupplierID: c.Query("supplier_id"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.PurchaseOrderListResponse{
		Items: make([]dto.PurchaseOrderResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, po := range list {
		out.Items = append(out.Items, dto.FromPurchaseOrder(po))
	}
	return c.JSON(out)
}

// UpdateItems godoc
// @Summary      Reemplazar líneas de una orden pendiente
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.UpdatePurchaseOrderItemsRequest  true  "Líneas nuevas"
// @Success      200   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/items [put]
func (h *PurchaseOrderHandler) UpdateItems(c *fiber.Ctx) error {
	var in dto.UpdatePurchaseOrderItemsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	po, err := h.uc.UpdatePurchaseOrderItems(c.UserContext(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// Transition godoc
// @Summary      Cambiar estado de una orden
// @Description  pending → approved → ordered → received; cancelled desde cualquier estado no terminal.
// @Description  Recibir una orden ya recibida es un no-op (applied=false).
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.TransitionPurchaseOrderRequest  true  "Estado destino"
// @Success      200   {object}  dto.TransitionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/transitions [post]
func (h *PurchaseOrderHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionPurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	next := entity.PurchaseOrderStatus(dto.NormalizeCode(in.Status))
	po, applied, err := h.uc.TransitionPurchaseOrder(c.UserContext(), c.Params("id"), next, GetUserID(c), in.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TransitionResponse{Order: dto.FromPurchaseOrder(po), Applied: applied})
}

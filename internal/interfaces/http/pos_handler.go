package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/pos"
)

// POSHandler caja: checkout atómico y consulta de comprobantes.
type POSHandler struct {
	uc *pos.UseCase
}

func NewPOSHandler(uc *pos.UseCase) *POSHandler {
	return &POSHandler{uc: uc}
}

// Checkout godoc
// @Summary      Cobrar carrito
// @Description  Todo o nada: si una línea no tiene stock no se registra la venta ni ningún movimiento.
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "Carrito"
// @Success      201   {object}  dto.Receipt
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pos/checkout [post]
func (h *POSHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.BranchID == "" {
		in.BranchID = GetBranchID(c)
	}
	receipt, err := h.uc.Checkout(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(receipt)
}

// GetSale godoc
// @Summary      Obtener comprobante de venta
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.Receipt
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pos/sales/{id} [get]
func (h *POSHandler) GetSale(c *fiber.Ctx) error {
	receipt, err := h.uc.GetSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(receipt)
}

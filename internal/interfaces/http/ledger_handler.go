package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// LedgerHandler expone movimientos manuales (causa manual).
type LedgerHandler struct {
	uc *ledger.UseCase
}

func NewLedgerHandler(uc *ledger.UseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// ApplyMovement godoc
// @Summary      Registrar movimiento manual
// @Description  Aplica una entrada o salida con causa manual. reference identifica la causa; si falta se genera.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ManualMovementRequest  true  "product_id, direction, quantity, reason"
// @Success      201   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [post]
func (h *LedgerHandler) ApplyMovement(c *fiber.Ctx) error {
	var in dto.ManualMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	causeID := strings.TrimSpace(in.Reference)
	if causeID == "" {
		causeID = uuid.New().String()
	}
	stock, err := h.uc.ApplyMovement(c.UserContext(), ledger.MovementCommand{
		ProductID: in.ProductID,
		Direction: entity.Direction(dto.NormalizeCode(in.Direction)),
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		CausedBy:  entity.Cause{Type: entity.CauseManual, ID: causeID},
		Actor:     GetUserID(c),
		UnitCost:  in.UnitCost,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.StockResponse{ProductID: in.ProductID, Stock: stock})
}

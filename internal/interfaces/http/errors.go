package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// writeError traduce un error de dominio a status HTTP y dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		validation *domain.ValidationError
		stock      *domain.InsufficientStockError
		transition *domain.StateTransitionError
		fiberErr   *fiber.Error
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: err.Error(),
			Details: map[string]any{"field": validation.Field, "reason": validation.Reason},
		}
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.As(err, &stock):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: err.Error(),
			Details: map[string]any{"product_id": stock.ProductID, "requested": stock.Requested, "available": stock.Available},
		}
	case errors.As(err, &transition):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code:    "INVALID_STATE_TRANSITION",
			Message: err.Error(),
			Details: map[string]any{"workflow": transition.Workflow, "id": transition.ID, "from": transition.From, "to": transition.To},
		}
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INVALID_STATE_TRANSITION", Message: err.Error()}
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONCURRENCY_CONFLICT", Message: "conflicto de concurrencia, reintente"}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, dto.ErrorResponse{Code: "TIMEOUT", Message: "tiempo de espera agotado"}
	case errors.Is(err, domain.ErrPersistence):
		// La causa del driver no se expone al cliente.
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "PERSISTENCE", Message: domain.ErrPersistence.Error()}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, dto.ErrorResponse{Code: "HTTP_ERROR", Message: fiberErr.Message}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	}
}

// ErrorHandler reemplaza el handler por defecto de fiber (panics recuperados, rutas inexistentes).
func ErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

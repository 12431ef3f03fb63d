package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrValidation             = errors.New("entrada inválida")
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
	ErrConcurrencyConflict    = errors.New("conflicto de concurrencia")
	ErrPersistence            = errors.New("fallo de persistencia")
)

// ValidationError indica el campo rechazado antes de tocar el estado.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError construye un ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError lleva el contexto necesario para un mensaje accionable.
type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: producto %s solicitado %d disponible %d", ErrInsufficientStock, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StateTransitionError describe una arista no permitida de una máquina de estados.
type StateTransitionError struct {
	Workflow string
	ID       string
	From     string
	To       string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s: %s %s de %q a %q", ErrInvalidStateTransition, e.Workflow, e.ID, e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// PersistenceError envuelve un error de la capa de almacenamiento.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError construye el error; Op describe la operación ("insert movement", etc.).
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// NotFound envuelve ErrNotFound con el tipo y el identificador buscado.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrUserNotFound         = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists   = errors.New("el email ya está registrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrInsufficientStock    = errors.New("stock insuficiente")
	ErrOverReceipt          = errors.New("cantidad recibida excede lo pendiente")
	ErrInvalidTransferState = errors.New("operación no permitida en el estado actual del traslado")
)

// ValidationError señala qué campo de la petición violó una regla.
// errors.Is(err, ErrInvalidInput) == true.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("entrada inválida: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// InsufficientStockError lista todos los productos sin stock suficiente en el
// despacho. El despacho es todo-o-nada: si aparece este error no se descontó nada.
// errors.Is(err, ErrInsufficientStock) == true.
type InsufficientStockError struct {
	BranchID   string
	ProductIDs []string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en sucursal %s para productos: %s",
		e.BranchID, strings.Join(e.ProductIDs, ", "))
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// OverReceiptError indica una línea de recepción que excede lo pendiente del ítem.
// La recepción completa se rechaza sin aplicar ninguna línea.
// errors.Is(err, ErrOverReceipt) == true.
type OverReceiptError struct {
	ItemID    string
	Requested int64
	Remaining int64
}

func (e *OverReceiptError) Error() string {
	return fmt.Sprintf("recepción excede lo pendiente: ítem %s solicita %d, pendiente %d",
		e.ItemID, e.Requested, e.Remaining)
}

func (e *OverReceiptError) Is(target error) bool { return target == ErrOverReceipt }

// TransferStateError indica una transición ilegal de la máquina de estados.
// errors.Is(err, ErrInvalidTransferState) == true.
type TransferStateError struct {
	TransferID string
	Status     string
	Operation  string
}

func (e *TransferStateError) Error() string {
	return fmt.Sprintf("traslado %s en estado %s no admite la operación %s",
		e.TransferID, e.Status, e.Operation)
}

func (e *TransferStateError) Is(target error) bool { return target == ErrInvalidTransferState }

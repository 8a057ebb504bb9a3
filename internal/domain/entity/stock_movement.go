package entity

import "time"

// Motivos de movimiento del libro de stock. Cada mutación del on-hand
// se registra con su motivo y referencia al traslado, en la misma transacción.
const (
	MovementReasonShip          = "transfer-ship"
	MovementReasonReceive       = "transfer-receive"
	MovementReasonCancelRestock = "transfer-cancel-restock"
)

// StockMovement es el registro de auditoría de una mutación del libro:
// delta negativo al despachar, positivo al recibir o reponer por cancelación.
type StockMovement struct {
	ID         string
	CompanyID  string
	BranchID   string
	ProductID  string
	TransferID string
	Reason     string
	Quantity   int64 // delta aplicado al on-hand
	CreatedAt  time.Time
	CreatedBy  string // UserID
}

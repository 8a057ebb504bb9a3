package entity

import "time"

// Acciones auditables del ciclo de vida de un traslado.
const (
	AuditActionTransferCreate  = "transfer.create"
	AuditActionTransferShip    = "transfer.ship"
	AuditActionTransferReceive = "transfer.receive"
	AuditActionTransferCancel  = "transfer.cancel"
)

// AuditEntry es una entrada del log de actividad: quién hizo qué sobre qué
// traslado. BranchID, ProductID y Delta son opcionales según la acción.
type AuditEntry struct {
	ID         string
	CompanyID  string
	ActorID    string
	Action     string
	TransferID string
	BranchID   string
	ProductID  string
	Delta      *int64
	CreatedAt  time.Time
}

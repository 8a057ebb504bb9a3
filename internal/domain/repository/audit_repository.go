package repository

import "github.com/invorya/transfers-api/internal/domain/entity"

// AuditRepository define el puerto del log de actividad. Las entradas de un
// cambio de estado se escriben en la misma transacción que el cambio.
type AuditRepository interface {
	Create(entry *entity.AuditEntry) error
	ListByTransfer(transferID string) ([]*entity.AuditEntry, error)
}

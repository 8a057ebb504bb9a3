package repository

import (
	"time"

	"github.com/invorya/transfers-api/internal/domain/entity"
)

// TransferFilter filtros para listar traslados de una empresa.
// BranchID coincide contra origen o destino.
type TransferFilter struct {
	CompanyID string
	Status    string
	BranchID  string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// TransferRepository define el puerto de persistencia del agregado Transfer
// (cabecera + ítems como unidad). GetByIDForUpdate bloquea la fila de la
// cabecera para serializar operaciones concurrentes sobre el mismo traslado.
type TransferRepository interface {
	Create(t *entity.Transfer) error
	GetByID(id string) (*entity.Transfer, error)
	GetByIDForUpdate(id string) (*entity.Transfer, error)
	// UpdateStatus transiciona fromStatus → toStatus con guarda de estado esperado:
	// si la fila ya no está en fromStatus devuelve domain.ErrConflict.
	// shippedAt/receivedAt solo se escriben si vienen no-nil (se asignan una vez).
	UpdateStatus(id, fromStatus, toStatus string, shippedAt, receivedAt *time.Time) error
	UpdateItemReceived(itemID string, receivedQty int64) error
	List(filter TransferFilter) ([]*entity.Transfer, error)
	// NextTransferNumber devuelve el siguiente consecutivo de la empresa
	// (secuencia por tenant; nunca se reutiliza un número).
	NextTransferNumber(companyID string) (string, error)
}

package repository

import (
	"time"

	"github.com/invorya/transfers-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para los
// movimientos del libro de stock (auditoría de cada mutación del on-hand).
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	ListByTransfer(transferID string) ([]*entity.StockMovement, error)
	ListByBranch(branchID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
}

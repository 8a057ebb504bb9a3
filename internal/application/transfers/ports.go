package transfers

import (
	"context"

	"github.com/invorya/transfers-api/internal/domain/entity"
	"github.com/invorya/transfers-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Cada operación del ciclo de vida (ship,
// receive, cancel) corre completa dentro de una sola transacción: o se
// confirma todo o no se aplica nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		transferRepo repository.TransferRepository,
		stockRepo repository.StockRepository,
		movementRepo repository.StockMovementRepository,
		auditRepo repository.AuditRepository,
	) error) error
}

// Broadcaster publica eventos del ciclo de vida a los clientes conectados
// (websocket). La publicación ocurre después del commit, nunca dentro de la tx.
type Broadcaster interface {
	Publish(message []byte)
}

// NoteLine línea enriquecida para la nota de traslado (PDF).
type NoteLine struct {
	SKU         string
	ProductName string
	Quantity    int64
	ReceivedQty int64
}

// TransferNotePDFGenerator genera la nota de traslado imprimible.
type TransferNotePDFGenerator interface {
	GenerateTransferNote(ctx context.Context, transfer *entity.Transfer, from, to *entity.Branch, lines []NoteLine) ([]byte, error)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/invorya/transfers-api/internal/application/transfers"
	"github.com/invorya/transfers-api/internal/domain"
	"github.com/invorya/transfers-api/internal/domain/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure TxRunner implements transfers.TxRunner.
var _ transfers.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	transferRepo repository.TransferRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	transferRepo := NewTransferRepository(tx)
	stockRepo := NewStockRepository(tx)
	movementRepo := NewStockMovementRepository(tx)
	auditRepo := NewAuditRepository(tx)

	if err := fn(transferRepo, stockRepo, movementRepo, auditRepo); err != nil {
		if isRetryableAbort(err) {
			return fmt.Errorf("%w: transacción abortada por concurrencia", domain.ErrConflict)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isRetryableAbort(err) {
			return fmt.Errorf("%w: transacción abortada por concurrencia", domain.ErrConflict)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

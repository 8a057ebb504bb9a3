package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invorya/transfers-api/internal/domain/entity"
	"github.com/invorya/transfers-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo implementación del log de actividad sobre PostgreSQL (usable con pool o tx).
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Create persiste una entrada de auditoría.
func (r *AuditRepo) Create(entry *entity.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		INSERT INTO audit_log (id, company_id, actor_id, action, transfer_id, branch_id, product_id, delta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	branchID := (*string)(nil)
	if entry.BranchID != "" {
		branchID = &entry.BranchID
	}
	productID := (*string)(nil)
	if entry.ProductID != "" {
		productID = &entry.ProductID
	}
	_, err := r.q.Exec(context.Background(), query,
		entry.ID, entry.CompanyID, entry.ActorID, entry.Action, entry.TransferID,
		branchID, productID, entry.Delta, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

// ListByTransfer lista las entradas de auditoría de un traslado, en orden cronológico.
func (r *AuditRepo) ListByTransfer(transferID string) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, company_id, actor_id, action, transfer_id, branch_id, product_id, delta, created_at
		FROM audit_log WHERE transfer_id = $1 ORDER BY created_at ASC`
	rows, err := r.q.Query(context.Background(), query, transferID)
	if err != nil {
		return nil, fmt.Errorf("list audit by transfer: %w", err)
	}
	defer rows.Close()
	var list []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		var branchID, productID *string
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.ActorID, &e.Action, &e.TransferID,
			&branchID, &productID, &e.Delta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if branchID != nil {
			e.BranchID = *branchID
		}
		if productID != nil {
			e.ProductID = *productID
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

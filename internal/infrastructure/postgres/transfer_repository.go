package postgres

import (
	"context"
	"errors"
	"fmt"

	"time"

	"github.com/invorya/transfers-api/internal/domain"
	"github.com/invorya/transfers-api/internal/domain/entity"
	"github.com/invorya/transfers-api/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación del agregado Transfer sobre PostgreSQL (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, transfer_number, company_id, from_branch_id, to_branch_id, status, notes, initiated_by, created_at, shipped_at, received_at`

// Create persiste cabecera e ítems del traslado.
func (r *TransferRepo) Create(t *entity.Transfer) error {
	query := `
		INSERT INTO transfers (id, transfer_number, company_id, from_branch_id, to_branch_id, status, notes, initiated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, t.TransferNumber, t.CompanyID, t.FromBranchID, t.ToBranchID,
		t.Status, t.Notes, t.InitiatedBy, t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	itemQuery := `
		INSERT INTO transfer_items (id, transfer_id, product_id, quantity, received_qty)
		VALUES ($1, $2, $3, $4, $5)`
	for i := range t.Items {
		item := &t.Items[i]
		_, err := r.q.Exec(context.Background(), itemQuery,
			item.ID, item.TransferID, item.ProductID, item.Quantity, item.ReceivedQty,
		)
		if err != nil {
			return fmt.Errorf("insert transfer item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el traslado con sus ítems. Devuelve (nil, nil) si no existe.
func (r *TransferRepo) GetByID(id string) (*entity.Transfer, error) {
	return r.get(id, false)
}

// GetByIDForUpdate obtiene el traslado bloqueando la cabecera (SELECT FOR UPDATE).
// Serializa ship/receive/cancel concurrentes sobre el mismo traslado.
func (r *TransferRepo) GetByIDForUpdate(id string) (*entity.Transfer, error) {
	return r.get(id, true)
}

func (r *TransferRepo) get(id string, forUpdate bool) (*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var t entity.Transfer
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&t.ID, &t.TransferNumber, &t.CompanyID, &t.FromBranchID, &t.ToBranchID,
		&t.Status, &t.Notes, &t.InitiatedBy, &t.CreatedAt, &t.ShippedAt, &t.ReceivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	items, err := r.loadItems([]string{t.ID})
	if err != nil {
		return nil, err
	}
	t.Items = items[t.ID]
	return &t, nil
}

// UpdateStatus transiciona el estado con guarda de estado esperado. Si la fila
// ya no está en fromStatus (otra transacción ganó) devuelve domain.ErrConflict.
// shipped_at/received_at se escriben una sola vez (COALESCE conserva lo ya asignado).
func (r *TransferRepo) UpdateStatus(id, fromStatus, toStatus string, shippedAt, receivedAt *time.Time) error {
	query := `
		UPDATE transfers
		SET status = $3,
		    shipped_at = COALESCE(shipped_at, $4),
		    received_at = COALESCE(received_at, $5)
		WHERE id = $1 AND status = $2`
	cmd, err := r.q.Exec(context.Background(), query, id, fromStatus, toStatus, shippedAt, receivedAt)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// UpdateItemReceived fija el acumulado recibido de un ítem.
func (r *TransferRepo) UpdateItemReceived(itemID string, receivedQty int64) error {
	query := `UPDATE transfer_items SET received_qty = $2 WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query, itemID, receivedQty)
	if err != nil {
		return fmt.Errorf("update item received: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista traslados de una empresa con filtros opcionales (estado, sucursal
// origen o destino, rango de fechas de creación). Ítems cargados en batch.
func (r *TransferRepo) List(filter repository.TransferFilter) ([]*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE company_id = $1`
	args := []any{filter.CompanyID}
	pos := 2
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, filter.Status)
		pos++
	}
	if filter.BranchID != "" {
		query += fmt.Sprintf(" AND (from_branch_id = $%d OR to_branch_id = $%d)", pos, pos)
		args = append(args, filter.BranchID)
		pos++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *filter.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Transfer
	var ids []string
	for rows.Next() {
		var t entity.Transfer
		if err := rows.Scan(&t.ID, &t.TransferNumber, &t.CompanyID, &t.FromBranchID, &t.ToBranchID,
			&t.Status, &t.Notes, &t.InitiatedBy, &t.CreatedAt, &t.ShippedAt, &t.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, &t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}
	items, err := r.loadItems(ids)
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		t.Items = items[t.ID]
	}
	return list, nil
}

// NextTransferNumber incrementa y devuelve el consecutivo de la empresa.
// Upsert atómico sobre transfer_sequences: la fila de la secuencia queda
// bloqueada hasta el commit, por lo que dos creaciones concurrentes nunca
// obtienen el mismo número.
func (r *TransferRepo) NextTransferNumber(companyID string) (string, error) {
	query := `
		INSERT INTO transfer_sequences (company_id, last_value)
		VALUES ($1, 1)
		ON CONFLICT (company_id)
		DO UPDATE SET last_value = transfer_sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(context.Background(), query, companyID).Scan(&n); err != nil {
		return "", fmt.Errorf("next transfer number: %w", err)
	}
	return fmt.Sprintf("TR-%06d", n), nil
}

// loadItems carga los ítems de varios traslados en una sola consulta,
// ordenados por product_id para un recorrido determinista.
func (r *TransferRepo) loadItems(transferIDs []string) (map[string][]entity.TransferItem, error) {
	query := `
		SELECT id, transfer_id, product_id, quantity, received_qty
		FROM transfer_items WHERE transfer_id = ANY($1)
		ORDER BY transfer_id, product_id`
	rows, err := r.q.Query(context.Background(), query, transferIDs)
	if err != nil {
		return nil, fmt.Errorf("load transfer items: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]entity.TransferItem, len(transferIDs))
	for rows.Next() {
		var item entity.TransferItem
		if err := rows.Scan(&item.ID, &item.TransferID, &item.ProductID, &item.Quantity, &item.ReceivedQty); err != nil {
			return nil, fmt.Errorf("scan transfer item: %w", err)
		}
		result[item.TransferID] = append(result[item.TransferID], item)
	}
	return result, rows.Err()
}

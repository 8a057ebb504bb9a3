package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/invorya/transfers-api/internal/domain/entity"
	"github.com/invorya/transfers-api/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una sucursal.
// Si no hay fila, se interpreta como stock cero.
func (r *StockRepo) Get(branchID, productID string) (*entity.Stock, error) {
	query := `
		SELECT branch_id, product_id, quantity, updated_at
		FROM stock WHERE branch_id = $1 AND product_id = $2`
	var s entity.Stock
	err := r.q.QueryRow(context.Background(), query, branchID, productID).Scan(
		&s.BranchID, &s.ProductID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{BranchID: branchID, ProductID: productID, Quantity: 0}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock (por sucursal y producto).
func (r *StockRepo) Upsert(stock *entity.Stock) error {
	query := `
		INSERT INTO stock (branch_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (branch_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query, stock.BranchID, stock.ProductID, stock.Quantity)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
// Si la fila no existe todavía se materializa primero con cantidad cero:
// un SELECT FOR UPDATE sobre cero filas no bloquea nada, y dos transacciones
// que reciben el primer lote del mismo producto leerían ambas cantidad cero
// y la última en confirmar pisaría las unidades de la otra.
func (r *StockRepo) GetForUpdate(branchID, productID string) (*entity.Stock, error) {
	insert := `
		INSERT INTO stock (branch_id, product_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (branch_id, product_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), insert, branchID, productID); err != nil {
		return nil, fmt.Errorf("materializar fila de stock: %w", err)
	}
	query := `
		SELECT branch_id, product_id, quantity, updated_at
		FROM stock WHERE branch_id = $1 AND product_id = $2
		FOR UPDATE`
	var s entity.Stock
	err := r.q.QueryRow(context.Background(), query, branchID, productID).Scan(
		&s.BranchID, &s.ProductID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &s, nil
}

package repository

import "github.com/invorya/transfers-api/internal/domain/entity"

// StockRepository define el puerto del libro de stock por sucursal+producto.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	Get(branchID, productID string) (*entity.Stock, error)
	Upsert(stock *entity.Stock) error
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE): es el punto
	// de serialización entre traslados que compiten por el mismo stock.
	GetForUpdate(branchID, productID string) (*entity.Stock, error)
}

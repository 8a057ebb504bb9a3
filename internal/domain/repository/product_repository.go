package repository

import "github.com/invorya/transfers-api/internal/domain/entity"

// ProductRepository define el puerto del catálogo de productos.
// El motor de traslados lo consume solo como referencia de lectura.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySKU(companyID, sku string) (*entity.Product, error)
	ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error)
}

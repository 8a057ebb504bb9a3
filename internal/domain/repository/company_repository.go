package repository

import "github.com/invorya/transfers-api/internal/domain/entity"

// CompanyRepository define el puerto de persistencia para Company (tenant).
type CompanyRepository interface {
	Create(company *entity.Company) error
	GetByID(id string) (*entity.Company, error)
	List(limit, offset int) ([]*entity.Company, error)
}

package entity

import "time"

// Company representa la empresa (tenant). Sucursales, productos y traslados
// pertenecen siempre a una empresa; no existen traslados entre empresas.
type Company struct {
	ID        string
	Name      string
	TaxID     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo (dato de referencia para el
// motor de traslados: solo productos almacenables mueven stock).
type Product struct {
	ID          string
	CompanyID   string
	SKU         string // código único por empresa
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta (referencia)
	Cost        decimal.Decimal // costo promedio (referencia, no lo calcula este motor)
	IsService   bool            // true = servicio, no almacenable: no participa en traslados
	UnitMeasure string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

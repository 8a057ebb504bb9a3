package entity

import "time"

// Stock representa la existencia actual de un producto en una sucursal.
// Es la única fuente de verdad del on-hand; Quantity nunca es negativa.
type Stock struct {
	BranchID  string
	ProductID string
	Quantity  int64
	UpdatedAt time.Time
}

package dto

import "time"

// CreateTransferItem línea de un traslado nuevo.
type CreateTransferItem struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	FromBranchID string               `json:"from_branch_id" validate:"required,uuid"`
	ToBranchID   string               `json:"to_branch_id" validate:"required,uuid"`
	Notes        string               `json:"notes" validate:"omitempty,max=2000"`
	Items        []CreateTransferItem `json:"items" validate:"required,min=1,dive"`
}

// ReceiveTransferLine línea de recepción: ítem del traslado y cantidad que llega ahora.
type ReceiveTransferLine struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
}

// ReceiveTransferRequest body para POST /api/transfers/{id}/receive.
// Los ítems no incluidos quedan pendientes (recepción parcial repetible).
type ReceiveTransferRequest struct {
	Lines []ReceiveTransferLine `json:"lines" validate:"required,min=1,dive"`
}

// TransferItemResponse línea de traslado con cantidades derivadas.
type TransferItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int64  `json:"quantity"`
	ReceivedQty int64  `json:"received_qty"`
	Remaining   int64  `json:"remaining"`
}

// TransferResponse salida de un traslado con avance de recepción.
type TransferResponse struct {
	ID             string                 `json:"id"`
	TransferNumber string                 `json:"transfer_number"`
	CompanyID      string                 `json:"company_id"`
	FromBranchID   string                 `json:"from_branch_id"`
	ToBranchID     string                 `json:"to_branch_id"`
	Status         string                 `json:"status"`
	Notes          string                 `json:"notes,omitempty"`
	InitiatedBy    string                 `json:"initiated_by"`
	CreatedAt      time.Time              `json:"created_at"`
	ShippedAt      *time.Time             `json:"shipped_at,omitempty"`
	ReceivedAt     *time.Time             `json:"received_at,omitempty"`
	Completion     float64                `json:"completion"`
	Items          []TransferItemResponse `json:"items"`
}

// TransferListResponse lista paginada de traslados.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ListTransfersQuery filtros de GET /api/transfers.
type ListTransfersQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=PENDING IN_TRANSIT RECEIVED CANCELLED"`
	BranchID string `query:"branch_id" validate:"omitempty,uuid"`
	From     string `query:"from"` // fecha ISO-8601, opcional
	To       string `query:"to"`
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
}

// StockMovementResponse movimiento del libro asociado a un traslado.
type StockMovementResponse struct {
	ID        string    `json:"id"`
	BranchID  string    `json:"branch_id"`
	ProductID string    `json:"product_id"`
	Reason    string    `json:"reason"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// AvailabilityResponse respuesta de la consulta de disponibilidad.
// Es una guía de UI: el stock puede cambiar entre la consulta y el despacho;
// la verificación vinculante ocurre al despachar.
type AvailabilityResponse struct {
	BranchID  string `json:"branch_id"`
	ProductID string `json:"product_id"`
	OnHand    int64  `json:"on_hand"`
	Requested int64  `json:"requested"`
	Available bool   `json:"available"`
}

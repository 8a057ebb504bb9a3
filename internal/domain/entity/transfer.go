package entity

import "time"

// Estados del ciclo de vida de un traslado.
// PENDING → IN_TRANSIT → RECEIVED (terminal); PENDING|IN_TRANSIT → CANCELLED (terminal).
const (
	TransferStatusPending   = "PENDING"
	TransferStatusInTransit = "IN_TRANSIT"
	TransferStatusReceived  = "RECEIVED"
	TransferStatusCancelled = "CANCELLED"
)

// Transfer representa un traslado de stock entre dos sucursales de la misma empresa.
// El agregado (cabecera + ítems) se muta solo vía las operaciones ship/receive/cancel;
// una vez RECEIVED o CANCELLED es inmutable.
type Transfer struct {
	ID             string
	TransferNumber string // consecutivo legible, único por empresa, asignado al crear
	CompanyID      string
	FromBranchID   string
	ToBranchID     string
	Status         string
	Notes          string
	InitiatedBy    string // UserID
	CreatedAt      time.Time
	ShippedAt      *time.Time // se asigna una sola vez, al despachar
	ReceivedAt     *time.Time // se asigna una sola vez, al completar la recepción
	Items          []TransferItem
}

// TransferItem es una línea del traslado. Quantity es lo autorizado a despachar
// (inmutable tras crear); ReceivedQty acumula lo recibido y nunca decrece.
type TransferItem struct {
	ID          string
	TransferID  string
	ProductID   string
	Quantity    int64
	ReceivedQty int64
}

// Remaining devuelve la cantidad aún pendiente de recibir.
func (i *TransferItem) Remaining() int64 {
	return i.Quantity - i.ReceivedQty
}

// IsTerminal indica si el traslado ya no admite más operaciones.
func (t *Transfer) IsTerminal() bool {
	return t.Status == TransferStatusReceived || t.Status == TransferStatusCancelled
}

// CanShip indica si el traslado admite despacho.
func (t *Transfer) CanShip() bool {
	return t.Status == TransferStatusPending
}

// CanReceive indica si el traslado admite recepciones (parciales o totales).
func (t *Transfer) CanReceive() bool {
	return t.Status == TransferStatusInTransit
}

// CanCancel indica si el traslado admite cancelación: PENDING o IN_TRANSIT
// sin ninguna recepción parcial aplicada.
func (t *Transfer) CanCancel() bool {
	if t.Status != TransferStatusPending && t.Status != TransferStatusInTransit {
		return false
	}
	return !t.HasReceipts()
}

// HasReceipts indica si algún ítem ya registró recepción.
func (t *Transfer) HasReceipts() bool {
	for i := range t.Items {
		if t.Items[i].ReceivedQty > 0 {
			return true
		}
	}
	return false
}

// FullyReceived indica si todos los ítems están completamente recibidos.
// El traslado es RECEIVED si y solo si esto es cierto.
func (t *Transfer) FullyReceived() bool {
	for i := range t.Items {
		if t.Items[i].ReceivedQty < t.Items[i].Quantity {
			return false
		}
	}
	return len(t.Items) > 0
}

// ItemByID busca un ítem del agregado por su ID. Devuelve nil si no existe.
func (t *Transfer) ItemByID(itemID string) *TransferItem {
	for i := range t.Items {
		if t.Items[i].ID == itemID {
			return &t.Items[i]
		}
	}
	return nil
}

// TotalQuantity suma las cantidades autorizadas de todos los ítems.
func (t *Transfer) TotalQuantity() int64 {
	var total int64
	for i := range t.Items {
		total += t.Items[i].Quantity
	}
	return total
}

// TotalReceived suma las cantidades ya recibidas de todos los ítems.
func (t *Transfer) TotalReceived() int64 {
	var total int64
	for i := range t.Items {
		total += t.Items[i].ReceivedQty
	}
	return total
}

// CompletionFraction devuelve el avance de recepción en [0,1].
func (t *Transfer) CompletionFraction() float64 {
	total := t.TotalQuantity()
	if total == 0 {
		return 0
	}
	return float64(t.TotalReceived()) / float64(total)
}

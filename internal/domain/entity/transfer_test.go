package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invorya/transfers-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func buildTransfer(status string, items ...entity.TransferItem) *entity.Transfer {
	return &entity.Transfer{
		ID:             "t-1",
		TransferNumber: "TR-000001",
		CompanyID:      "c-1",
		FromBranchID:   "b-origen",
		ToBranchID:     "b-destino",
		Status:         status,
		Items:          items,
	}
}

func item(id string, quantity, received int64) entity.TransferItem {
	return entity.TransferItem{ID: id, TransferID: "t-1", ProductID: "p-" + id, Quantity: quantity, ReceivedQty: received}
}

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados
// ──────────────────────────────────────────────────────────────────────────────

func TestCanShip_SoloDesdePending(t *testing.T) {
	casos := map[string]bool{
		entity.TransferStatusPending:   true,
		entity.TransferStatusInTransit: false,
		entity.TransferStatusReceived:  false,
		entity.TransferStatusCancelled: false,
	}
	for status, want := range casos {
		tr := buildTransfer(status, item("i1", 5, 0))
		assert.Equal(t, want, tr.CanShip(), "CanShip en estado %s", status)
	}
}

func TestCanReceive_SoloEnTransito(t *testing.T) {
	casos := map[string]bool{
		entity.TransferStatusPending:   false,
		entity.TransferStatusInTransit: true,
		entity.TransferStatusReceived:  false,
		entity.TransferStatusCancelled: false,
	}
	for status, want := range casos {
		tr := buildTransfer(status, item("i1", 5, 0))
		assert.Equal(t, want, tr.CanReceive(), "CanReceive en estado %s", status)
	}
}

func TestCanCancel_PendingYTransitoSinRecepciones(t *testing.T) {
	assert.True(t, buildTransfer(entity.TransferStatusPending, item("i1", 5, 0)).CanCancel(),
		"PENDING sin recepciones debe poder cancelarse")
	assert.True(t, buildTransfer(entity.TransferStatusInTransit, item("i1", 5, 0)).CanCancel(),
		"IN_TRANSIT sin recepciones debe poder cancelarse")
}

func TestCanCancel_BloqueadoConRecepcionParcial(t *testing.T) {
	tr := buildTransfer(entity.TransferStatusInTransit, item("i1", 5, 2))
	assert.False(t, tr.CanCancel(),
		"un traslado con recepción parcial no debe poder cancelarse")
}

func TestCanCancel_BloqueadoEnEstadosTerminales(t *testing.T) {
	assert.False(t, buildTransfer(entity.TransferStatusReceived, item("i1", 5, 5)).CanCancel())
	assert.False(t, buildTransfer(entity.TransferStatusCancelled, item("i1", 5, 0)).CanCancel())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, buildTransfer(entity.TransferStatusPending).IsTerminal())
	assert.False(t, buildTransfer(entity.TransferStatusInTransit).IsTerminal())
	assert.True(t, buildTransfer(entity.TransferStatusReceived).IsTerminal())
	assert.True(t, buildTransfer(entity.TransferStatusCancelled).IsTerminal())
}

// ──────────────────────────────────────────────────────────────────────────────
// Cantidades derivadas
// ──────────────────────────────────────────────────────────────────────────────

func TestRemaining(t *testing.T) {
	it := item("i1", 10, 3)
	assert.Equal(t, int64(7), it.Remaining(), "pendiente = autorizado - recibido")
}

func TestHasReceipts(t *testing.T) {
	assert.False(t, buildTransfer(entity.TransferStatusInTransit, item("i1", 5, 0), item("i2", 3, 0)).HasReceipts())
	assert.True(t, buildTransfer(entity.TransferStatusInTransit, item("i1", 5, 0), item("i2", 3, 1)).HasReceipts())
}

func TestFullyReceived(t *testing.T) {
	assert.False(t, buildTransfer(entity.TransferStatusInTransit, item("i1", 5, 5), item("i2", 3, 2)).FullyReceived(),
		"con un ítem pendiente no está completamente recibido")
	assert.True(t, buildTransfer(entity.TransferStatusInTransit, item("i1", 5, 5), item("i2", 3, 3)).FullyReceived())
	assert.False(t, buildTransfer(entity.TransferStatusInTransit).FullyReceived(),
		"un traslado sin ítems nunca está completamente recibido")
}

func TestTotales(t *testing.T) {
	tr := buildTransfer(entity.TransferStatusInTransit, item("i1", 5, 2), item("i2", 3, 3))
	assert.Equal(t, int64(8), tr.TotalQuantity())
	assert.Equal(t, int64(5), tr.TotalReceived())
}

func TestCompletionFraction(t *testing.T) {
	tr := buildTransfer(entity.TransferStatusInTransit, item("i1", 4, 2), item("i2", 4, 0))
	assert.InDelta(t, 0.25, tr.CompletionFraction(), 1e-9)

	vacio := buildTransfer(entity.TransferStatusPending)
	assert.Equal(t, float64(0), vacio.CompletionFraction(), "sin ítems el avance es cero, no NaN")
}

func TestItemByID(t *testing.T) {
	tr := buildTransfer(entity.TransferStatusInTransit, item("i1", 5, 0), item("i2", 3, 0))
	found := tr.ItemByID("i2")
	assert.NotNil(t, found)
	assert.Equal(t, "i2", found.ID)
	assert.Nil(t, tr.ItemByID("no-existe"))
}

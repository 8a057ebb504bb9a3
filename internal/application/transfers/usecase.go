package transfers

import (
	"encoding/json"

	"github.com/invorya/transfers-api/internal/application/dto"
	"github.com/invorya/transfers-api/internal/domain/entity"
	"github.com/invorya/transfers-api/internal/domain/repository"
)

// LifecycleUseCase orquesta la máquina de estados de traslados
// (create → ship → receive[, parcial, repetible] → received; o cancel).
// Toda mutación de stock y de estado ocurre dentro de una transacción con
// bloqueo de fila (SELECT FOR UPDATE) vía TxRunner.
type LifecycleUseCase struct {
	tx          TxRunner
	branchRepo  repository.BranchRepository
	productRepo repository.ProductRepository
	events      Broadcaster // opcional; nil desactiva la difusión
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(
	tx TxRunner,
	branchRepo repository.BranchRepository,
	productRepo repository.ProductRepository,
	events Broadcaster,
) *LifecycleUseCase {
	return &LifecycleUseCase{
		tx:          tx,
		branchRepo:  branchRepo,
		productRepo: productRepo,
		events:      events,
	}
}

// publish difunde un evento del ciclo de vida después del commit.
func (uc *LifecycleUseCase) publish(action string, transfer *dto.TransferResponse, userID string) {
	if uc.events == nil {
		return
	}
	payload := map[string]any{
		"type":     "transfer_update",
		"action":   action,
		"transfer": transfer,
		"user_id":  userID,
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	uc.events.Publish(msg)
}

// toTransferResponse mapea el agregado a su DTO con cantidades derivadas.
func toTransferResponse(t *entity.Transfer) *dto.TransferResponse {
	if t == nil {
		return nil
	}
	items := make([]dto.TransferItemResponse, 0, len(t.Items))
	for i := range t.Items {
		it := &t.Items[i]
		items = append(items, dto.TransferItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			ReceivedQty: it.ReceivedQty,
			Remaining:   it.Remaining(),
		})
	}
	return &dto.TransferResponse{
		ID:             t.ID,
		TransferNumber: t.TransferNumber,
		CompanyID:      t.CompanyID,
		FromBranchID:   t.FromBranchID,
		ToBranchID:     t.ToBranchID,
		Status:         t.Status,
		Notes:          t.Notes,
		InitiatedBy:    t.InitiatedBy,
		CreatedAt:      t.CreatedAt,
		ShippedAt:      t.ShippedAt,
		ReceivedAt:     t.ReceivedAt,
		Completion:     t.CompletionFraction(),
		Items:          items,
	}
}

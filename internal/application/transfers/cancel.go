package transfers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invorya/transfers-api/internal/application/dto"
	"github.com/invorya/transfers-api/internal/domain"
	"github.com/invorya/transfers-api/internal/domain/entity"
	"github.com/invorya/transfers-api/internal/domain/repository"
)

// Cancel cancela un traslado en PENDING o IN_TRANSIT sin recepciones.
// Cancelar en PENDING no toca el stock (nunca se descontó); cancelar en
// IN_TRANSIT repone en el origen la cantidad completa despachada. Un traslado
// con recepciones parciales no se puede cancelar: debe completarse y
// corregirse con un ajuste aparte.
func (uc *LifecycleUseCase) Cancel(ctx context.Context, companyID, userID, transferID string) (*dto.TransferResponse, error) {
	var out *dto.TransferResponse

	err := uc.tx.Run(ctx, func(
		transferRepo repository.TransferRepository,
		stockRepo repository.StockRepository,
		movementRepo repository.StockMovementRepository,
		auditRepo repository.AuditRepository,
	) error {
		transfer, err := transferRepo.GetByIDForUpdate(transferID)
		if err != nil {
			return err
		}
		if transfer == nil {
			return domain.ErrNotFound
		}
		if transfer.CompanyID != companyID {
			return domain.ErrForbidden
		}
		if !transfer.CanCancel() {
			return &domain.TransferStateError{TransferID: transferID, Status: transfer.Status, Operation: "cancel"}
		}

		now := time.Now()
		previous := transfer.Status

		if previous == entity.TransferStatusInTransit {
			for i := range transfer.Items {
				item := &transfer.Items[i]
				stock, err := stockRepo.GetForUpdate(transfer.FromBranchID, item.ProductID)
				if err != nil {
					return err
				}
				stock.Quantity += item.Quantity
				stock.UpdatedAt = now
				if err := stockRepo.Upsert(stock); err != nil {
					return err
				}
				if err := movementRepo.Create(&entity.StockMovement{
					ID:         uuid.New().String(),
					CompanyID:  companyID,
					BranchID:   transfer.FromBranchID,
					ProductID:  item.ProductID,
					TransferID: transfer.ID,
					Reason:     entity.MovementReasonCancelRestock,
					Quantity:   item.Quantity,
					CreatedAt:  now,
					CreatedBy:  userID,
				}); err != nil {
					return err
				}
			}
		}

		if err := transferRepo.UpdateStatus(transfer.ID,
			previous, entity.TransferStatusCancelled, nil, nil); err != nil {
			return err
		}
		transfer.Status = entity.TransferStatusCancelled

		if err := auditRepo.Create(&entity.AuditEntry{
			ID:         uuid.New().String(),
			CompanyID:  companyID,
			ActorID:    userID,
			Action:     entity.AuditActionTransferCancel,
			TransferID: transfer.ID,
			BranchID:   transfer.FromBranchID,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		out = toTransferResponse(transfer)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish("transfer_cancelled", out, userID)
	return out, nil
}

package transfers

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/invorya/transfers-api/internal/application/dto"
	"github.com/invorya/transfers-api/internal/domain"
	"github.com/invorya/transfers-api/internal/domain/entity"
	"github.com/invorya/transfers-api/internal/domain/repository"
)

// Receive aplica una recepción (parcial o total) sobre un traslado IN_TRANSIT:
// suma stock en destino y acumula ReceivedQty por ítem. Los ítems no incluidos
// quedan pendientes; la operación es repetible hasta completar. Si toda línea
// queda completa el traslado pasa a RECEIVED. Se validan todas las líneas antes
// de mutar: una sola línea inválida rechaza la recepción completa.
func (uc *LifecycleUseCase) Receive(ctx context.Context, companyID, userID, transferID string, in dto.ReceiveTransferRequest) (*dto.TransferResponse, error) {
	if len(in.Lines) == 0 {
		return nil, &domain.ValidationError{Field: "lines", Reason: "se requiere al menos una línea"}
	}

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
		if !transfer.CanReceive() {
			return &domain.TransferStateError{TransferID: transferID, Status: transfer.Status, Operation: "receive"}
		}

		// Validación completa antes de cualquier mutación.
		seen := make(map[string]bool, len(in.Lines))
		for _, line := range in.Lines {
			if line.Quantity <= 0 {
				return &domain.ValidationError{Field: "lines.quantity", Reason: "debe ser mayor que cero"}
			}
			if seen[line.ItemID] {
				return &domain.ValidationError{Field: "lines.item_id", Reason: "ítem repetido en la recepción"}
			}
			seen[line.ItemID] = true

			item := transfer.ItemByID(line.ItemID)
			if item == nil {
				return &domain.ValidationError{Field: "lines.item_id", Reason: "ítem desconocido para este traslado"}
			}
			if line.Quantity > item.Remaining() {
				return &domain.OverReceiptError{ItemID: line.ItemID, Requested: line.Quantity, Remaining: item.Remaining()}
			}
		}

		// Bloquear las filas de stock de destino en orden determinista de
		// producto, igual que el despacho, para que dos recepciones
		// concurrentes no se crucen en orden inverso.
		lines := make([]dto.ReceiveTransferLine, len(in.Lines))
		copy(lines, in.Lines)
		sort.Slice(lines, func(i, j int) bool {
			return transfer.ItemByID(lines[i].ItemID).ProductID < transfer.ItemByID(lines[j].ItemID).ProductID
		})

		now := time.Now()
		var received int64
		for _, line := range lines {
			item := transfer.ItemByID(line.ItemID)

			stock, err := stockRepo.GetForUpdate(transfer.ToBranchID, item.ProductID)
			if err != nil {
				return err
			}
			stock.Quantity += line.Quantity
			stock.UpdatedAt = now
			if err := stockRepo.Upsert(stock); err != nil {
				return err
			}
			if err := movementRepo.Create(&entity.StockMovement{
				ID:         uuid.New().String(),
				CompanyID:  companyID,
				BranchID:   transfer.ToBranchID,
				ProductID:  item.ProductID,
				TransferID: transfer.ID,
				Reason:     entity.MovementReasonReceive,
				Quantity:   line.Quantity,
				CreatedAt:  now,
				CreatedBy:  userID,
			}); err != nil {
				return err
			}

			item.ReceivedQty += line.Quantity
			received += line.Quantity
			if err := transferRepo.UpdateItemReceived(item.ID, item.ReceivedQty); err != nil {
				return err
			}
		}

		// RECEIVED si y solo si todos los ítems quedaron completos.
		if transfer.FullyReceived() {
			if err := transferRepo.UpdateStatus(transfer.ID,
				entity.TransferStatusInTransit, entity.TransferStatusReceived, nil, &now); err != nil {
				return err
			}
			transfer.Status = entity.TransferStatusReceived
			transfer.ReceivedAt = &now
		}

		if err := auditRepo.Create(&entity.AuditEntry{
			ID:         uuid.New().String(),
			CompanyID:  companyID,
			ActorID:    userID,
			Action:     entity.AuditActionTransferReceive,
			TransferID: transfer.ID,
			BranchID:   transfer.ToBranchID,
			Delta:      &received,
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

	uc.publish("transfer_received", out, userID)
	return out, nil
}

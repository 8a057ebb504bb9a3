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

// Ship despacha un traslado PENDING: descuenta el stock de origen de todos los
// ítems de forma atómica y pasa a IN_TRANSIT. Todo-o-nada: si a algún producto
// le falta stock no se descuenta ninguno y el traslado sigue en PENDING; el
// error lista todos los productos con faltante. El descuento con la fila
// bloqueada es la única verificación vinculante contra sobreventa.
func (uc *LifecycleUseCase) Ship(ctx context.Context, companyID, userID, transferID string) (*dto.TransferResponse, error) {
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
		if !transfer.CanShip() {
			return &domain.TransferStateError{TransferID: transferID, Status: transfer.Status, Operation: "ship"}
		}

		// Bloquear las filas de stock en orden determinista de producto
		// para que dos despachos concurrentes no se crucen en orden inverso.
		items := make([]*entity.TransferItem, 0, len(transfer.Items))
		for i := range transfer.Items {
			items = append(items, &transfer.Items[i])
		}
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

		locked := make([]*entity.Stock, 0, len(items))
		var missing []string
		for _, item := range items {
			stock, err := stockRepo.GetForUpdate(transfer.FromBranchID, item.ProductID)
			if err != nil {
				return err
			}
			if stock.Quantity < item.Quantity {
				missing = append(missing, item.ProductID)
			}
			locked = append(locked, stock)
		}
		if len(missing) > 0 {
			return &domain.InsufficientStockError{BranchID: transfer.FromBranchID, ProductIDs: missing}
		}

		now := time.Now()
		for i, item := range items {
			stock := locked[i]
			stock.Quantity -= item.Quantity
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
				Reason:     entity.MovementReasonShip,
				Quantity:   -item.Quantity,
				CreatedAt:  now,
				CreatedBy:  userID,
			}); err != nil {
				return err
			}
		}

		if err := transferRepo.UpdateStatus(transfer.ID,
			entity.TransferStatusPending, entity.TransferStatusInTransit, &now, nil); err != nil {
			return err
		}
		transfer.Status = entity.TransferStatusInTransit
		transfer.ShippedAt = &now

		total := transfer.TotalQuantity()
		if err := auditRepo.Create(&entity.AuditEntry{
			ID:         uuid.New().String(),
			CompanyID:  companyID,
			ActorID:    userID,
			Action:     entity.AuditActionTransferShip,
			TransferID: transfer.ID,
			BranchID:   transfer.FromBranchID,
			Delta:      &total,
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

	uc.publish("transfer_shipped", out, userID)
	return out, nil
}

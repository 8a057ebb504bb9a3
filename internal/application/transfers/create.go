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

// Create registra un traslado en PENDING. No muta stock: el descuento se
// difiere al despacho para no retener existencias de traslados que nunca se
// despachan; la verificación vinculante de stock ocurre en Ship.
func (uc *LifecycleUseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateTransferRequest) (*dto.TransferResponse, error) {
	if err := uc.validateCreate(companyID, in); err != nil {
		return nil, err
	}

	now := time.Now()
	transfer := &entity.Transfer{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		FromBranchID: in.FromBranchID,
		ToBranchID:   in.ToBranchID,
		Status:       entity.TransferStatusPending,
		Notes:        in.Notes,
		InitiatedBy:  userID,
		CreatedAt:    now,
	}
	for _, item := range in.Items {
		transfer.Items = append(transfer.Items, entity.TransferItem{
			ID:         uuid.New().String(),
			TransferID: transfer.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
		})
	}

	err := uc.tx.Run(ctx, func(
		transferRepo repository.TransferRepository,
		_ repository.StockRepository,
		_ repository.StockMovementRepository,
		auditRepo repository.AuditRepository,
	) error {
		number, err := transferRepo.NextTransferNumber(companyID)
		if err != nil {
			return err
		}
		transfer.TransferNumber = number
		if err := transferRepo.Create(transfer); err != nil {
			return err
		}
		return auditRepo.Create(&entity.AuditEntry{
			ID:         uuid.New().String(),
			CompanyID:  companyID,
			ActorID:    userID,
			Action:     entity.AuditActionTransferCreate,
			TransferID: transfer.ID,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	out := toTransferResponse(transfer)
	uc.publish("transfer_created", out, userID)
	return out, nil
}

// validateCreate concentra todas las reglas de creación: sucursales distintas
// y de la misma empresa, lista de ítems no vacía, cantidades positivas,
// productos existentes y almacenables. Ningún caller puede saltarse estas
// verificaciones: se rechazan antes de cualquier mutación.
func (uc *LifecycleUseCase) validateCreate(companyID string, in dto.CreateTransferRequest) error {
	if in.FromBranchID == "" {
		return &domain.ValidationError{Field: "from_branch_id", Reason: "requerido"}
	}
	if in.ToBranchID == "" {
		return &domain.ValidationError{Field: "to_branch_id", Reason: "requerido"}
	}
	if in.FromBranchID == in.ToBranchID {
		return &domain.ValidationError{Field: "to_branch_id", Reason: "origen y destino deben ser distintos"}
	}
	if len(in.Items) == 0 {
		return &domain.ValidationError{Field: "items", Reason: "se requiere al menos un ítem"}
	}

	from, err := uc.branchRepo.GetByID(in.FromBranchID)
	if err != nil {
		return err
	}
	if from == nil || from.CompanyID != companyID {
		return &domain.ValidationError{Field: "from_branch_id", Reason: "sucursal desconocida"}
	}
	to, err := uc.branchRepo.GetByID(in.ToBranchID)
	if err != nil {
		return err
	}
	if to == nil || to.CompanyID != companyID {
		return &domain.ValidationError{Field: "to_branch_id", Reason: "sucursal desconocida"}
	}

	seen := make(map[string]bool, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return &domain.ValidationError{Field: "items.quantity", Reason: "debe ser mayor que cero"}
		}
		if seen[item.ProductID] {
			return &domain.ValidationError{Field: "items.product_id", Reason: "producto repetido en la lista"}
		}
		seen[item.ProductID] = true

		product, err := uc.productRepo.GetByID(item.ProductID)
		if err != nil {
			return err
		}
		if product == nil || product.CompanyID != companyID {
			return &domain.ValidationError{Field: "items.product_id", Reason: "producto desconocido"}
		}
		if product.IsService {
			return &domain.ValidationError{Field: "items.product_id", Reason: "los servicios no mueven stock"}
		}
	}
	return nil
}

package transfers

import (
	"context"
	"fmt"

	"github.com/invorya/transfers-api/internal/domain"
	"github.com/invorya/transfers-api/internal/domain/entity"
	"github.com/invorya/transfers-api/internal/domain/repository"
)

// NoteUseCase genera la nota de traslado (PDF) que acompaña la mercancía.
// Solo se permite generar la nota de un traslado ya despachado.
type NoteUseCase struct {
	transferRepo repository.TransferRepository
	branchRepo   repository.BranchRepository
	productRepo  repository.ProductRepository
	generator    TransferNotePDFGenerator
}

// NewNoteUseCase construye el caso de uso inyectando sus dependencias.
func NewNoteUseCase(
	transferRepo repository.TransferRepository,
	branchRepo repository.BranchRepository,
	productRepo repository.ProductRepository,
	generator TransferNotePDFGenerator,
) *NoteUseCase {
	return &NoteUseCase{
		transferRepo: transferRepo,
		branchRepo:   branchRepo,
		productRepo:  productRepo,
		generator:    generator,
	}
}

// DownloadTransferNote recupera el traslado, verifica que ya fue despachado y
// genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)       si todo sale bien.
//   - domain.ErrNotFound              si el traslado no existe.
//   - domain.ErrForbidden             si no pertenece a la empresa del token.
//   - domain.ErrInvalidTransferState  si sigue en PENDING (sin despachar).
func (uc *NoteUseCase) DownloadTransferNote(ctx context.Context, companyID, transferID string) (pdfBytes []byte, filename string, err error) {
	transfer, err := uc.transferRepo.GetByID(transferID)
	if err != nil {
		return nil, "", fmt.Errorf("nota: obtener traslado: %w", err)
	}
	if transfer == nil {
		return nil, "", domain.ErrNotFound
	}
	if transfer.CompanyID != companyID {
		return nil, "", domain.ErrForbidden
	}
	if transfer.Status == entity.TransferStatusPending {
		return nil, "", &domain.TransferStateError{TransferID: transferID, Status: transfer.Status, Operation: "note"}
	}

	from, err := uc.branchRepo.GetByID(transfer.FromBranchID)
	if err != nil || from == nil {
		return nil, "", fmt.Errorf("nota: obtener sucursal origen: %w", err)
	}
	to, err := uc.branchRepo.GetByID(transfer.ToBranchID)
	if err != nil || to == nil {
		return nil, "", fmt.Errorf("nota: obtener sucursal destino: %w", err)
	}

	lines := make([]NoteLine, 0, len(transfer.Items))
	for i := range transfer.Items {
		item := &transfer.Items[i]
		name := "Producto " + item.ProductID // fallback
		sku := ""
		if product, pErr := uc.productRepo.GetByID(item.ProductID); pErr == nil && product != nil {
			name = product.Name
			sku = product.SKU
		}
		lines = append(lines, NoteLine{
			SKU:         sku,
			ProductName: name,
			Quantity:    item.Quantity,
			ReceivedQty: item.ReceivedQty,
		})
	}

	pdfBytes, err = uc.generator.GenerateTransferNote(ctx, transfer, from, to, lines)
	if err != nil {
		return nil, "", fmt.Errorf("nota: generación fallida: %w", err)
	}
	filename = fmt.Sprintf("traslado_%s.pdf", transfer.TransferNumber)
	return pdfBytes, filename, nil
}

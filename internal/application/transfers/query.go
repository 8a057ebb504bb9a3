package transfers

import (
	"time"

	"github.com/invorya/transfers-api/internal/application/dto"
	"github.com/invorya/transfers-api/internal/domain"
	"github.com/invorya/transfers-api/internal/domain/repository"
)

// QueryUseCase proyecciones de solo lectura del motor de traslados: listados
// con filtros, detalle con cantidades derivadas y consulta de disponibilidad.
// No muta nada; sus repositorios van atados al pool (pueden servirse de réplica).
type QueryUseCase struct {
	transferRepo repository.TransferRepository
	stockRepo    repository.StockRepository
	movementRepo repository.StockMovementRepository
	branchRepo   repository.BranchRepository
	productRepo  repository.ProductRepository
}

// NewQueryUseCase construye el caso de uso de consultas.
func NewQueryUseCase(
	transferRepo repository.TransferRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.StockMovementRepository,
	branchRepo repository.BranchRepository,
	productRepo repository.ProductRepository,
) *QueryUseCase {
	return &QueryUseCase{
		transferRepo: transferRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		branchRepo:   branchRepo,
		productRepo:  productRepo,
	}
}

// List lista traslados de la empresa filtrados por estado, sucursal y fechas.
func (uc *QueryUseCase) List(companyID string, q dto.ListTransfersQuery) (*dto.TransferListResponse, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	filter := repository.TransferFilter{
		CompanyID: companyID,
		Status:    q.Status,
		BranchID:  q.BranchID,
		Limit:     limit,
		Offset:    offset,
	}
	if q.From != "" {
		t, err := parseDate(q.From)
		if err != nil {
			return nil, &domain.ValidationError{Field: "from", Reason: "fecha inválida"}
		}
		filter.From = &t
	}
	if q.To != "" {
		t, err := parseDate(q.To)
		if err != nil {
			return nil, &domain.ValidationError{Field: "to", Reason: "fecha inválida"}
		}
		filter.To = &t
	}

	list, err := uc.transferRepo.List(filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		items = append(items, *toTransferResponse(t))
	}
	return &dto.TransferListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Detail devuelve un traslado con sus ítems, cantidades pendientes y nombres
// de producto.
func (uc *QueryUseCase) Detail(companyID, transferID string) (*dto.TransferResponse, error) {
	transfer, err := uc.transferRepo.GetByID(transferID)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, nil
	}
	if transfer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	out := toTransferResponse(transfer)
	for i := range out.Items {
		if product, pErr := uc.productRepo.GetByID(out.Items[i].ProductID); pErr == nil && product != nil {
			out.Items[i].ProductName = product.Name
		}
	}
	return out, nil
}

// Movements devuelve la traza del libro de stock de un traslado.
func (uc *QueryUseCase) Movements(companyID, transferID string) ([]dto.StockMovementResponse, error) {
	transfer, err := uc.transferRepo.GetByID(transferID)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, domain.ErrNotFound
	}
	if transfer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	movements, err := uc.movementRepo.ListByTransfer(transferID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.StockMovementResponse{
			ID:        m.ID,
			BranchID:  m.BranchID,
			ProductID: m.ProductID,
			Reason:    m.Reason,
			Quantity:  m.Quantity,
			CreatedAt: m.CreatedAt,
			CreatedBy: m.CreatedBy,
		})
	}
	return out, nil
}

// CheckAvailability indica si una sucursal tiene al menos quantity unidades
// en mano. Es solo guía de UI: la verificación vinculante es el descuento
// con bloqueo de fila al despachar.
func (uc *QueryUseCase) CheckAvailability(companyID, branchID, productID string, quantity int64) (*dto.AvailabilityResponse, error) {
	if quantity <= 0 {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "debe ser mayor que cero"}
	}
	branch, err := uc.branchRepo.GetByID(branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil || branch.CompanyID != companyID {
		return nil, &domain.ValidationError{Field: "branch_id", Reason: "sucursal desconocida"}
	}
	stock, err := uc.stockRepo.Get(branchID, productID)
	if err != nil {
		return nil, err
	}
	return &dto.AvailabilityResponse{
		BranchID:  branchID,
		ProductID: productID,
		OnHand:    stock.Quantity,
		Requested: quantity,
		Available: stock.Quantity >= quantity,
	}, nil
}

// parseDate acepta RFC3339 o fecha simple YYYY-MM-DD.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/invorya/transfers-api/internal/application/dto"
	"github.com/invorya/transfers-api/internal/application/transfers"
	"github.com/invorya/transfers-api/internal/domain"
	"github.com/invorya/transfers-api/pkg/validator"
)

// TransferHandler maneja las peticiones HTTP del ciclo de vida de traslados (protegido).
type TransferHandler struct {
	lifecycle *transfers.LifecycleUseCase
	query     *transfers.QueryUseCase
	note      *transfers.NoteUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(lifecycle *transfers.LifecycleUseCase, query *transfers.QueryUseCase, note *transfers.NoteUseCase) *TransferHandler {
	return &TransferHandler{lifecycle: lifecycle, query: query, note: note}
}

// Create godoc
// @Summary      Crear traslado entre sucursales
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "from_branch_id, to_branch_id, items (product_id + quantity), notes"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if msgs := validator.ValidateStruct(in); len(msgs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Detail: msgs})
	}
	out, err := h.lifecycle.Create(c.Context(), companyID, userID, in)
	if err != nil {
		return transferError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar traslados de la empresa
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "PENDING | IN_TRANSIT | RECEIVED | CANCELLED"
// @Param        branch_id  query  string  false  "Filtra por sucursal origen o destino"
// @Param        from       query  string  false  "Fecha mínima de creación (ISO-8601)"
// @Param        to         query  string  false  "Fecha máxima de creación (ISO-8601)"
// @Param        limit      query  int     false  "Máximo de filas (default 20, tope 100)"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.TransferListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var q dto.ListTransfersQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "query inválida"})
	}
	if msgs := validator.ValidateStruct(q); len(msgs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Detail: msgs})
	}
	out, err := h.query.List(companyID, q)
	if err != nil {
		return transferError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de un traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.query.Detail(companyID, c.Params("id"))
	if err != nil {
		return transferError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "traslado no encontrado"})
	}
	return c.JSON(out)
}

// Ship godoc
// @Summary      Despachar traslado (todo-o-nada)
// @Description  Descuenta el stock de la sucursal origen y pasa a IN_TRANSIT.
//
//	Si algún producto no tiene stock suficiente, no se descuenta nada y
//	la respuesta lista los productos afectados en detail.
//
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/ship [post]
func (h *TransferHandler) Ship(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.lifecycle.Ship(c.Context(), companyID, userID, c.Params("id"))
	if err != nil {
		return transferError(c, err)
	}
	return c.JSON(out)
}

// Receive godoc
// @Summary      Registrar recepción (parcial o total)
// @Description  Incrementa el stock destino por las líneas recibidas. Repetible
//
//	mientras queden cantidades pendientes; al completarse todas las
//	líneas el traslado pasa a RECEIVED.
//
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del traslado"
// @Param        body  body  dto.ReceiveTransferRequest  true  "lines: item_id + quantity"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ReceiveTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if msgs := validator.ValidateStruct(in); len(msgs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Detail: msgs})
	}
	out, err := h.lifecycle.Receive(c.Context(), companyID, userID, c.Params("id"), in)
	if err != nil {
		return transferError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar traslado
// @Description  PENDING: cancela sin tocar stock. IN_TRANSIT sin recepciones:
//
//	repone todo el stock en la sucursal origen. Con recepciones
//	parciales ya aplicadas la cancelación se rechaza.
//
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.lifecycle.Cancel(c.Context(), companyID, userID, c.Params("id"))
	if err != nil {
		return transferError(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Movimientos del libro de stock de un traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {array}   dto.StockMovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/movements [get]
func (h *TransferHandler) Movements(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.query.Movements(companyID, c.Params("id"))
	if err != nil {
		return transferError(c, err)
	}
	return c.JSON(out)
}

// DownloadNote godoc
// @Summary      Descargar nota de traslado (PDF)
// @Tags         transfers
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/note [get]
func (h *TransferHandler) DownloadNote(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	pdfBytes, filename, err := h.note.DownloadTransferNote(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return transferError(c, err)
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// transferError mapea errores de dominio del motor de traslados a HTTP.
// Los conflictos de estado y stock van como 409 con códigos distinguibles
// para que el cliente decida si reintentar.
func transferError(c *fiber.Ctx, err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: vErr.Error(),
		})
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "traslado no encontrado"})
	}
	if errors.Is(err, domain.ErrForbidden) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	}
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente en sucursal origen", Detail: stockErr.ProductIDs,
		})
	}
	var overErr *domain.OverReceiptError
	if errors.As(err, &overErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "OVER_RECEIPT", Message: overErr.Error(), Detail: []string{overErr.ItemID},
		})
	}
	var stateErr *domain.TransferStateError
	if errors.As(err, &stateErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INVALID_STATE", Message: stateErr.Error(),
		})
	}
	if errors.Is(err, domain.ErrConflict) {
		// Otra transacción ganó la carrera sobre el mismo traslado: reintentable.
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "CONFLICT", Message: "el traslado cambió de estado, reintente",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

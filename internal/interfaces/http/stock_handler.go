package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/invorya/transfers-api/internal/application/dto"
	"github.com/invorya/transfers-api/internal/application/transfers"
)

// StockHandler consultas de stock por sucursal (protegido).
type StockHandler struct {
	query *transfers.QueryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(query *transfers.QueryUseCase) *StockHandler {
	return &StockHandler{query: query}
}

// CheckAvailability godoc
// @Summary      Consultar disponibilidad de stock
// @Description  Indica si la sucursal tiene al menos quantity unidades en mano.
//
//	Guía de UI: no reserva stock; la verificación vinculante ocurre al despachar.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branch_id   query  string  true  "Sucursal (UUID)"
// @Param        product_id  query  string  true  "Producto (UUID)"
// @Param        quantity    query  int     true  "Cantidad requerida (> 0)"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/availability [get]
func (h *StockHandler) CheckAvailability(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	branchID := c.Query("branch_id")
	productID := c.Query("product_id")
	if branchID == "" || productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "branch_id y product_id son obligatorios"})
	}
	quantity, err := strconv.ParseInt(c.Query("quantity", "1"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity inválida"})
	}
	out, err := h.query.CheckAvailability(companyID, branchID, productID, quantity)
	if err != nil {
		return transferError(c, err)
	}
	return c.JSON(out)
}

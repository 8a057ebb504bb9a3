package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/invorya/transfers-api/internal/application/auth"
	"github.com/invorya/transfers-api/internal/application/transfers"
	"github.com/invorya/transfers-api/internal/application/usecase"
	"github.com/invorya/transfers-api/internal/domain/entity"
	"github.com/invorya/transfers-api/internal/interfaces/ws"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC *usecase.CompanyUseCase
	BranchUC  *usecase.BranchUseCase
	ProductUC *usecase.ProductUseCase
	Lifecycle *transfers.LifecycleUseCase
	Query     *transfers.QueryUseCase
	Note      *transfers.NoteUseCase
	AuthUC    *auth.AuthUseCase
	Hub       *ws.Hub
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Companies (público por ahora; se puede proteger con AuthMiddleware(deps.JWTSecret))
	companies := api.Group("/companies")
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies.Get("/", companyHandler.List)
	companies.Post("/", companyHandler.Create)
	companies.Get("/:id", companyHandler.GetByID)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Branches (protegido)
	branches := protected.Group("/branches")
	branchHandler := NewBranchHandler(deps.BranchUC)
	branches.Post("/", branchHandler.Create)
	branches.Get("/", branchHandler.List)
	branches.Get("/:id", branchHandler.GetByID)
	branches.Put("/:id", branchHandler.Update)

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Transfers (protegido). Las operaciones que mueven stock exigen rol de
	// bodega o admin; las consultas quedan abiertas a cualquier rol autenticado.
	transfersGroup := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Lifecycle, deps.Query, deps.Note)
	mutate := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	transfersGroup.Post("/", mutate, transferHandler.Create)
	transfersGroup.Get("/", transferHandler.List)
	transfersGroup.Get("/:id", transferHandler.GetByID)
	transfersGroup.Post("/:id/ship", mutate, transferHandler.Ship)
	transfersGroup.Post("/:id/receive", mutate, transferHandler.Receive)
	transfersGroup.Post("/:id/cancel", mutate, transferHandler.Cancel)
	transfersGroup.Get("/:id/movements", transferHandler.Movements)
	transfersGroup.Get("/:id/note", transferHandler.DownloadNote)

	// Stock (protegido)
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.Query)
	stockGroup.Get("/availability", stockHandler.CheckAvailability)

	// Websocket de eventos de traslados
	if deps.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(deps.Hub.Handler))
	}
}

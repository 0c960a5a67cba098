package router

import (
	"time"

	"poscore/internal/config"
	"poscore/internal/handler"
	"poscore/internal/middleware"
	"poscore/internal/repository"
	"poscore/internal/service"
	"poscore/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	transactionRepo := repository.NewTransactionRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	branchRepo := repository.NewBranchRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	stockSvc := service.NewStockService(productRepo, movementRepo)
	loyaltySvc := service.NewLoyaltyService(customerRepo)
	promotionSvc := service.NewPromotionService(promotionRepo)
	paymentSvc := service.NewPaymentService(transactionRepo, dispatcher)
	settlementSvc := service.NewSettlementService(
		transactionRepo, productRepo, branchRepo, customerRepo, promotionRepo,
		stockSvc, loyaltySvc, paymentSvc, dispatcher, cfg.LoyaltyEarnRate,
	)
	productSvc := service.NewProductService(productRepo, branchRepo)
	customerSvc := service.NewCustomerService(customerRepo)
	branchSvc := service.NewBranchService(branchRepo, productRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	transactionsH := handler.NewTransactionsHandler(settlementSvc)
	paymentsH := handler.NewPaymentsHandler(paymentSvc)
	productsH := handler.NewProductsHandler(productSvc, stockSvc)
	promotionsH := handler.NewPromotionsHandler(promotionSvc)
	customersH := handler.NewCustomersHandler(customerSvc, loyaltySvc)
	branchesH := handler.NewBranchesHandler(branchSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb))

	transactions := r.Group("/transactions")
	{
		transactions.POST("", transactionsH.Create)
		transactions.GET("", transactionsH.List)
		transactions.GET("/:id", transactionsH.Get)
		transactions.PATCH("/:id", transactionsH.Update)
		transactions.DELETE("/:id", transactionsH.Delete)
		transactions.POST("/:id/lines", transactionsH.AddLine)
	}

	payments := r.Group("/payments")
	{
		payments.POST("", paymentsH.Create)
		payments.POST("/multiple", paymentsH.CreateMultiple)
		payments.PATCH("/:id", paymentsH.Update)
		payments.DELETE("/:id", paymentsH.Delete)
	}

	products := r.Group("/products")
	{
		products.POST("", productsH.Create)
		products.GET("", productsH.List)
		products.GET("/:id", productsH.Get)
		products.PATCH("/:id", productsH.Update)
		products.DELETE("/:id", productsH.Deactivate)
		products.PATCH("/:id/stock", productsH.AdjustStock)
		products.GET("/:id/movements", productsH.ListMovements)
	}

	promotions := r.Group("/promotions")
	{
		promotions.POST("/calculate", promotionsH.Calculate)
		promotions.POST("", promotionsH.Create)
		promotions.GET("", promotionsH.List)
		promotions.GET("/:id", promotionsH.Get)
		promotions.PATCH("/:id", promotionsH.Update)
		promotions.DELETE("/:id", promotionsH.Deactivate)
	}

	customers := r.Group("/customers")
	{
		customers.POST("", customersH.Create)
		customers.GET("", customersH.List)
		customers.GET("/:id", customersH.Get)
		customers.PATCH("/:id", customersH.Update)
		customers.DELETE("/:id", customersH.Deactivate)
		customers.POST("/:id/loyalty-points", customersH.AdjustLoyalty)
		customers.GET("/:id/loyalty-history", customersH.LoyaltyHistory)
	}

	branches := r.Group("/branches")
	{
		branches.POST("", branchesH.Create)
		branches.GET("", branchesH.List)
		branches.GET("/:id", branchesH.Get)
		branches.PATCH("/:id", branchesH.Update)
		branches.DELETE("/:id", branchesH.Deactivate)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

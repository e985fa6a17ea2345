package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/controllers"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/middlewares"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"gorm.io/gorm"
)

// Deps adalah semua komponen yang dibutuhkan router. LocalAPI boleh nil
// jika instance ini tidak melayani order API untuk terminal lain.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Sessions *services.SessionStore
	Orders   *services.OrderService
	Catalog  *services.CatalogService
	Tables   *services.TableService
	Printing *services.PrintDispatcher
	Hub      *kds.Hub
	LocalAPI services.OrderAPI
}

func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigin))
	r.Use(middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).RateLimit())

	// Inisialisasi controller
	authCtrl := controllers.NewAuthController(deps.DB, deps.Sessions, cfg.JWTSecret)
	sessionCtrl := controllers.NewSessionController(deps.Orders)
	orderCtrl := controllers.NewOrderController(deps.Orders)
	receiptCtrl := controllers.NewReceiptController(deps.Orders, deps.Printing)
	catalogCtrl := controllers.NewCatalogController(deps.Catalog)
	tableCtrl := controllers.NewTableController(deps.Tables)
	kdsCtrl := controllers.NewKDSController(deps.Hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Rate limiter untuk login
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter().RateLimit())
	{
		public.POST("/login", authCtrl.Login)
	}

	// WebSocket notifikasi kasir / layar dapur
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(cfg.JWTSecret), kdsCtrl.KDSHandler)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(cfg.JWTSecret, deps.Sessions))

	auth.POST("/logout", authCtrl.Logout)
	auth.GET("/me", authCtrl.Me)

	// MENU
	auth.GET("/products", catalogCtrl.GetAllProducts)
	auth.GET("/categories", catalogCtrl.GetAllCategories)
	manager := auth.Group("/")
	manager.Use(middlewares.RequireRole(models.RoleManager))
	{
		manager.POST("/products", catalogCtrl.CreateProduct)
		manager.PATCH("/products/:product_id", catalogCtrl.SetAvailability)
		manager.POST("/categories", catalogCtrl.CreateCategory)
	}

	// TABLE
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)

	// SESSION (layar order kasir)
	session := auth.Group("/session")
	{
		session.POST("/table", sessionCtrl.SelectTable)
		session.GET("/cart", sessionCtrl.GetCart)
		session.POST("/cart/items", sessionCtrl.AddItem)
		session.PATCH("/cart/items/:product_id", sessionCtrl.UpdateItem)
		session.DELETE("/cart/items/:product_id", sessionCtrl.RemoveItem)
		session.POST("/cancel", sessionCtrl.Cancel)
		session.POST("/checkout",
			middlewares.CheckoutSecurityHeaders(),
			middlewares.LogCheckoutRequest(),
			sessionCtrl.Checkout,
		)
	}

	// ORDERS
	auth.PUT("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)

	// Routes untuk dokumen dengan middleware logger
	docs := auth.Group("/")
	docs.Use(middlewares.ReceiptLoggerMiddleware())
	{
		docs.GET("/orders/:order_id/documents/:kind", receiptCtrl.GetDocument)
		docs.POST("/orders/:order_id/print", receiptCtrl.PrintDocument)
		docs.POST("/orders/:order_id/reprint", receiptCtrl.Reprint)
		docs.GET("/print-jobs", receiptCtrl.ListPrintJobs)
		docs.POST("/print-jobs/:job_id/retry", receiptCtrl.RetryPrintJob)
	}

	// ----------------------------------------------------------------
	//                      ORDER API (untuk terminal lain)
	// ----------------------------------------------------------------
	if deps.LocalAPI != nil {
		mountOrderAPI(r.Group("/api"), deps.LocalAPI, cfg.OrderAPIToken)
	}

	return r
}

func mountOrderAPI(api *gin.RouterGroup, orders services.OrderAPI, token string) {
	ctrl := controllers.NewOrderAPIController(orders)
	api.Use(middlewares.APITokenMiddleware(token))
	api.POST("/orders", ctrl.CreateOrder)
	api.GET("/orders/:order_id", ctrl.GetOrder)
	api.POST("/orders/:order_id/items", ctrl.AddOrderItem)
	api.PATCH("/orders/:order_id/items/:item_id", ctrl.UpdateOrderItem)
	api.DELETE("/orders/:order_id/items/:item_id", ctrl.DeleteOrderItem)
	api.PUT("/orders/:order_id/status", ctrl.UpdateOrderStatus)
	api.POST("/payments", ctrl.CreatePayment)
}

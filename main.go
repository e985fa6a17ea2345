package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/database"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/router"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

func init() {
	utils.InitLogger()
}

func main() {
	cfg := config.Load()
	utils.SetLevel(cfg.LogLevel)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if cfg.ManagerPIN == "" {
		utils.InfoLogger.Warn("MANAGER_PIN not set, first-run manager gets the default PIN")
	}
	if err := database.Seed(db, database.SeedOptions{
		ManagerUsername: cfg.ManagerUsername,
		ManagerPIN:      cfg.ManagerPIN,
		Tables:          cfg.SeedTables,
	}); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed database: %v", err)
	}

	hub := kds.NewHub()
	notifier := services.NotifierFunc(func(n models.Notification) {
		utils.InfoLogger.WithFields(logrus.Fields{
			"event":    n.Event,
			"order_id": n.OrderID,
			"table_id": n.TableID,
		}).Info(n.Message)
		hub.Notify(n)
	})

	// Order backend: remote API jika ORDER_API_URL diisi, selain itu gorm lokal
	localAPI := services.NewLocalOrderAPI(db)
	var api services.OrderAPI = localAPI
	if cfg.OrderAPIURL != "" {
		api = services.NewOrderAPIClient(cfg.OrderAPIURL, cfg.OrderAPIToken, cfg.OrderAPITimeout)
		utils.InfoLogger.Printf("Using remote order API at %s", cfg.OrderAPIURL)
	}

	printer, closePrinter, err := newPrinter(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to set up printer: %v", err)
	}
	defer closePrinter()

	catalog := services.NewCatalogService(db)
	tables := services.NewTableService(db)
	sessions := services.NewSessionStore(cfg.Cart)

	printing := services.NewPrintDispatcher(db, printer, notifier, cfg.PrintRetryInterval)
	printing.Start()
	defer printing.Stop()

	orders := services.NewOrderService(services.OrderServiceDeps{
		API:        api,
		Catalog:    catalog,
		Tables:     tables,
		Notifier:   notifier,
		Dispatcher: printing,
		Renderer:   services.NewReceiptRenderer(cfg.ShopName, cfg.ShopAddress, cfg.Layout),
		Sequencer:  services.NewOrderSequencer(),
	})

	reconciler := services.NewReconciler(orders, sessions, cfg.SyncInterval)
	reconciler.Start()
	defer reconciler.Stop()

	deps := router.Deps{
		Config:   cfg,
		DB:       db,
		Sessions: sessions,
		Orders:   orders,
		Catalog:  catalog,
		Tables:   tables,
		Printing: printing,
		Hub:      hub,
	}
	// terminal dengan backend remote tidak ikut melayani order API
	if cfg.ServeOrderAPI && cfg.OrderAPIURL == "" {
		deps.LocalAPI = localAPI
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.SetupRouter(deps),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
}

// newPrinter memilih printer sesuai PRINTER: "pdf" menulis file PDF,
// "text" menambahkan struk ke receipts.txt di PRINT_OUTPUT_DIR.
func newPrinter(cfg *config.Config) (services.Printer, func(), error) {
	switch cfg.Printer {
	case "pdf":
		return services.NewPDFPrinter(cfg.PrintOutputDir, cfg.PDFFontPath), func() {}, nil
	case "stdout":
		return services.NewTextPrinter(os.Stdout), func() {}, nil
	}

	if err := os.MkdirAll(cfg.PrintOutputDir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(cfg.PrintOutputDir, "receipts.txt"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return services.NewTextPrinter(f), func() { f.Close() }, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// CartLimits menyimpan batas cart per sesi
type CartLimits struct {
	MaxQuantityPerItem int
	MaxItems           int
	MaxNoteLength      int
}

// Config adalah konfigurasi aplikasi POS
type Config struct {
	Port    string
	GinMode string

	DBDriver string
	DBDSN    string

	OrderAPIURL     string
	OrderAPIToken   string
	OrderAPITimeout time.Duration
	SyncInterval    time.Duration
	ServeOrderAPI   bool

	PrintRetryInterval time.Duration
	PrintOutputDir     string
	Printer            string
	PDFFontPath        string

	Cart   CartLimits
	Layout models.DocumentLayout

	ShopName    string
	ShopAddress string

	JWTSecret      []byte
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigin     string
	LogLevel       string

	ManagerUsername string
	ManagerPIN      string
	SeedTables      int
}

// Load membaca .env (jika ada) lalu environment, dengan nilai default
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf("no .env file loaded: %v", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		utils.InfoLogger.Warn("JWT_SECRET not set, using development secret")
		secret = "cafe-pos-dev-secret"
	}

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "cafe-pos.db"),

		OrderAPIURL:     os.Getenv("ORDER_API_URL"),
		OrderAPIToken:   os.Getenv("ORDER_API_TOKEN"),
		OrderAPITimeout: getDuration("ORDER_API_TIMEOUT", 10*time.Second),
		SyncInterval:    getDuration("SYNC_INTERVAL", 5*time.Second),
		ServeOrderAPI:   getBool("SERVE_ORDER_API", true),

		PrintRetryInterval: getDuration("PRINT_RETRY_INTERVAL", time.Minute),
		PrintOutputDir:     getEnv("PRINT_OUTPUT_DIR", "receipts"),
		Printer:            getEnv("PRINTER", "text"),
		PDFFontPath:        os.Getenv("PDF_FONT_PATH"),

		Cart: CartLimits{
			MaxQuantityPerItem: getInt("CART_MAX_QUANTITY", 100),
			MaxItems:           getInt("CART_MAX_ITEMS", 50),
			MaxNoteLength:      getInt("CART_MAX_NOTE_LENGTH", 500),
		},
		Layout: models.DocumentLayout{
			PaperWidthMM:  getFloat("PAPER_WIDTH_MM", 80),
			CharsPerLine:  getInt("PAPER_CHARS_PER_LINE", 42),
			TitleFontSize: getFloat("FONT_SIZE_TITLE", 14),
			BodyFontSize:  getFloat("FONT_SIZE_BODY", 9),
			SmallFontSize: getFloat("FONT_SIZE_SMALL", 7),
		},

		ShopName:    getEnv("SHOP_NAME", "Cafe POS"),
		ShopAddress: os.Getenv("SHOP_ADDRESS"),

		JWTSecret:      []byte(secret),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 40),
		CORSOrigin:     getEnv("CORS_ORIGIN", "http://127.0.0.1:5500"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		ManagerUsername: getEnv("MANAGER_USERNAME", "manager"),
		ManagerPIN:      os.Getenv("MANAGER_PIN"),
		SeedTables:      getInt("SEED_TABLES", 10),
	}
}

// InitDB membuka koneksi database lokal sesuai DB_DRIVER
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	return db, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		utils.ErrorLogger.Printf("invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.ErrorLogger.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		utils.ErrorLogger.Printf("invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.ErrorLogger.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

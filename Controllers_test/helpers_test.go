package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/database"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/router"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	cashierPIN = "1111"
	managerPIN = "9999"
	apiToken   = "terminal-token"
)

var errPaperJam = errors.New("paper jam")

// setupTestDB menggunakan SQLite in-memory, satu database per test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	// seed data: dua kasir, dua meja, tiga produk
	for _, c := range []struct {
		name, username, pin, role string
	}{
		{"Lan", "lan", cashierPIN, models.RoleCashier},
		{"Minh", "minh", managerPIN, models.RoleManager},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(c.pin), bcrypt.MinCost)
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.Cashier{
			Name: c.name, Username: c.username, PINHash: string(hash), Role: c.role,
		}).Error)
	}
	require.NoError(t, db.Create(&[]models.Table{
		{ID: 1, Name: "T1", Status: models.TableStatusAvailable},
		{ID: 2, Name: "T2", Status: models.TableStatusAvailable},
	}).Error)
	require.NoError(t, db.Create(&[]models.Product{
		{ID: 1, Name: "Espresso", Price: 30000, Available: true},
		{ID: 2, Name: "Latte", Price: 45000, Available: true},
		{ID: 3, Name: "Bánh flan", Price: 20000, Available: false},
	}).Error)
	return db
}

// switchPrinter menyimpan teks struk dan bisa dibuat gagal
type switchPrinter struct {
	mu   sync.Mutex
	fail bool
	out  bytes.Buffer
	docs []models.PrintableDocument
}

func (p *switchPrinter) Print(_ context.Context, doc models.PrintableDocument) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errPaperJam
	}
	p.out.WriteString(services.FormatDocumentText(doc))
	p.docs = append(p.docs, doc)
	return nil
}

func (p *switchPrinter) setFail(fail bool) {
	p.mu.Lock()
	p.fail = fail
	p.mu.Unlock()
}

func (p *switchPrinter) text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.String()
}

func (p *switchPrinter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.docs)
}

type testServer struct {
	db       *gorm.DB
	router   *gin.Engine
	printer  *switchPrinter
	printing *services.PrintDispatcher
	sessions *services.SessionStore
	hub      *kds.Hub
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      []byte("test-secret"),
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		CORSOrigin:     "*",
		OrderAPIToken:  apiToken,
		ShopName:       "Cafe Test",
		Cart: config.CartLimits{
			MaxQuantityPerItem: 10,
			MaxItems:           5,
			MaxNoteLength:      50,
		},
		Layout: models.DocumentLayout{PaperWidthMM: 80, CharsPerLine: 42},
	}
}

// newTestServer merakit router lengkap di atas LocalOrderAPI, seperti
// main.go tanpa goroutine latar belakang
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	cfg := testConfig()
	hub := kds.NewHub()
	printer := &switchPrinter{}
	api := services.NewLocalOrderAPI(db)
	catalog := services.NewCatalogService(db)
	tables := services.NewTableService(db)
	sessions := services.NewSessionStore(cfg.Cart)
	printing := services.NewPrintDispatcher(db, printer, hub, 0)

	orders := services.NewOrderService(services.OrderServiceDeps{
		API:        api,
		Catalog:    catalog,
		Tables:     tables,
		Notifier:   hub,
		Dispatcher: printing,
		Renderer:   services.NewReceiptRenderer(cfg.ShopName, "", cfg.Layout),
	})

	r := router.SetupRouter(router.Deps{
		Config:   cfg,
		DB:       db,
		Sessions: sessions,
		Orders:   orders,
		Catalog:  catalog,
		Tables:   tables,
		Printing: printing,
		Hub:      hub,
		LocalAPI: api,
	})
	return &testServer{db: db, router: r, printer: printer, printing: printing, sessions: sessions, hub: hub}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (ts *testServer) login(t *testing.T, username, pin string) string {
	t.Helper()
	w, env := ts.do(t, http.MethodPost, "/login", "", gin.H{"username": username, "pin": pin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

// openOrder pilih meja lalu tambah item, mengembalikan id order
func (ts *testServer) openOrder(t *testing.T, token string, tableID uint, productIDs ...uint) uint {
	t.Helper()
	w, _ := ts.do(t, http.MethodPost, "/session/table", token, gin.H{"table_id": tableID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view services.SessionView
	for _, id := range productIDs {
		w, env := ts.do(t, http.MethodPost, "/session/cart/items", token, gin.H{"product_id": id})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		view = decode[services.SessionView](t, env)
	}
	require.NotNil(t, view.Order)
	return view.Order.ID
}

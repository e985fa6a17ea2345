package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/database"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// setupTestDB opens a private in-memory database with two tables and
// the espresso/latte products used across the service tests.
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

	require.NoError(t, db.Create(&[]models.Table{
		{ID: 1, Name: "T1", Status: models.TableStatusAvailable},
		{ID: 2, Name: "T2", Status: models.TableStatusAvailable},
	}).Error)
	require.NoError(t, db.Create(&[]models.Product{
		{ID: espresso.ID, Name: espresso.Name, Price: espresso.Price, Available: true},
		{ID: latte.ID, Name: latte.Name, Price: latte.Price, Available: true},
		{ID: 3, Name: "Sold out cake", Price: 40000, Available: false},
	}).Error)
	return db
}

// recordingNotifier keeps every notification for assertions.
type recordingNotifier struct {
	mu  sync.Mutex
	got []models.Notification
}

func (r *recordingNotifier) Notify(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recordingNotifier) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, n := range r.got {
		out = append(out, n.Event)
	}
	return out
}

func (r *recordingNotifier) count(event string) int {
	n := 0
	for _, e := range r.events() {
		if e == event {
			n++
		}
	}
	return n
}

// memoryPrinter collects printed documents and can be told to fail.
type memoryPrinter struct {
	mu      sync.Mutex
	printed []models.PrintableDocument
	fail    error
}

func (p *memoryPrinter) Print(ctx context.Context, doc models.PrintableDocument) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.printed = append(p.printed, doc)
	return nil
}

func (p *memoryPrinter) setFail(err error) {
	p.mu.Lock()
	p.fail = err
	p.mu.Unlock()
}

func (p *memoryPrinter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.printed)
}

var errPaperOut = errors.New("paper out")

type testRig struct {
	db       *gorm.DB
	api      *LocalOrderAPI
	svc      *OrderService
	notifier *recordingNotifier
	printer  *memoryPrinter
	printing *PrintDispatcher
	sessions *SessionStore
	session  *Session
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	db := setupTestDB(t)

	rig := &testRig{
		db:       db,
		api:      NewLocalOrderAPI(db).WithClock(fixedClock),
		notifier: &recordingNotifier{},
		printer:  &memoryPrinter{},
		sessions: NewSessionStore(DefaultCartLimits),
	}
	rig.printing = NewPrintDispatcher(db, rig.printer, rig.notifier, time.Minute)
	rig.printing.now = fixedClock

	rig.svc = NewOrderService(OrderServiceDeps{
		API:        rig.api,
		Catalog:    NewCatalogService(db),
		Tables:     NewTableService(db),
		Notifier:   rig.notifier,
		Dispatcher: rig.printing,
		Renderer:   NewReceiptRenderer("Cafe Test", "1 Lê Lợi", testLayout),
	}).WithClock(fixedClock)
	rig.session = rig.sessions.Open(1, "An")
	return rig
}

var testLayout = models.DocumentLayout{
	PaperWidthMM:  80,
	CharsPerLine:  42,
	TitleFontSize: 14,
	BodyFontSize:  9,
	SmallFontSize: 7,
}

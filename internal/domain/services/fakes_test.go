package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/athebyme/emag-console/internal/adapters/backend"
	"github.com/athebyme/emag-console/internal/adapters/logger"
	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/pkg/interfaces"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
	pkgutils "github.com/athebyme/emag-console/pkg/utils"
	"go.uber.org/zap/zaptest"
)

func testLogger(t *testing.T) interfaces.LoggerPort {
	return logger.NewFromZap(zaptest.NewLogger(t))
}

type sentNotification struct {
	Level   models.NotificationLevel
	Title   string
	Message string
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, level models.NotificationLevel, title, message string) {
	r.mu.Lock()
	r.items = append(r.items, sentNotification{Level: level, Title: title, Message: message})
	r.mu.Unlock()
}

func (r *recordingNotifier) all() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNotification(nil), r.items...)
}

func (r *recordingNotifier) count(level models.NotificationLevel) int {
	n := 0
	for _, item := range r.all() {
		if item.Level == level {
			n++
		}
	}
	return n
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []*interfaces.AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, entry *interfaces.AuditEntry) error {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	return nil
}

func (r *recordingAudit) Recent(_ context.Context, _ int) ([]*interfaces.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*interfaces.AuditEntry(nil), r.entries...), nil
}

func (r *recordingAudit) Close() error { return nil }

func (r *recordingAudit) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Command)
	}
	return out
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*interfaces.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg *interfaces.Message) error {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Headers["event_type"])
	}
	return out
}

// manualTicker выдает тики только по команде теста
type manualTicker struct {
	mu    sync.Mutex
	chans []chan time.Time
}

func (m *manualTicker) new(time.Duration) (<-chan time.Time, func()) {
	ch := make(chan time.Time)
	m.mu.Lock()
	m.chans = append(m.chans, ch)
	m.mu.Unlock()
	return ch, func() {}
}

func (m *manualTicker) created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chans)
}

// fire отправляет тик в последний созданный источник и ждет, пока его примут
func (m *manualTicker) fire(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	if len(m.chans) == 0 {
		m.mu.Unlock()
		t.Fatal("источник тиков еще не создан")
	}
	ch := m.chans[len(m.chans)-1]
	m.mu.Unlock()

	select {
	case ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("тик не был принят")
	}
}

type fakeAWBBackend struct {
	mu sync.Mutex

	couriers    []models.CourierAccount
	couriersErr error
	orders      []models.Order
	ordersErr   error
	awb         string
	generateErr error
	bulkResult  *models.BulkAWBResult
	bulkErr     error
	track       *models.TrackingSnapshot
	trackErr    error

	ordersCalls   int
	generateCalls int
	bulkRequests  []backend.BulkAWBRequest
	lastOrders    backend.OrdersQuery
}

func (f *fakeAWBBackend) Couriers(_ context.Context, _ pkgmodels.AccountType) ([]models.CourierAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CourierAccount(nil), f.couriers...), f.couriersErr
}

func (f *fakeAWBBackend) Orders(_ context.Context, q backend.OrdersQuery) ([]models.Order, *pkgutils.Pagination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ordersCalls++
	f.lastOrders = q
	if f.ordersErr != nil {
		return nil, nil, f.ordersErr
	}
	page := pkgutils.NewPagination(1, 100, 100)
	page.SetTotal(int64(len(f.orders)))
	return append([]models.Order(nil), f.orders...), page, nil
}

func (f *fakeAWBBackend) GenerateAWB(_ context.Context, _ int64, _ backend.GenerateAWBRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls++
	return f.awb, f.generateErr
}

func (f *fakeAWBBackend) BulkGenerateAWB(_ context.Context, req backend.BulkAWBRequest) (*models.BulkAWBResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkRequests = append(f.bulkRequests, req)
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	res := *f.bulkResult
	return &res, nil
}

func (f *fakeAWBBackend) TrackAWB(_ context.Context, _ string, _ pkgmodels.AccountType) (*models.TrackingSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.track, f.trackErr
}

// fakeSyncBackend отвечает функциями, заданными тестом, и считает вызовы
type fakeSyncBackend struct {
	mu    sync.Mutex
	calls map[string]int

	products func(q models.ProductQuery) ([]models.ProductRecord, error)
	offers   func() (int, error)
	progress func() (*models.SyncProgress, error)
	status   func() (*backend.SyncStatusReport, error)
	trigger  func(kind models.SyncKind) error
	export   func(id string) ([]byte, error)
	health   func() error
}

func (f *fakeSyncBackend) inc(name string) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeSyncBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSyncBackend) set(fn func()) {
	f.mu.Lock()
	fn()
	f.mu.Unlock()
}

func (f *fakeSyncBackend) Products(_ context.Context, q models.ProductQuery) ([]models.ProductRecord, int, error) {
	f.inc("products:" + q.AccountType.String())
	f.mu.Lock()
	fn := f.products
	f.mu.Unlock()
	if fn == nil {
		return nil, 0, nil
	}
	products, err := fn(q)
	return products, len(products), err
}

func (f *fakeSyncBackend) OfferCount(_ context.Context, _ models.ProductQuery) (int, error) {
	f.inc("offers")
	f.mu.Lock()
	fn := f.offers
	f.mu.Unlock()
	if fn == nil {
		return 0, nil
	}
	return fn()
}

func (f *fakeSyncBackend) SyncProgress(_ context.Context) (*models.SyncProgress, error) {
	f.inc("progress")
	f.mu.Lock()
	fn := f.progress
	f.mu.Unlock()
	if fn == nil {
		p := models.IdleProgress()
		return &p, nil
	}
	return fn()
}

func (f *fakeSyncBackend) SyncStatus(_ context.Context, _ pkgmodels.AccountType) (*backend.SyncStatusReport, error) {
	f.inc("status")
	f.mu.Lock()
	fn := f.status
	f.mu.Unlock()
	if fn == nil {
		return &backend.SyncStatusReport{}, nil
	}
	return fn()
}

func (f *fakeSyncBackend) TriggerSync(_ context.Context, kind models.SyncKind, _ models.SyncOptions) error {
	f.inc("trigger")
	f.mu.Lock()
	fn := f.trigger
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(kind)
}

func (f *fakeSyncBackend) ExportSync(_ context.Context, syncID string, _ pkgmodels.AccountType) ([]byte, error) {
	f.inc("export")
	f.mu.Lock()
	fn := f.export
	f.mu.Unlock()
	if fn == nil {
		return []byte("{}"), nil
	}
	return fn(syncID)
}

func (f *fakeSyncBackend) Health(_ context.Context) error {
	f.inc("health")
	f.mu.Lock()
	fn := f.health
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn()
}

func strPtr(s string) *string { return &s }

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/athebyme/emag-console/internal/adapters/backend"
	"github.com/athebyme/emag-console/internal/adapters/messaging"
	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/internal/poller"
	"github.com/athebyme/emag-console/internal/utils"
	pkgerrors "github.com/athebyme/emag-console/pkg/errors"
	"github.com/athebyme/emag-console/pkg/interfaces"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Части снимка, которые загружаются независимо
const (
	partProducts = "products"
	partOffers   = "offers"
	partProgress = "progress"
	partHistory  = "history"
)

// SnapshotCacheKey - ключ последнего удачного снимка в кэше
const SnapshotCacheKey = "sync:snapshot"

// SyncConfig - параметры мониторинга синхронизации
type SyncConfig struct {
	Account              pkgmodels.AccountType
	PollInterval         time.Duration
	HealthInterval       time.Duration
	RefreshDelay         time.Duration
	HealthWarnLatency    time.Duration
	MaxPagesPerAccount   int
	DelayBetweenRequests float64
	IncludeInactive      bool
	ExportDir            string
	Realtime             bool
	CacheTTL             time.Duration
	EventsTopic          string
}

func (c *SyncConfig) normalize() {
	if c.Account == "" {
		c.Account = pkgmodels.AccountBoth
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = 30 * time.Second
	}
	if c.HealthWarnLatency <= 0 {
		c.HealthWarnLatency = 2 * time.Second
	}
	if c.MaxPagesPerAccount <= 0 {
		c.MaxPagesPerAccount = 10
	}
	if c.ExportDir == "" {
		c.ExportDir = os.TempDir()
	}
}

// SyncDeps - зависимости мониторинга синхронизации
type SyncDeps struct {
	Backend   SyncBackend
	Notifier  Notifier
	Cache     interfaces.CachePort
	Audit     interfaces.AuditPort
	Publisher interfaces.MessagingPort
	Metrics   Metrics
	// Ticker источник тиков обоих циклов; nil - poller.RealTicker
	Ticker    poller.TickerFunc
	Now       func() time.Time
}

// SyncView - копия состояния мониторинга синхронизации
type SyncView struct {
	Snapshot        models.SyncSnapshot `json:"snapshot"`
	Progress        models.SyncProgress `json:"progress"`
	Syncing         bool                `json:"syncing"`
	Phase           models.SyncPhase    `json:"phase"`
	ActiveKind      models.SyncKind     `json:"active_kind,omitempty"`
	LastOutcome     models.SyncPhase    `json:"last_outcome,omitempty"`
	Health          models.HealthStatus `json:"health"`
	HealthCheckedAt *time.Time          `json:"health_checked_at,omitempty"`
	HealthLatencyMs int64               `json:"health_latency_ms"`
	Realtime        bool                `json:"realtime"`
	Polling         bool                `json:"polling"`
}

// SyncMonitor - модель представления мониторинга синхронизации.
// Владеет двумя циклами: опросом хода синхронизации и проверкой доступности бэкенда
type SyncMonitor struct {
	cfg      SyncConfig
	backend  SyncBackend
	notifier Notifier
	cache    interfaces.CachePort
	audit    auditRecorder
	events   eventSink
	metrics  Metrics
	logger   interfaces.LoggerPort
	now      func() time.Time

	progressLoop *poller.Loop
	healthLoop   *poller.Loop

	lifeCtx    context.Context
	lifeCancel context.CancelFunc
	wg         sync.WaitGroup

	mu             sync.Mutex
	state          SyncView
	refreshTimer   *time.Timer
	started        bool
	closed         bool
	noDataNotified bool
	// triggerGen растет с каждым запуском; тик опроса от прежнего запуска состояние не меняет
	triggerGen     uint64
}

// NewSyncMonitor создает модель представления; циклы не запускаются до Start
func NewSyncMonitor(cfg SyncConfig, deps SyncDeps, logger interfaces.LoggerPort) *SyncMonitor {
	cfg.normalize()

	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	log := logger.WithField("component", "sync_monitor")
	lifeCtx, cancel := context.WithCancel(context.Background())

	return &SyncMonitor{
		cfg:          cfg,
		backend:      deps.Backend,
		notifier:     deps.Notifier,
		cache:        deps.Cache,
		audit:        auditRecorder{port: deps.Audit, logger: log},
		events:       eventSink{port: deps.Publisher, topic: cfg.EventsTopic, logger: log},
		metrics:      metrics,
		logger:       log,
		now:          now,
		progressLoop: poller.New(deps.Ticker),
		healthLoop:   poller.New(deps.Ticker),
		lifeCtx:      lifeCtx,
		lifeCancel:   cancel,
		state: SyncView{
			Progress: models.IdleProgress(),
			Phase:    models.PhaseIdle,
			Health:   models.HealthUnknown,
			Realtime: cfg.Realtime,
			Snapshot: models.SyncSnapshot{Source: models.SourceLive},
		},
	}
}

// Start загружает начальное состояние и включает проверку доступности, если включены обновления в реальном времени.
// Если бэкенд сообщает об уже идущей синхронизации, включается опрос ее хода
func (m *SyncMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return utils.ErrMonitorClosed
	}
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.state.Progress = models.IdleProgress()
	realtime := m.state.Realtime
	m.mu.Unlock()

	m.logger.InfoWithContext(ctx, "Запуск мониторинга синхронизации",
		"account_type", m.cfg.Account,
		"realtime", realtime)

	m.FetchSyncSnapshot(ctx)

	m.mu.Lock()
	running := m.state.Progress.IsRunning && !m.state.Syncing
	if running {
		m.state.Syncing = true
		m.state.Phase = models.PhasePolling
	} else {
		m.state.Progress = models.IdleProgress()
	}
	m.mu.Unlock()

	if running {
		m.progressLoop.Arm(m.lifeCtx, m.cfg.PollInterval, m.pollTick)
	}

	if realtime {
		m.CheckHealth(ctx)
		m.healthLoop.Arm(m.lifeCtx, m.cfg.HealthInterval, m.healthTick)
	}

	return nil
}

// Close останавливает оба цикла, отложенное обновление и фоновые запросы
func (m *SyncMonitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.refreshTimer != nil && m.refreshTimer.Stop() {
		m.wg.Done()
	}
	m.refreshTimer = nil
	m.mu.Unlock()

	m.lifeCancel()
	m.progressLoop.Stop()
	m.healthLoop.Stop()
	m.wg.Wait()

	m.logger.Info("Мониторинг синхронизации остановлен")
}

// View возвращает копию состояния
func (m *SyncMonitor) View() SyncView {
	m.mu.Lock()
	v := m.state
	v.Snapshot = m.state.Snapshot.Clone()
	if m.state.HealthCheckedAt != nil {
		t := *m.state.HealthCheckedAt
		v.HealthCheckedAt = &t
	}
	m.mu.Unlock()

	v.Polling = m.progressLoop.Active()
	return v
}

// Metrics возвращает метрики по текущей истории запусков
func (m *SyncMonitor) Metrics() models.SyncMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.ComputeSyncMetrics(m.state.Snapshot.History)
}

type snapshotParts struct {
	products   []models.ProductRecord
	productsOK bool
	offers     int
	offersOK   bool
	progress   *models.SyncProgress
	status     *backend.SyncStatusReport
	historyOK  bool
	noData     bool
}

func (p *snapshotParts) anyOK() bool {
	return p.productsOK || p.offersOK || p.progress != nil || p.historyOK
}

// fetchParts выполняет независимые запросы параллельно; ошибка одного запроса не отменяет остальные
func (m *SyncMonitor) fetchParts(ctx context.Context) snapshotParts {
	var parts snapshotParts
	var combined []models.ProductRecord
	var combinedErr error

	includeInactive := m.cfg.IncludeInactive
	query := func(account pkgmodels.AccountType) models.ProductQuery {
		return models.ProductQuery{
			AccountType:        account,
			MaxPagesPerAccount: m.cfg.MaxPagesPerAccount,
			IncludeInactive:    &includeInactive,
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		combined, _, combinedErr = m.backend.Products(ctx, query(pkgmodels.AccountBoth))
		if combinedErr != nil {
			m.logger.WarnWithContext(ctx, "Не удалось загрузить продукты обоих аккаунтов", "error", combinedErr)
		}
		return nil
	})
	g.Go(func() error {
		count, err := m.backend.OfferCount(ctx, query(pkgmodels.AccountBoth))
		if err != nil {
			m.logger.WarnWithContext(ctx, "Не удалось загрузить офферы", "error", err)
			return nil
		}
		parts.offers, parts.offersOK = count, true
		return nil
	})
	g.Go(func() error {
		progress, err := m.backend.SyncProgress(ctx)
		if err != nil {
			m.logger.WarnWithContext(ctx, "Не удалось загрузить ход синхронизации", "error", err)
			return nil
		}
		parts.progress = progress
		return nil
	})
	g.Go(func() error {
		status, err := m.backend.SyncStatus(ctx, m.cfg.Account)
		switch {
		case errors.Is(err, utils.ErrNoData):
			parts.historyOK, parts.noData = true, true
		case err != nil:
			m.logger.WarnWithContext(ctx, "Не удалось загрузить историю синхронизаций", "error", err)
		default:
			parts.status, parts.historyOK = status, true
		}
		return nil
	})
	_ = g.Wait()

	if combinedErr == nil && len(combined) > 0 {
		parts.products, parts.productsOK = models.MergeProducts(combined), true
		return parts
	}

	// Общая выборка не удалась или пуста: запрашиваем аккаунты по отдельности
	batches := make([][]models.ProductRecord, len(pkgmodels.Accounts))
	oks := make([]bool, len(pkgmodels.Accounts))
	var fg errgroup.Group
	for i, account := range pkgmodels.Accounts {
		fg.Go(func() error {
			products, _, err := m.backend.Products(ctx, query(account))
			if err != nil {
				m.logger.WithAccount(account.String()).WarnWithContext(ctx, "Не удалось загрузить продукты аккаунта", "error", err)
				return nil
			}
			batches[i], oks[i] = products, true
			return nil
		})
	}
	_ = fg.Wait()

	parts.products = models.MergeProducts(batches...)
	parts.productsOK = combinedErr == nil
	for _, ok := range oks {
		parts.productsOK = parts.productsOK || ok
	}
	return parts
}

// FetchSyncSnapshot обновляет все данные представления.
// Неудавшиеся части сохраняют прежние значения; при полном отказе показывается последний
// удачный снимок из кэша, а без него - демонстрационный набор
func (m *SyncMonitor) FetchSyncSnapshot(ctx context.Context) models.SyncSnapshot {
	parts := m.fetchParts(ctx)
	if ctx.Err() != nil {
		return m.View().Snapshot
	}

	if !parts.anyOK() {
		return m.applyFallback(ctx)
	}

	m.mu.Lock()
	snap := m.state.Snapshot.Clone()
	var failed []string

	if parts.productsOK {
		snap.SetProducts(parts.products)
	} else {
		failed = append(failed, partProducts)
	}
	if parts.offersOK {
		snap.TotalOffers = parts.offers
	} else {
		failed = append(failed, partOffers)
	}
	if parts.progress != nil {
		m.state.Progress = *parts.progress
	} else {
		failed = append(failed, partProgress)
	}
	if parts.historyOK {
		snap.History, snap.LastSync = nil, nil
		if parts.status != nil {
			snap.History = append([]models.SyncRecord(nil), parts.status.RecentSyncs...)
			switch {
			case parts.status.LatestSync != nil:
				last := *parts.status.LatestSync
				snap.LastSync = &last
			case len(snap.History) > 0:
				last := snap.History[0]
				snap.LastSync = &last
			}
		}
	} else {
		failed = append(failed, partHistory)
	}

	snap.Source = models.SourceLive
	snap.FailedParts = failed
	snap.Degraded = len(failed) > 0
	snap.FetchedAt = m.now().UTC()
	m.state.Snapshot = snap

	notifyNoData := parts.noData && !m.noDataNotified
	if parts.noData {
		m.noDataNotified = true
	} else if parts.historyOK {
		m.noDataNotified = false
	}
	m.mu.Unlock()

	if notifyNoData {
		m.notifier.Notify(ctx, models.NotificationInfo, "Данных пока нет",
			"Синхронизации еще не запускались")
	}

	m.storeSnapshot(ctx, snap)

	return snap.Clone()
}

// applyFallback подставляет снимок из кэша или демонстрационный набор
func (m *SyncMonitor) applyFallback(ctx context.Context) models.SyncSnapshot {
	snap, ok := m.loadCachedSnapshot(ctx)
	if ok {
		snap.Source = models.SourceCache
	} else {
		snap = demoSnapshot(m.now().UTC())
	}
	snap.Degraded = true
	snap.FailedParts = []string{partProducts, partOffers, partProgress, partHistory}

	m.mu.Lock()
	m.state.Snapshot = snap.Clone()
	m.mu.Unlock()

	m.logger.WarnWithContext(ctx, "Бэкенд недоступен, показаны резервные данные", "source", snap.Source)

	msg := "Бэкенд недоступен, показан последний сохраненный снимок"
	if snap.Source == models.SourceDemo {
		msg = "Бэкенд недоступен, показаны демонстрационные данные"
	}
	m.notifier.Notify(ctx, models.NotificationWarning, "Резервные данные", msg)

	return snap
}

func (m *SyncMonitor) loadCachedSnapshot(ctx context.Context) (models.SyncSnapshot, bool) {
	if m.cache == nil {
		return models.SyncSnapshot{}, false
	}

	raw, err := m.cache.Get(ctx, SnapshotCacheKey)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrCacheMiss) {
			m.logger.WarnWithContext(ctx, "Ошибка чтения снимка из кэша", "error", err)
		}
		return models.SyncSnapshot{}, false
	}

	var snap models.SyncSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		m.logger.WarnWithContext(ctx, "Снимок в кэше поврежден", "error", err)
		return models.SyncSnapshot{}, false
	}
	return snap, true
}

func (m *SyncMonitor) storeSnapshot(ctx context.Context, snap models.SyncSnapshot) {
	if m.cache == nil {
		return
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		m.logger.WarnWithContext(ctx, "Не удалось сериализовать снимок", "error", err)
		return
	}
	if err := m.cache.Set(ctx, SnapshotCacheKey, raw, m.cfg.CacheTTL); err != nil {
		m.logger.WarnWithContext(ctx, "Не удалось сохранить снимок в кэш", "error", err)
	}
}

// TriggerSync отмечает синхронизацию как идущую и отправляет запуск, не дожидаясь его завершения.
// После подтверждения бэкенда включается опрос хода и планируется отложенное полное обновление
func (m *SyncMonitor) TriggerSync(ctx context.Context, kind models.SyncKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", utils.ErrInvalidSyncKind, kind)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return utils.ErrMonitorClosed
	}
	m.state.Phase = models.PhaseTriggered
	m.state.Syncing = true
	m.state.ActiveKind = kind
	m.state.Progress = models.IdleProgress()
	m.state.Progress.IsRunning = true
	m.triggerGen++
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.InfoWithContext(ctx, "Запуск синхронизации", "kind", kind)

	go func() {
		defer m.wg.Done()
		m.runTrigger(m.lifeCtx, kind)
	}()

	return nil
}

func (m *SyncMonitor) syncOptions(kind models.SyncKind) models.SyncOptions {
	opts := models.SyncOptions{
		MaxPagesPerAccount:   m.cfg.MaxPagesPerAccount,
		DelayBetweenRequests: m.cfg.DelayBetweenRequests,
	}
	if kind == models.SyncProducts {
		include := m.cfg.IncludeInactive
		opts.IncludeInactive = &include
	}
	return opts
}

func (m *SyncMonitor) runTrigger(ctx context.Context, kind models.SyncKind) {
	opts := m.syncOptions(kind)

	if err := m.backend.TriggerSync(ctx, kind, opts); err != nil {
		m.metrics.SyncTriggered(kind, false)
		if ctx.Err() != nil {
			return
		}

		m.logger.ErrorWithContext(ctx, "Ошибка запуска синхронизации", "kind", kind, "error", err)
		m.notifier.Notify(ctx, models.NotificationError, "Синхронизация не запущена",
			describeError(err, "Не удалось запустить синхронизацию"))
		m.audit.record(ctx, "sync_trigger", m.cfg.Account, string(kind), false, map[string]string{"error": err.Error()})

		m.mu.Lock()
		m.state.Syncing = false
		m.state.Phase = models.PhaseIdle
		m.state.ActiveKind = ""
		m.state.Progress = models.IdleProgress()
		m.mu.Unlock()
		return
	}

	m.metrics.SyncTriggered(kind, true)
	m.notifier.Notify(ctx, models.NotificationInfo, "Синхронизация запущена",
		fmt.Sprintf("Запущена синхронизация: %s", kind))
	m.audit.record(ctx, "sync_trigger", m.cfg.Account, string(kind), true, opts)
	m.events.publish(ctx, messaging.SyncTriggeredEvent, m.cfg.Account, map[string]interface{}{
		"kind":    kind,
		"options": opts,
	})

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.state.Phase = models.PhasePolling
	m.mu.Unlock()

	m.progressLoop.Arm(ctx, m.cfg.PollInterval, m.pollTick)
	m.scheduleRefresh()
}

// scheduleRefresh планирует одно полное обновление через RefreshDelay; предыдущее отменяется
func (m *SyncMonitor) scheduleRefresh() {
	if m.cfg.RefreshDelay <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	if m.refreshTimer != nil && m.refreshTimer.Stop() {
		m.wg.Done()
	}

	m.wg.Add(1)
	m.refreshTimer = time.AfterFunc(m.cfg.RefreshDelay, func() {
		defer m.wg.Done()
		if m.lifeCtx.Err() != nil {
			return
		}
		m.FetchSyncSnapshot(m.lifeCtx)
	})
}

// pollTick - один тик опроса хода синхронизации.
// Когда бэкенд сообщает, что синхронизация не идет, цикл завершается после ровно одного полного обновления
func (m *SyncMonitor) pollTick(ctx context.Context) bool {
	m.metrics.PollTick("progress")

	m.mu.Lock()
	gen := m.triggerGen
	m.mu.Unlock()

	progress, err := m.backend.SyncProgress(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		m.logger.WarnWithContext(ctx, "Ошибка опроса хода синхронизации", "error", err)
		return true
	}

	m.mu.Lock()
	if ctx.Err() != nil || m.triggerGen != gen {
		m.mu.Unlock()
		return false
	}
	m.state.Progress = *progress
	if progress.IsRunning {
		m.mu.Unlock()
		return true
	}
	m.state.Syncing = false
	kind := m.state.ActiveKind
	m.mu.Unlock()

	snap := m.FetchSyncSnapshot(ctx)

	outcome := models.PhaseCompleted
	if snap.LastSync != nil && snap.LastSync.Status == models.SyncStatusFailed {
		outcome = models.PhaseFailed
	}

	m.mu.Lock()
	// Пока шло обновление, запустили новую синхронизацию: ее состояние не трогаем
	if ctx.Err() != nil || m.triggerGen != gen {
		m.mu.Unlock()
		return false
	}
	m.state.Phase = models.PhaseIdle
	m.state.LastOutcome = outcome
	m.state.ActiveKind = ""
	m.state.Progress = models.IdleProgress()
	m.mu.Unlock()

	m.logger.InfoWithContext(ctx, "Синхронизация завершена", "kind", kind, "outcome", outcome)

	if outcome == models.PhaseFailed {
		msg := "Последний запуск завершился с ошибкой"
		if snap.LastSync.ErrorMessage != nil && *snap.LastSync.ErrorMessage != "" {
			msg = *snap.LastSync.ErrorMessage
		}
		m.notifier.Notify(ctx, models.NotificationError, "Синхронизация завершилась с ошибкой", msg)
	} else {
		m.notifier.Notify(ctx, models.NotificationSuccess, "Синхронизация завершена",
			fmt.Sprintf("Продуктов: %d, офферов: %d", snap.TotalProducts, snap.TotalOffers))
	}
	m.events.publish(ctx, messaging.SyncFinishedEvent, m.cfg.Account, map[string]interface{}{
		"kind":      kind,
		"outcome":   outcome,
		"last_sync": snap.LastSync,
	})

	return false
}

// SetRealtime включает или выключает проверку доступности бэкенда
func (m *SyncMonitor) SetRealtime(on bool) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.state.Realtime = on
	started := m.started
	m.mu.Unlock()

	if !on {
		m.healthLoop.Stop()
		return
	}
	if started {
		m.healthLoop.Arm(m.lifeCtx, m.cfg.HealthInterval, m.healthTick)
	}
}

func (m *SyncMonitor) healthTick(ctx context.Context) bool {
	m.metrics.PollTick("health")
	m.CheckHealth(ctx)
	return true
}

// CheckHealth запрашивает /health и обновляет только статус доступности
func (m *SyncMonitor) CheckHealth(ctx context.Context) models.HealthStatus {
	start := m.now()
	err := m.backend.Health(ctx)
	latency := m.now().Sub(start)

	if ctx.Err() != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.state.Health
	}

	status := models.HealthHealthy
	switch {
	case err == nil && latency > m.cfg.HealthWarnLatency:
		status = models.HealthWarning
	case err == nil:
	case backend.KindOf(err) == backend.KindRateLimit:
		status = models.HealthWarning
	default:
		status = models.HealthError
	}

	checked := m.now().UTC()
	m.mu.Lock()
	prev := m.state.Health
	m.state.Health = status
	m.state.HealthCheckedAt = &checked
	m.state.HealthLatencyMs = latency.Milliseconds()
	m.mu.Unlock()

	m.metrics.SetHealth(status)

	if status == models.HealthError && prev != models.HealthError {
		m.logger.WarnWithContext(ctx, "Бэкенд интеграции недоступен", "error", err)
		m.notifier.Notify(ctx, models.NotificationError, "Бэкенд недоступен",
			describeError(err, "Проверка доступности не прошла"))
	}

	return status
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ExportSyncRecord скачивает выгрузку запуска и сохраняет ее файлом без преобразований.
// Возвращает путь к файлу
func (m *SyncMonitor) ExportSyncRecord(ctx context.Context, syncID string) (string, error) {
	if syncID == "" {
		return "", utils.ErrEmptySyncID
	}

	account := m.cfg.Account
	m.mu.Lock()
	for _, rec := range m.state.Snapshot.History {
		if rec.SyncID == syncID && rec.AccountType != "" {
			account = rec.AccountType
			break
		}
	}
	m.mu.Unlock()

	data, err := m.backend.ExportSync(ctx, syncID, account)
	if err != nil {
		m.logger.ErrorWithContext(ctx, "Ошибка выгрузки синхронизации", "sync_id", syncID, "error", err)
		m.notifier.Notify(ctx, models.NotificationError, "Выгрузка не выполнена",
			describeError(err, "Не удалось выгрузить данные синхронизации"))
		m.audit.record(ctx, "sync_export", account, syncID, false, map[string]string{"error": err.Error()})
		return "", fmt.Errorf("выгрузка синхронизации %s: %w", syncID, err)
	}

	if err := os.MkdirAll(m.cfg.ExportDir, 0o755); err != nil {
		return "", m.exportFailed(ctx, account, syncID, fmt.Errorf("ошибка создания каталога выгрузок: %w", err))
	}

	name := fmt.Sprintf("sync_export_%s_%s.json",
		unsafeFileChars.ReplaceAllString(syncID, "_"),
		m.now().UTC().Format("20060102_150405"))
	path := filepath.Join(m.cfg.ExportDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", m.exportFailed(ctx, account, syncID, fmt.Errorf("ошибка записи файла выгрузки: %w", err))
	}

	m.notifier.Notify(ctx, models.NotificationSuccess, "Выгрузка сохранена", path)
	m.audit.record(ctx, "sync_export", account, syncID, true, map[string]interface{}{
		"path":  path,
		"bytes": len(data),
	})

	return path, nil
}

// exportFailed сообщает оператору о локальной ошибке сохранения выгрузки
func (m *SyncMonitor) exportFailed(ctx context.Context, account pkgmodels.AccountType, syncID string, err error) error {
	m.logger.ErrorWithContext(ctx, "Ошибка сохранения выгрузки", "sync_id", syncID, "dir", m.cfg.ExportDir, "error", err)
	m.notifier.Notify(ctx, models.NotificationError, "Выгрузка не сохранена", err.Error())
	m.audit.record(ctx, "sync_export", account, syncID, false, map[string]string{"error": err.Error()})
	return err
}

package models

import (
	"time"

	"github.com/athebyme/emag-console/pkg/models"
)

// SyncKind - тип синхронизации, запускаемой из консоли
type SyncKind string

const (
	SyncProducts SyncKind = "products"
	SyncOffers   SyncKind = "offers"
	SyncOrders   SyncKind = "orders"
)

// Valid проверяет, что тип синхронизации известен
func (k SyncKind) Valid() bool {
	switch k {
	case SyncProducts, SyncOffers, SyncOrders:
		return true
	}
	return false
}

// SyncStatus - статус запуска синхронизации на стороне бэкенда
type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncRecord - неизменяемый снимок запуска синхронизации
type SyncRecord struct {
	SyncID          string             `json:"sync_id"`
	AccountType     models.AccountType `json:"account_type"`
	Kind            SyncKind           `json:"sync_type,omitempty"`
	Status          SyncStatus         `json:"status"`
	ProcessedItems  int                `json:"processed_items"`
	StartedAt       time.Time          `json:"started_at"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	DurationSeconds *float64           `json:"duration_seconds,omitempty"`
	ErrorMessage    *string            `json:"error_message,omitempty"`
}

// Duration возвращает длительность запуска, если ее можно определить
func (r *SyncRecord) Duration() (time.Duration, bool) {
	if r.DurationSeconds != nil {
		return time.Duration(*r.DurationSeconds * float64(time.Second)), true
	}
	if r.CompletedAt != nil && !r.StartedAt.IsZero() {
		return r.CompletedAt.Sub(r.StartedAt), true
	}
	return 0, false
}

// SyncProgress - локальная агрегация последнего ответа о ходе синхронизации
type SyncProgress struct {
	IsRunning              bool               `json:"is_running"`
	CurrentAccount         models.AccountType `json:"current_account,omitempty"`
	CurrentPage            int                `json:"current_page"`
	TotalPages             int                `json:"total_pages"`
	ProcessedItems         int                `json:"processed_items"`
	EstimatedTimeRemaining *float64           `json:"estimated_time_remaining,omitempty"`
	Throughput             float64            `json:"throughput"`
	Errors                 int                `json:"errors"`
	Warnings               int                `json:"warnings"`
}

// IdleProgress - состояние хода синхронизации, когда ничего не выполняется
func IdleProgress() SyncProgress {
	return SyncProgress{}
}

// SyncOptions - параметры запуска синхронизации
type SyncOptions struct {
	MaxPagesPerAccount   int     `json:"max_pages_per_account"`
	DelayBetweenRequests float64 `json:"delay_between_requests"`
	IncludeInactive      *bool   `json:"include_inactive,omitempty"`
}

// SyncPhase - фаза локального конечного автомата одного запуска
type SyncPhase string

const (
	PhaseIdle      SyncPhase = "idle"
	PhaseTriggered SyncPhase = "triggered"
	PhasePolling   SyncPhase = "polling"
	PhaseCompleted SyncPhase = "completed"
	PhaseFailed    SyncPhase = "failed"
)

// HealthStatus - трехзначный статус доступности бэкенда
type HealthStatus string

const (
	HealthUnknown HealthStatus = "unknown"
	HealthHealthy HealthStatus = "healthy"
	HealthWarning HealthStatus = "warning"
	HealthError   HealthStatus = "error"
)

// SnapshotSource - откуда взяты данные представления синхронизации
type SnapshotSource string

const (
	SourceLive  SnapshotSource = "live"
	SourceCache SnapshotSource = "cache"
	SourceDemo  SnapshotSource = "demo"
)

// SyncSnapshot - агрегированное представление мониторинга синхронизации
type SyncSnapshot struct {
	TotalProducts int             `json:"total_products"`
	MainProducts  int             `json:"main_products"`
	FBEProducts   int             `json:"fbe_products"`
	TotalOffers   int             `json:"total_offers"`
	Products      []ProductRecord `json:"products"`
	History       []SyncRecord    `json:"history"`
	LastSync      *SyncRecord     `json:"last_sync,omitempty"`
	Source        SnapshotSource  `json:"source"`
	Degraded      bool            `json:"degraded"`
	FailedParts   []string        `json:"failed_parts,omitempty"`
	FetchedAt     time.Time       `json:"fetched_at"`
}

// SetProducts заменяет список продуктов и пересчитывает счетчики по аккаунтам
func (s *SyncSnapshot) SetProducts(products []ProductRecord) {
	s.Products = products
	s.TotalProducts = len(products)
	s.MainProducts, s.FBEProducts = 0, 0
	for i := range products {
		switch products[i].AccountType {
		case models.AccountMain:
			s.MainProducts++
		case models.AccountFBE:
			s.FBEProducts++
		}
	}
}

// Clone возвращает копию снимка, не разделяющую срезы с оригиналом
func (s SyncSnapshot) Clone() SyncSnapshot {
	out := s
	out.Products = append([]ProductRecord(nil), s.Products...)
	out.History = append([]SyncRecord(nil), s.History...)
	out.FailedParts = append([]string(nil), s.FailedParts...)
	if s.LastSync != nil {
		last := *s.LastSync
		out.LastSync = &last
	}
	return out
}

// SyncMetrics - производные метрики по истории запусков
type SyncMetrics struct {
	TotalRuns       int     `json:"total_runs"`
	Completed       int     `json:"completed"`
	Failed          int     `json:"failed"`
	Running         int     `json:"running"`
	SuccessRate     float64 `json:"success_rate"`
	AverageDuration float64 `json:"average_duration_seconds"`
	TotalProcessed  int     `json:"total_processed"`
}

// ComputeSyncMetrics считает метрики по истории запусков.
// Доля успешных считается только по завершенным запускам (completed + failed)
func ComputeSyncMetrics(history []SyncRecord) SyncMetrics {
	m := SyncMetrics{TotalRuns: len(history)}
	var total time.Duration
	var timed int
	for i := range history {
		rec := &history[i]
		switch rec.Status {
		case SyncStatusCompleted:
			m.Completed++
		case SyncStatusFailed:
			m.Failed++
		case SyncStatusRunning, SyncStatusPending:
			m.Running++
		}
		m.TotalProcessed += rec.ProcessedItems
		if d, ok := rec.Duration(); ok {
			total += d
			timed++
		}
	}
	if finished := m.Completed + m.Failed; finished > 0 {
		m.SuccessRate = float64(m.Completed) / float64(finished) * 100
	}
	if timed > 0 {
		m.AverageDuration = (total / time.Duration(timed)).Seconds()
	}
	return m
}

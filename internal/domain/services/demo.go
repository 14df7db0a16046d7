package services

import (
	"time"

	"github.com/athebyme/emag-console/internal/domain/models"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
	"github.com/shopspring/decimal"
)

// demoSnapshot - фиксированный набор данных, который показывается, когда бэкенд полностью недоступен
// и в кэше нет последнего удачного снимка
func demoSnapshot(now time.Time) models.SyncSnapshot {
	synced := now.Add(-2 * time.Hour)
	completed := now.Add(-2*time.Hour + 4*time.Minute)
	failedAt := now.Add(-26*time.Hour + time.Minute)
	duration := completed.Sub(synced).Seconds()
	failedDuration := 60.0
	failMsg := "eMAG API timeout"

	products := []models.ProductRecord{
		{ID: "demo-1", SKU: "EMG-DEMO-001", Name: "Demo product 1", AccountType: pkgmodels.AccountMain,
			Price: decimal.RequireFromString("199.99"), Currency: "RON", Stock: 12, IsActive: true, Status: "active", LastSyncAt: &synced},
		{ID: "demo-2", SKU: "EMG-DEMO-002", Name: "Demo product 2", AccountType: pkgmodels.AccountMain,
			Price: decimal.RequireFromString("49.90"), Currency: "RON", Stock: 0, IsActive: false, Status: "inactive", LastSyncAt: &synced},
		{ID: "demo-3", SKU: "EMG-DEMO-003", Name: "Demo product 3", AccountType: pkgmodels.AccountFBE,
			Price: decimal.RequireFromString("349.00"), Currency: "RON", Stock: 5, IsActive: true, Status: "active", LastSyncAt: &synced},
	}

	history := []models.SyncRecord{
		{SyncID: "demo-sync-2", AccountType: pkgmodels.AccountBoth, Kind: models.SyncProducts, Status: models.SyncStatusCompleted,
			ProcessedItems: len(products), StartedAt: synced, CompletedAt: &completed, DurationSeconds: &duration},
		{SyncID: "demo-sync-1", AccountType: pkgmodels.AccountFBE, Kind: models.SyncOffers, Status: models.SyncStatusFailed,
			ProcessedItems: 0, StartedAt: now.Add(-26 * time.Hour), CompletedAt: &failedAt, DurationSeconds: &failedDuration, ErrorMessage: &failMsg},
	}

	snap := models.SyncSnapshot{
		TotalOffers: 2,
		History:     history,
		LastSync:    &history[0],
		Source:      models.SourceDemo,
		Degraded:    true,
		FetchedAt:   now,
	}
	snap.SetProducts(products)
	return snap
}

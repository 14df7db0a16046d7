package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/internal/utils"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
)

// triggerPaths сопоставляет тип синхронизации маршруту запуска
var triggerPaths = map[models.SyncKind]string{
	models.SyncProducts: "/emag/enhanced/sync/all-products",
	models.SyncOffers:   "/emag/enhanced/sync/all-offers",
	models.SyncOrders:   "/emag/enhanced/sync/orders",
}

// SyncStatusReport - последний запуск и недавняя история
type SyncStatusReport struct {
	LatestSync  *models.SyncRecord  `json:"latest_sync"`
	RecentSyncs []models.SyncRecord `json:"recent_syncs"`
}

// Products возвращает продукты по всем страницам профиля (или обоих профилей)
func (c *Client) Products(ctx context.Context, q models.ProductQuery) ([]models.ProductRecord, int, error) {
	var data struct {
		Products   []models.ProductRecord `json:"products"`
		TotalCount int                    `json:"total_count"`
	}

	err := c.do(ctx, request{
		endpoint: "products_all",
		method:   http.MethodGet,
		path:     "/emag/enhanced/products/all",
		query:    q.ToValues(),
	}, &data)
	if err != nil {
		return nil, 0, err
	}

	total := data.TotalCount
	if total < len(data.Products) {
		total = len(data.Products)
	}

	return data.Products, total, nil
}

// OfferCount возвращает количество офферов
func (c *Client) OfferCount(ctx context.Context, q models.ProductQuery) (int, error) {
	q.IncludeInactive = nil

	var data struct {
		Offers     []json.RawMessage `json:"offers"`
		TotalCount int               `json:"total_count"`
	}

	err := c.do(ctx, request{
		endpoint: "offers_all",
		method:   http.MethodGet,
		path:     "/emag/enhanced/offers/all",
		query:    q.ToValues(),
	}, &data)
	if err != nil {
		return 0, err
	}

	if data.TotalCount > 0 {
		return data.TotalCount, nil
	}
	return len(data.Offers), nil
}

// SyncProgress возвращает текущий ход синхронизации
func (c *Client) SyncProgress(ctx context.Context) (*models.SyncProgress, error) {
	var progress models.SyncProgress
	err := c.do(ctx, request{
		endpoint: "sync_progress",
		method:   http.MethodGet,
		path:     "/emag/enhanced/products/sync-progress",
	}, &progress)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// SyncStatus возвращает последний запуск и историю.
// Пустой ответ или 404 означает, что синхронизаций еще не было (utils.ErrNoData)
func (c *Client) SyncStatus(ctx context.Context, account pkgmodels.AccountType) (*SyncStatusReport, error) {
	var report SyncStatusReport
	err := c.do(ctx, request{
		endpoint: "sync_status",
		method:   http.MethodGet,
		path:     "/emag/enhanced/status",
		query:    url.Values{"account_type": {account.String()}},
	}, &report)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("история синхронизаций: %w", utils.ErrNoData)
		}
		return nil, err
	}

	if report.LatestSync == nil && len(report.RecentSyncs) == 0 {
		return nil, fmt.Errorf("история синхронизаций: %w", utils.ErrNoData)
	}

	return &report, nil
}

// TriggerSync запускает синхронизацию и возвращается сразу после подтверждения бэкенда
func (c *Client) TriggerSync(ctx context.Context, kind models.SyncKind, opts models.SyncOptions) error {
	path, ok := triggerPaths[kind]
	if !ok {
		return fmt.Errorf("%w: %q", utils.ErrInvalidSyncKind, kind)
	}

	if kind == models.SyncOffers {
		opts.IncludeInactive = nil
	}

	return c.do(ctx, request{
		endpoint: "sync_trigger_" + string(kind),
		method:   http.MethodPost,
		path:     path,
		body:     opts,
	}, nil)
}

// ExportSync скачивает выгрузку запуска синхронизации без преобразований
func (c *Client) ExportSync(ctx context.Context, syncID string, account pkgmodels.AccountType) ([]byte, error) {
	if syncID == "" {
		return nil, utils.ErrEmptySyncID
	}

	values := url.Values{}
	values.Set("sync_id", syncID)
	values.Set("account_type", account.String())
	values.Set("format", "json")

	return c.doRaw(ctx, request{
		endpoint: "sync_export",
		method:   http.MethodGet,
		path:     "/emag/enhanced/sync/export",
		query:    values,
	})
}

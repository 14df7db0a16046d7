package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/athebyme/emag-console/internal/adapters/logger"
	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/internal/utils"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (r *recordingObserver) ObserveBackendRequest(endpoint, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]string)
	}
	r.outcomes[endpoint] = outcome
}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second}, logger.NewNop(), opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, logger.NewNop())
	require.Error(t, err)
}

func TestCouriersSendsTokenAndRequestID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emag/phase2/awb/couriers", r.URL.Path)
		assert.Equal(t, "fbe", r.URL.Query().Get("account_type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"couriers": []map[string]interface{}{
					{"id": 7, "account_name": "Sameday main", "courier_name": "Sameday", "is_active": true},
					{"id": 8, "account_name": "FAN", "courier_name": "FAN Courier", "is_active": false},
				},
			},
		})
	}), WithTokenProvider(staticToken("secret")))

	couriers, err := c.Couriers(context.Background(), pkgmodels.AccountFBE)
	require.NoError(t, err)
	require.Len(t, couriers, 2)
	assert.Equal(t, int64(7), couriers[0].ID)
	assert.True(t, couriers[0].IsActive)
	assert.False(t, couriers[1].IsActive)
}

func TestOrdersQueryAndPagination(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "3", q.Get("status"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "100", q.Get("items_per_page"))

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"orders": []map[string]interface{}{
					{"id": 1, "status": 3, "total_amount": "125.50", "currency": "RON"},
					{"id": 2, "status": 3, "awb_number": "AWB1"},
				},
				"pagination": map[string]interface{}{"page": 1, "items_per_page": 100, "total_items": 2, "total_pages": 1},
			},
		})
	}))

	orders, page, err := c.Orders(context.Background(), OrdersQuery{AccountType: pkgmodels.AccountMain, Status: models.OrderStatusPrepared})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "125.5", orders[0].TotalAmount.String())
	assert.True(t, orders[1].HasAWB())
	assert.Equal(t, int64(2), page.TotalItems)
}

func TestGenerateAWB(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emag/phase2/awb/42/generate", r.URL.Path)

		var body GenerateAWBRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(7), body.CourierAccountID)
		assert.Equal(t, pkgmodels.AccountMain, body.AccountType)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data":   map[string]string{"awb_number": "4EMG123"},
		})
	}))

	awb, err := c.GenerateAWB(context.Background(), 42, GenerateAWBRequest{AccountType: pkgmodels.AccountMain, CourierAccountID: 7})
	require.NoError(t, err)
	assert.Equal(t, "4EMG123", awb)
}

func TestGenerateAWBRejectsInvalidInput(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("запрос не должен отправляться")
	}))

	_, err := c.GenerateAWB(context.Background(), 0, GenerateAWBRequest{CourierAccountID: 1})
	assert.ErrorIs(t, err, utils.ErrInvalidOrderID)

	_, err = c.GenerateAWB(context.Background(), 1, GenerateAWBRequest{})
	assert.ErrorIs(t, err, utils.ErrInvalidCourierID)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{
			name:    "rate limit by status",
			status:  http.StatusTooManyRequests,
			body:    `{"detail":"Too many requests"}`,
			kind:    KindRateLimit,
			message: "Too many requests",
		},
		{
			name:    "rate limit by error code",
			status:  http.StatusBadRequest,
			body:    `{"detail":"slow down","error_code":"RATE_LIMIT_EXCEEDED"}`,
			kind:    KindRateLimit,
			message: "slow down",
		},
		{
			name:    "validation with detail list",
			status:  http.StatusUnprocessableEntity,
			body:    `{"detail":[{"msg":"field required"},{"msg":"invalid courier"}]}`,
			kind:    KindValidation,
			message: "field required; invalid courier",
		},
		{
			name:    "validation with detail string",
			status:  http.StatusBadRequest,
			body:    `{"detail":"Order already has AWB"}`,
			kind:    KindValidation,
			message: "Order already has AWB",
		},
		{
			name:    "server error with undecodable body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			kind:    KindServer,
			message: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			_, err := c.Couriers(context.Background(), pkgmodels.AccountMain)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.message, MessageOf(err))
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	c, err := NewClient(Config{BaseURL: baseURL, Timeout: time.Second}, logger.NewNop(), WithObserver(obs))
	require.NoError(t, err)

	err = c.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, string(KindNetwork), obs.outcomes["health"])
}

func TestEnvelopeErrorStatusIsValidation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "message": "Account not configured"})
	}))

	err := c.TriggerSync(context.Background(), models.SyncProducts, models.SyncOptions{MaxPagesPerAccount: 5})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Account not configured", MessageOf(err))
}

func TestTriggerSyncPaths(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var opts models.SyncOptions
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&opts))
		if r.URL.Path == "/emag/enhanced/sync/all-offers" {
			assert.Nil(t, opts.IncludeInactive)
		}

		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "started"})
	}))

	include := true
	for _, kind := range []models.SyncKind{models.SyncProducts, models.SyncOffers, models.SyncOrders} {
		require.NoError(t, c.TriggerSync(context.Background(), kind, models.SyncOptions{IncludeInactive: &include}))
	}

	err := c.TriggerSync(context.Background(), models.SyncKind("stock"), models.SyncOptions{})
	assert.ErrorIs(t, err, utils.ErrInvalidSyncKind)

	assert.Equal(t, []string{
		"/emag/enhanced/sync/all-products",
		"/emag/enhanced/sync/all-offers",
		"/emag/enhanced/sync/orders",
	}, paths)
}

func TestSyncProgressWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"is_running":      true,
			"current_account": "fbe",
			"current_page":    3,
			"total_pages":     10,
			"processed_items": 300,
		})
	}))

	progress, err := c.SyncProgress(context.Background())
	require.NoError(t, err)
	assert.True(t, progress.IsRunning)
	assert.Equal(t, pkgmodels.AccountFBE, progress.CurrentAccount)
	assert.Equal(t, 300, progress.ProcessedItems)
}

func TestSyncStatusNoData(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data":   map[string]interface{}{"latest_sync": nil, "recent_syncs": []interface{}{}},
		})
	}))

	_, err := c.SyncStatus(context.Background(), pkgmodels.AccountBoth)
	assert.ErrorIs(t, err, utils.ErrNoData)
}

func TestOfferCountFallsBackToListLength(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("include_inactive"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data":   map[string]interface{}{"offers": []map[string]int{{"id": 1}, {"id": 2}}},
		})
	}))

	include := true
	count, err := c.OfferCount(context.Background(), models.ProductQuery{AccountType: pkgmodels.AccountBoth, IncludeInactive: &include})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTrackAWBNormalizesStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emag/phase2/awb/AWB1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"courier_name": "Sameday",
				"status":       "In transit",
				"events": []map[string]string{
					{"time": "2025-03-01T10:00:00Z", "status": "Picked up", "location": "Bucuresti"},
				},
			},
		})
	}))

	snap, err := c.TrackAWB(context.Background(), "AWB1", pkgmodels.AccountMain)
	require.NoError(t, err)
	assert.Equal(t, "AWB1", snap.AWBNumber)
	assert.Equal(t, models.TrackingStatusInTransit, snap.Status)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "Bucuresti", snap.Events[0].Location)
}

func TestExportSyncReturnsRawBody(t *testing.T) {
	blob := `{"sync_id":"s-1","items":[1,2,3]}`
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "s-1", r.URL.Query().Get("sync_id"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = io.WriteString(w, blob)
	}))

	data, err := c.ExportSync(context.Background(), "s-1", pkgmodels.AccountMain)
	require.NoError(t, err)
	assert.Equal(t, blob, string(data))

	_, err = c.ExportSync(context.Background(), "", pkgmodels.AccountMain)
	assert.ErrorIs(t, err, utils.ErrEmptySyncID)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/athebyme/emag-console/internal/adapters/logger"
	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/internal/domain/services"
	"github.com/athebyme/emag-console/internal/metrics"
	"github.com/athebyme/emag-console/internal/security"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAWB struct{}

func (stubAWB) View() services.AWBView { return services.AWBView{Account: pkgmodels.AccountMain} }
func (stubAWB) LoadOrders(context.Context, pkgmodels.AccountType) error { return nil }
func (stubAWB) LoadCouriers(context.Context, pkgmodels.AccountType) error { return nil }
func (stubAWB) OpenForm(int64) error { return nil }
func (stubAWB) CloseForm() {}

func (stubAWB) GenerateAWB(context.Context, services.GenerateRequest) (string, error) {
	return "AWB", nil
}

func (stubAWB) BulkGenerateAWB(context.Context, services.Confirmer) (*models.BulkAWBResult, error) {
	return &models.BulkAWBResult{}, nil
}

func (stubAWB) TrackAWB(_ context.Context, awb string) (*models.TrackingSnapshot, error) {
	return &models.TrackingSnapshot{AWBNumber: awb}, nil
}

type stubSync struct{}

func (stubSync) View() services.SyncView {
	return services.SyncView{Phase: models.PhaseIdle, Health: models.HealthHealthy}
}
func (stubSync) Metrics() models.SyncMetrics { return models.SyncMetrics{} }
func (stubSync) FetchSyncSnapshot(context.Context) models.SyncSnapshot { return models.SyncSnapshot{} }
func (stubSync) TriggerSync(context.Context, models.SyncKind) error { return nil }
func (stubSync) SetRealtime(bool) {}
func (stubSync) CheckHealth(context.Context) models.HealthStatus { return models.HealthHealthy }

func (stubSync) ExportSyncRecord(context.Context, string) (string, error) {
	return "/tmp/export.json", nil
}

type stubFeed struct{}

func (stubFeed) List(int) []models.Notification { return nil }
func (stubFeed) Clear() {}

type stubValidator struct{}

func (stubValidator) ValidateToken(_ context.Context, token string) (*security.Claims, error) {
	if token != "good" {
		return nil, errors.New("invalid")
	}
	claims := &security.Claims{UserID: "u1"}
	claims.RealmAccess.Roles = []string{"console-operator"}
	return claims, nil
}

func newRouter(withAuth bool) http.Handler {
	deps := RouterDeps{
		AWB:           stubAWB{},
		Sync:          stubSync{},
		Notifications: stubFeed{},
		Logger:        logger.NewNop(),
		Metrics:       metrics.NewRegistry(),
	}
	if withAuth {
		deps.Validator = stubValidator{}
		deps.ClientID = "emag-console"
		deps.OperatorRoles = []string{"console-operator"}
	}
	return SetupRouter(deps)
}

func get(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	h := newRouter(true)

	rec := get(h, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	get(h, "/health", "")
	rec = get(h, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `emag_console_http_requests_total{method="GET",route="/health",status="200"} 2`))
}

func TestAPIRequiresOperatorToken(t *testing.T) {
	h := newRouter(true)

	assert.Equal(t, http.StatusUnauthorized, get(h, "/api/v1/sync", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/api/v1/sync", "bad").Code)

	rec := get(h, "/api/v1/sync", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phase":"idle"`)
}

func TestRoutesWithoutAuth(t *testing.T) {
	h := newRouter(false)

	for _, path := range []string{"/api/v1/awb", "/api/v1/sync/metrics", "/api/v1/notifications", "/api/v1/awb/track/AWB1"} {
		assert.Equal(t, http.StatusOK, get(h, path, "").Code, path)
	}

	// Журнал команд отключен
	assert.Equal(t, http.StatusNotFound, get(h, "/api/v1/audit", "").Code)
}

func TestSwaggerIsPublic(t *testing.T) {
	h := newRouter(true)

	rec := get(h, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	for _, path := range []string{"/awb/track/{awb}", "/sync/trigger/{kind}", "/sync/export/{syncID}", "/audit"} {
		assert.Contains(t, doc.Paths, path)
	}

	rec = get(h, "/swagger/index.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/swagger/doc.json")
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokodash/backend/internal/export"
	"tokodash/backend/internal/metrics"
	"tokodash/backend/internal/service"
	"tokodash/backend/internal/store/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAPI(t *testing.T) *API {
	t.Helper()
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-secret-1")
	t.Setenv("SEED_VIEWER_PASSWORD", "viewer-secret-1")

	repo := memory.NewSeeded()
	reportMetrics := metrics.NewReportMetrics()
	files := export.NewDirFileStore(t.TempDir())
	svc := service.New(repo, nil, files, reportMetrics, zerolog.Nop(), 20*time.Second, nil)
	auth := NewAuthManager(testSecret, time.Hour, repo)
	return New(svc, auth, reportMetrics, zerolog.Nop(), "http://127.0.0.1:3000")
}

func login(t *testing.T, handler http.Handler, username string, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "login body: %s", rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func doAuthed(handler http.Handler, method string, path string, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzIsPublic(t *testing.T) {
	handler := newTestAPI(t).Handler()
	rec := doAuthed(handler, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardRequiresAuth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doAuthed(handler, http.MethodGet, "/api/v1/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doAuthed(handler, http.MethodGet, "/api/v1/dashboard", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardServesSnapshotToViewer(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "viewer", "viewer-secret-1")

	rec := doAuthed(handler, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot struct {
		Trend      []any `json:"trend"`
		Categories []any `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Len(t, snapshot.Trend, 8)
	assert.NotEmpty(t, snapshot.Categories)
}

func TestReportEndpointReturnsDocument(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "viewer", "viewer-secret-1")

	rec := doAuthed(handler, http.MethodGet, "/api/v1/reports/sales", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Headers []string   `json:"headers"`
		Rows    [][]string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, []string{"ID", "Date", "Cashier", "Amount ($)", "Status"}, doc.Headers)
	assert.NotEmpty(t, doc.Rows)
}

func TestExportIsAdminOnly(t *testing.T) {
	handler := newTestAPI(t).Handler()

	viewerToken := login(t, handler, "viewer", "viewer-secret-1")
	rec := doAuthed(handler, http.MethodPost, "/api/v1/reports/sales/export?format=csv", viewerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := login(t, handler, "admin", "admin-secret-1")
	rec = doAuthed(handler, http.MethodPost, "/api/v1/reports/sales/export?format=csv", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, "export body: %s", rec.Body.String())

	var result struct {
		FileName string   `json:"file_name"`
		States   []string `json:"states"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Contains(t, result.FileName, "Sales_Report_")
	assert.Contains(t, result.States, "exporting")
}

func TestExportRetryWithNothingPendingIsBadRequest(t *testing.T) {
	handler := newTestAPI(t).Handler()
	adminToken := login(t, handler, "admin", "admin-secret-1")

	rec := doAuthed(handler, http.MethodPost, "/api/v1/reports/export/retry", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportStateIsReadableByViewers(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "viewer", "viewer-secret-1")

	rec := doAuthed(handler, http.MethodGet, "/api/v1/reports/export/state", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "idle")
}

func TestImportRoundTrip(t *testing.T) {
	handler := newTestAPI(t).Handler()
	adminToken := login(t, handler, "admin", "admin-secret-1")

	payload, _ := json.Marshal(map[string]any{"records": []any{
		map[string]any{"id": "loss-x", "item_name": "Telur", "quantity": 1, "value": "2.65"},
		"garbage",
	}})
	rec := doAuthed(handler, http.MethodPost, "/api/v1/import/losses", adminToken, payload)
	require.Equal(t, http.StatusOK, rec.Code, "import body: %s", rec.Body.String())

	var result struct {
		Imported int `json:"imported"`
		Dropped  int `json:"dropped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Dropped)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	handler := newTestAPI(t).Handler()

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateViewerValidatesInput(t *testing.T) {
	handler := newTestAPI(t).Handler()
	adminToken := login(t, handler, "admin", "admin-secret-1")

	payload, _ := json.Marshal(map[string]string{"username": "ab", "password": "short"})
	rec := doAuthed(handler, http.MethodPost, "/api/v1/users/viewers", adminToken, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	payload, _ = json.Marshal(map[string]string{"username": "analyst", "password": "long-enough-pw"})
	rec = doAuthed(handler, http.MethodPost, "/api/v1/users/viewers", adminToken, payload)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSecurityHeadersArePresent(t *testing.T) {
	handler := newTestAPI(t).Handler()
	rec := doAuthed(handler, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "http://127.0.0.1:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

// Package httpapi exposes the aggregation service over HTTP: dashboard and
// report reads for any authenticated user, exports and imports for admins.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tokodash/backend/internal/domain"
	"tokodash/backend/internal/metrics"
	"tokodash/backend/internal/report"
	"tokodash/backend/internal/service"
	"tokodash/backend/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	metrics       *metrics.ReportMetrics
	log           zerolog.Logger
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, reportMetrics *metrics.ReportMetrics, log zerolog.Logger, allowedOrigin string) *API {
	return &API{
		service:       svc,
		auth:          auth,
		metrics:       reportMetrics,
		log:           log.With().Str("component", "httpapi").Logger(),
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(a.middleware)

	r.Get("/healthz", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	r.Post("/api/v1/auth/login", a.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth("viewer", "admin"))
		r.Get("/api/v1/dashboard", a.handleDashboard)
		r.Get("/api/v1/reports/trend", a.handleTrend)
		r.Get("/api/v1/reports/categories", a.handleCategories)
		r.Get("/api/v1/reports/profitability", a.handleProfitability)
		r.Get("/api/v1/insights", a.handleInsights)
		r.Get("/api/v1/reports/export/state", a.handleExportState)
		r.Get("/api/v1/reports/{type}", a.handleReport)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth("admin"))
		r.Post("/api/v1/reports/{type}/export", a.handleExport)
		r.Post("/api/v1/reports/export/retry", a.handleExportRetry)
		r.Post("/api/v1/import/{kind}", a.handleImport)
		r.Get("/api/v1/users/viewers", a.handleListViewers)
		r.Post("/api/v1/users/viewers", a.handleCreateViewer)
	})

	return r
}

func (a *API) requireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
				writeError(a.log, w, http.StatusUnauthorized, errors.New("missing bearer token"))
				return
			}

			token := strings.TrimSpace(authorization[len("Bearer "):])
			actor, err := a.auth.ParseToken(token)
			if err != nil {
				writeError(a.log, w, http.StatusUnauthorized, err)
				return
			}

			if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
				writeError(a.log, w, http.StatusForbidden, errors.New("forbidden role"))
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), actor)))
		})
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(a.log, w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.log, w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(a.log, w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.service.Dashboard(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (a *API) handleTrend(w http.ResponseWriter, r *http.Request) {
	buckets, err := a.service.Trend(r.Context(), r.URL.Query().Get("period"), r.URL.Query().Get("kind"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trend": buckets})
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	breakdown, err := a.service.Categories(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (a *API) handleProfitability(w http.ResponseWriter, r *http.Request) {
	profit, err := a.service.Profitability(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profit)
}

func (a *API) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := a.service.Insights(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	doc, err := a.service.Report(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	result, err := a.service.ExportReport(r.Context(), chi.URLParam(r, "type"), r.URL.Query().Get("format"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleExportRetry(w http.ResponseWriter, r *http.Request) {
	result, err := a.service.RetryExport(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleExportState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"state": a.service.ExportState()})
}

func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Records []any `json:"records"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(a.log, w, http.StatusBadRequest, err)
		return
	}

	result, err := a.service.ImportRecords(r.Context(), chi.URLParam(r, "kind"), payload.Records)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleListViewers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"viewers": a.auth.ListViewers()})
}

func (a *API) handleCreateViewer(w http.ResponseWriter, r *http.Request) {
	var req domain.ViewerCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.log, w, http.StatusBadRequest, err)
		return
	}

	viewer, err := a.auth.CreateViewer(req)
	if err != nil {
		writeError(a.log, w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"viewer": viewer})
}

// writeServiceError maps service and engine errors onto HTTP statuses. The
// two empty-result conditions get distinct messages so the UI can tell "no
// data at all" apart from "your filter matched nothing".
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, report.ErrNoData), errors.Is(err, report.ErrNoMatchingRecords), errors.Is(err, store.ErrNotFound):
		writeError(a.log, w, http.StatusNotFound, err)
	case errors.Is(err, report.ErrExportInFlight):
		writeError(a.log, w, http.StatusConflict, err)
	case errors.Is(err, report.ErrNothingToRetry), errors.Is(err, store.ErrInvalidInput):
		writeError(a.log, w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrAdminRequired):
		writeError(a.log, w, http.StatusForbidden, err)
	default:
		writeError(a.log, w, http.StatusInternalServerError, err)
	}
}

func (a *API) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 4<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		a.metrics.IncRequest(r.URL.Path, statusClass(recorder.status))
		a.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("elapsed", time.Since(startedAt)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeError(log zerolog.Logger, w http.ResponseWriter, status int, err error) {
	// For 5xx responses, return a generic message to avoid leaking internal
	// implementation details. 4xx responses are user-facing so the original
	// error message goes through.
	msg := err.Error()
	if status >= 500 {
		log.Error().Int("status", status).Err(err).Msg("internal error")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

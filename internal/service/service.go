package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tokodash/backend/internal/cache"
	"tokodash/backend/internal/domain"
	"tokodash/backend/internal/export"
	"tokodash/backend/internal/metrics"
	"tokodash/backend/internal/normalize"
	"tokodash/backend/internal/report"
	"tokodash/backend/internal/store"
)

var ErrAdminRequired = errors.New("admin role required")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const dashboardCacheKey = "dashboard:v1"

// Service wires the pure aggregation engine to persistence, caching, and
// the export boundary. The clock is injected so aggregation windows are
// reproducible in tests.
type Service struct {
	repo      store.Repository
	cache     cache.DashboardCache
	cacheTTL  time.Duration
	renderers map[string]export.DocumentRenderer
	files     export.FileStore
	generator *report.Generator
	metrics   *metrics.ReportMetrics
	log       zerolog.Logger
	now       func() time.Time
}

func New(repo store.Repository, dashCache cache.DashboardCache, files export.FileStore, reportMetrics *metrics.ReportMetrics, log zerolog.Logger, cacheTTL time.Duration, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if dashCache == nil {
		dashCache = cache.NoopDashboardCache{}
	}
	if cacheTTL < time.Second {
		cacheTTL = 20 * time.Second
	}

	s := &Service{
		repo:     repo,
		cache:    dashCache,
		cacheTTL: cacheTTL,
		renderers: map[string]export.DocumentRenderer{
			"csv":  export.CSVRenderer{},
			"html": export.HTMLRenderer{},
		},
		files:   files,
		metrics: reportMetrics,
		log:     log.With().Str("component", "service").Logger(),
		now:     now,
	}
	s.generator = report.NewGenerator(report.Stages{
		Fetch:  s.fetchBatch,
		Export: s.saveDocument,
	}, now, log)
	return s
}

// windowFor translates a trend period into the fetch range handed to the
// repository, matching the bucket seeding in the report package.
func windowFor(period report.Period, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch period {
	case report.PeriodYear:
		return time.Date(now.Year()-1, now.Month(), 1, 0, 0, 0, 0, time.UTC), now
	case report.PeriodMonth:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0), now
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -7), now
	}
}

// Dashboard assembles the landing-page snapshot, serving a cached copy when
// one is fresh. Cache failures degrade to a recompute, never to an error.
func (s *Service) Dashboard(ctx context.Context) (domain.DashboardSnapshot, error) {
	if cached, ok, err := s.cache.Get(ctx, dashboardCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("dashboard cache read failed")
	} else if ok && cached != nil {
		return *cached, nil
	}

	now := s.now().UTC()
	from, to := windowFor(report.PeriodWeek, now)
	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return domain.DashboardSnapshot{}, fmt.Errorf("list sales: %w", err)
	}
	inventory, err := s.repo.ListInventory(ctx)
	if err != nil {
		return domain.DashboardSnapshot{}, fmt.Errorf("list inventory: %w", err)
	}

	trend := report.SalesTrend(sales, report.PeriodWeek, now)
	categories := report.CategorySummaries(inventory)
	statuses := report.StatusCounts(inventory)
	bestSellers := report.TopN(report.BestSellers(sales), 5)
	profit := report.Profitability(sales, inventory)

	snapshot := domain.DashboardSnapshot{
		Trend:       trend,
		Categories:  categories,
		TopProducts: report.TopN(profit.Products, 5),
		BestSellers: bestSellers,
		Insights: report.Insights(report.InsightInputs{
			Categories:  categories,
			Statuses:    statuses,
			BestSellers: bestSellers,
			Trend:       trend,
		}),
		GeneratedAt: now.Format(time.RFC3339),
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, &snapshot, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("dashboard cache write failed")
	}
	return snapshot, nil
}

// Trend returns the bucketed series for the requested period. kind selects
// the source: "losses" buckets loss events, anything else buckets sales.
func (s *Service) Trend(ctx context.Context, periodRaw string, kind string) ([]domain.TrendBucket, error) {
	period := report.ParsePeriod(periodRaw)
	now := s.now().UTC()
	from, to := windowFor(period, now)

	if strings.EqualFold(kind, "losses") {
		losses, err := s.repo.ListLosses(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("list losses: %w", err)
		}
		return report.LossTrend(losses, period, now), nil
	}

	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return report.SalesTrend(sales, period, now), nil
}

// CategoryBreakdown is the category distribution plus status tallies for
// the inventory overview widgets.
type CategoryBreakdown struct {
	Categories []domain.CategorySummary `json:"categories"`
	Statuses   []domain.StatusCount     `json:"statuses"`
}

func (s *Service) Categories(ctx context.Context) (CategoryBreakdown, error) {
	inventory, err := s.repo.ListInventory(ctx)
	if err != nil {
		return CategoryBreakdown{}, fmt.Errorf("list inventory: %w", err)
	}
	return CategoryBreakdown{
		Categories: report.CategorySummaries(inventory),
		Statuses:   report.StatusCounts(inventory),
	}, nil
}

func (s *Service) Profitability(ctx context.Context, periodRaw string) (domain.ProfitReport, error) {
	period := report.ParsePeriod(periodRaw)
	from, to := windowFor(period, s.now())
	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return domain.ProfitReport{}, fmt.Errorf("list sales: %w", err)
	}
	inventory, err := s.repo.ListInventory(ctx)
	if err != nil {
		return domain.ProfitReport{}, fmt.Errorf("list inventory: %w", err)
	}
	return report.Profitability(sales, inventory), nil
}

func (s *Service) Insights(ctx context.Context, periodRaw string) ([]domain.Insight, error) {
	period := report.ParsePeriod(periodRaw)
	now := s.now().UTC()
	from, to := windowFor(period, now)

	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	inventory, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	return report.Insights(report.InsightInputs{
		Categories:  report.CategorySummaries(inventory),
		Statuses:    report.StatusCounts(inventory),
		BestSellers: report.BestSellers(sales),
		Trend:       report.SalesTrend(sales, period, now),
	}), nil
}

// Report builds the on-screen document for a report type without touching
// the export pipeline.
func (s *Service) Report(ctx context.Context, typeRaw string) (domain.ReportDocument, error) {
	t := report.ParseType(typeRaw)
	batch, err := s.fetchBatch(ctx, t)
	if err != nil {
		return domain.ReportDocument{}, err
	}
	if batch.Empty() {
		return domain.ReportDocument{}, report.ErrNoData
	}
	doc := report.Build(t, batch, s.now())
	if t == report.TypeRefunds && len(doc.Rows) == 0 {
		return domain.ReportDocument{}, report.ErrNoMatchingRecords
	}
	return doc, nil
}

// ExportReport runs the full generation lifecycle and writes the file.
// Admin only; one export runs at a time.
func (s *Service) ExportReport(ctx context.Context, typeRaw string, format string) (domain.ExportResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ExportResult{}, err
	}
	format = normalizeFormat(format)
	if _, ok := s.renderers[format]; !ok {
		return domain.ExportResult{}, fmt.Errorf("%w: unsupported format %q", store.ErrInvalidInput, format)
	}

	t := report.ParseType(typeRaw)
	started := s.now()
	result, err := s.generator.Generate(ctx, t, format)
	s.metrics.ObserveGeneration(string(t), s.now().Sub(started))
	if err != nil {
		s.metrics.IncFailure(string(t), failureReason(err))
		return result, err
	}
	s.metrics.IncSuccess(string(t))
	return result, nil
}

// RetryExport redoes only the save step of the last failed export.
func (s *Service) RetryExport(ctx context.Context) (domain.ExportResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ExportResult{}, err
	}
	result, err := s.generator.Retry(ctx)
	if err != nil {
		s.metrics.IncFailure(result.Document.Type, failureReason(err))
		return result, err
	}
	s.metrics.IncSuccess(result.Document.Type)
	return result, nil
}

// ExportState reports the generator's current lifecycle stage.
func (s *Service) ExportState() string {
	return string(s.generator.CurrentState())
}

// ImportRecords normalizes a raw payload of the given kind and persists the
// records that survive. Structurally hopeless entries are dropped and
// counted, never fatal.
func (s *Service) ImportRecords(ctx context.Context, kind string, payload []any) (domain.ImportResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ImportResult{}, err
	}

	kind = strings.ToLower(strings.TrimSpace(kind))
	result := domain.ImportResult{Kind: kind, Received: len(payload)}

	var (
		imported int
		err      error
	)
	switch kind {
	case "sales":
		records := normalize.Sales(payload)
		result.Dropped = len(payload) - len(records)
		imported, err = s.repo.InsertSales(ctx, records)
	case "inventory":
		items := normalize.Inventory(payload)
		result.Dropped = len(payload) - len(items)
		imported, err = s.repo.InsertInventory(ctx, items)
	case "losses":
		records := normalize.Losses(payload)
		result.Dropped = len(payload) - len(records)
		imported, err = s.repo.InsertLosses(ctx, records)
	default:
		return domain.ImportResult{}, fmt.Errorf("%w: unknown import kind %q", store.ErrInvalidInput, kind)
	}
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("insert %s: %w", kind, err)
	}

	result.Imported = imported
	s.log.Info().Str("kind", kind).Int("received", result.Received).Int("imported", imported).Int("dropped", result.Dropped).Msg("records imported")
	return result, nil
}

// fetchBatch loads whatever record sets the report type reads. Types bound
// to a single source skip the other queries.
func (s *Service) fetchBatch(ctx context.Context, t report.Type) (report.Batch, error) {
	var batch report.Batch
	var err error

	switch t {
	case report.TypeSales, report.TypeRefunds:
		batch.Sales, err = s.repo.ListSales(ctx, time.Time{}, time.Time{})
	case report.TypeInventory, report.TypeLowStock:
		batch.Inventory, err = s.repo.ListInventory(ctx)
	case report.TypeLosses:
		batch.Losses, err = s.repo.ListLosses(ctx, time.Time{}, time.Time{})
	default:
		if batch.Sales, err = s.repo.ListSales(ctx, time.Time{}, time.Time{}); err != nil {
			break
		}
		if batch.Inventory, err = s.repo.ListInventory(ctx); err != nil {
			break
		}
		batch.Losses, err = s.repo.ListLosses(ctx, time.Time{}, time.Time{})
	}
	if err != nil {
		return report.Batch{}, fmt.Errorf("fetch %s records: %w", t, err)
	}
	return batch, nil
}

// saveDocument renders and persists an export file. Renderer lookup was
// validated before generation started.
func (s *Service) saveDocument(ctx context.Context, doc domain.ReportDocument, format string) (string, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return "", fmt.Errorf("%w: unsupported format %q", store.ErrInvalidInput, format)
	}
	data, err := renderer.Render(doc)
	if err != nil {
		return "", err
	}
	fileName := export.FileName(doc.Title, doc.GeneratedAt, renderer.Extension())
	return s.files.Save(ctx, fileName, data)
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return ErrAdminRequired
	}
	return nil
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return "csv"
	}
	return format
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, report.ErrNoData):
		return "no_data"
	case errors.Is(err, report.ErrNoMatchingRecords):
		return "no_matching_records"
	case errors.Is(err, report.ErrExportInFlight):
		return "export_in_flight"
	case errors.Is(err, report.ErrNothingToRetry):
		return "nothing_to_retry"
	default:
		return "export_failed"
	}
}

package report

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tokodash/backend/internal/domain"
)

var (
	// ErrNoData means the fetch stage returned nothing to report on.
	ErrNoData = errors.New("no data available for report")
	// ErrNoMatchingRecords means records exist but the report's filter
	// excluded every one of them.
	ErrNoMatchingRecords = errors.New("no records match the report filters")
	// ErrExportInFlight rejects a generation request while another one is
	// still running.
	ErrExportInFlight = errors.New("another export is already in progress")
	// ErrNothingToRetry means retry was called with no failed export to
	// resume.
	ErrNothingToRetry = errors.New("no failed export to retry")
)

// State names a stage of the generation lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateValidating State = "validating"
	StateFormatting State = "formatting"
	StateExporting  State = "exporting"
	StateFailed     State = "failed"
)

// Stages supplies the two side-effecting steps of a generation run. Fetch
// loads the record batch for a report type; Export persists the rendered
// document and returns the written file name. Everything between the two is
// pure.
type Stages struct {
	Fetch  func(ctx context.Context, t Type) (Batch, error)
	Export func(ctx context.Context, doc domain.ReportDocument, format string) (string, error)
}

// Generator drives a report through fetch → validate → format → export. One
// generation runs at a time; a finished run, successful or not, always
// leaves the generator idle and ready for the next request. After an export
// failure the formatted document is retained so Retry can redo only the
// save, without refetching.
type Generator struct {
	stages Stages
	now    func() time.Time
	log    zerolog.Logger

	mu         sync.Mutex
	state      State
	running    bool
	lastDoc    *domain.ReportDocument
	lastType   Type
	lastFormat string
}

func NewGenerator(stages Stages, now func() time.Time, log zerolog.Logger) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		stages: stages,
		now:    now,
		log:    log.With().Str("component", "report_generator").Logger(),
		state:  StateIdle,
	}
}

// CurrentState returns the stage the generator is in right now.
func (g *Generator) CurrentState() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Generate runs the full lifecycle for a report type. The returned
// ExportResult carries the ordered state trace of the run, the rendered
// document, and the saved file name. On error the result still carries the
// trace up to the failing stage.
func (g *Generator) Generate(ctx context.Context, t Type, format string) (domain.ExportResult, error) {
	if err := g.begin(); err != nil {
		return domain.ExportResult{}, err
	}
	defer g.finish()

	result := domain.ExportResult{Format: format, States: []string{}}
	advance := func(s State) {
		g.setState(s)
		result.States = append(result.States, string(s))
	}

	advance(StateFetching)
	batch, err := g.stages.Fetch(ctx, t)
	if err != nil {
		g.fail(&result, t, "fetch", err)
		return result, err
	}

	advance(StateValidating)
	if batch.Empty() {
		g.fail(&result, t, "validate", ErrNoData)
		return result, ErrNoData
	}
	if batch.relevant(t) == 0 {
		g.fail(&result, t, "validate", ErrNoMatchingRecords)
		return result, ErrNoMatchingRecords
	}

	advance(StateFormatting)
	doc := Build(t, batch, g.now())
	result.Document = doc
	if t == TypeRefunds && len(doc.Rows) == 0 {
		g.fail(&result, t, "format", ErrNoMatchingRecords)
		return result, ErrNoMatchingRecords
	}

	advance(StateExporting)
	fileName, err := g.stages.Export(ctx, doc, format)
	if err != nil {
		g.retain(doc, t, format)
		g.fail(&result, t, "export", err)
		return result, err
	}

	g.clearRetained()
	advance(StateIdle)
	result.FileName = fileName
	g.log.Info().Str("type", string(t)).Str("file", fileName).Msg("report exported")
	return result, nil
}

// Retry re-runs only the export stage against the document retained from
// the last failed run. Fetching and formatting are not repeated, so the
// retried file matches what the user saw fail.
func (g *Generator) Retry(ctx context.Context) (domain.ExportResult, error) {
	if err := g.begin(); err != nil {
		return domain.ExportResult{}, err
	}
	defer g.finish()

	g.mu.Lock()
	doc := g.lastDoc
	t := g.lastType
	format := g.lastFormat
	g.mu.Unlock()
	if doc == nil {
		return domain.ExportResult{}, ErrNothingToRetry
	}

	result := domain.ExportResult{Format: format, Document: *doc, States: []string{string(StateExporting)}}
	g.setState(StateExporting)

	fileName, err := g.stages.Export(ctx, *doc, format)
	if err != nil {
		g.fail(&result, t, "export", err)
		return result, err
	}

	g.clearRetained()
	g.setState(StateIdle)
	result.States = append(result.States, string(StateIdle))
	result.FileName = fileName
	g.log.Info().Str("type", string(t)).Str("file", fileName).Msg("report export retried")
	return result, nil
}

func (g *Generator) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return ErrExportInFlight
	}
	g.running = true
	return nil
}

func (g *Generator) finish() {
	g.mu.Lock()
	g.running = false
	g.state = StateIdle
	g.mu.Unlock()
}

func (g *Generator) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// fail records the failed stage in the trace. The deferred finish returns
// the generator to idle, so failure never wedges subsequent requests.
func (g *Generator) fail(result *domain.ExportResult, t Type, stage string, err error) {
	g.setState(StateFailed)
	result.States = append(result.States, string(StateFailed))
	g.log.Warn().Str("type", string(t)).Str("stage", stage).Err(err).Msg("report generation failed")
}

func (g *Generator) retain(doc domain.ReportDocument, t Type, format string) {
	g.mu.Lock()
	g.lastDoc = &doc
	g.lastType = t
	g.lastFormat = format
	g.mu.Unlock()
}

func (g *Generator) clearRetained() {
	g.mu.Lock()
	g.lastDoc = nil
	g.lastType = TypeDefault
	g.lastFormat = ""
	g.mu.Unlock()
}

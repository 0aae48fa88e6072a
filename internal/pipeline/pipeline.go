// Package pipeline runs lead generation end to end: collect, enrich, dedup,
// classify, validate, sort, filter and export.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/classify"
	"github.com/sells-group/leadgen-cli/internal/collect"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/internal/validate"
)

// Enricher fills missing fields on a collected record.
type Enricher interface {
	Enrich(ctx context.Context, rec model.Record) model.Record
}

// RecordClassifier assigns an industry classification.
type RecordClassifier interface {
	Classify(ctx context.Context, rec model.Record) classify.Result
	Stats() *classify.Stats
}

// RecordValidator cleans and scores a classified record.
type RecordValidator interface {
	Validate(rec model.Record) validate.Outcome
}

// ispClassifier lets the context-free ISP classifier run as a stage.
type ispClassifier struct {
	c *classify.ISPClassifier
}

func (a ispClassifier) Classify(_ context.Context, rec model.Record) classify.Result {
	return a.c.Classify(rec)
}

func (a ispClassifier) Stats() *classify.Stats { return a.c.Stats() }

// Default settings applied by New and NewISP.
const (
	DefaultOutputDir   = "data/outputs"
	DefaultPrefix      = "crm_leads"
	DefaultISPPrefix   = "isp_leads"
	DefaultThreshold   = 5
	DefaultConcurrency = 8

	// highQualityScore is the data_quality_score a general lead needs to be
	// reported as high quality.
	highQualityScore = 8
)

// Options configure a pipeline. Zero values fall back to the defaults above.
type Options struct {
	Sources    []collect.Source
	Enricher   Enricher // nil skips enrichment
	Classifier RecordClassifier
	Validator  RecordValidator
	Sinks      []export.Sink
	Store      store.Store // nil disables run history

	OutputDir string
	Prefix    string
	XLSX      bool

	Threshold   int
	Concurrency int
	Deadline    time.Duration // enrichment budget; 0 means none
	MaxRecords  int
	MergeFuzzy  bool

	Now func() time.Time
}

// Pipeline orchestrates one kind of lead generation run.
type Pipeline struct {
	kind model.PipelineKind
	opts Options
}

// New creates the general pipeline. Without a classifier it falls back to
// keyword classification.
func New(opts Options) *Pipeline {
	if opts.Classifier == nil {
		opts.Classifier = classify.New(nil)
	}
	if opts.Validator == nil {
		opts.Validator = validate.NewValidator()
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return newPipeline(model.PipelineGeneral, opts)
}

// NewISP creates the ISP pipeline: fuzzy dedup, the ISP classifier and
// validator, and the ISP CSV layout.
func NewISP(opts Options) *Pipeline {
	if opts.Classifier == nil {
		opts.Classifier = ispClassifier{c: classify.NewISPClassifier()}
	}
	if opts.Validator == nil {
		opts.Validator = validate.NewISPValidator()
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultISPPrefix
	}
	return newPipeline(model.PipelineISP, opts)
}

func newPipeline(kind model.PipelineKind, opts Options) *Pipeline {
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{kind: kind, opts: opts}
}

// Kind reports which pipeline variant this is.
func (p *Pipeline) Kind() model.PipelineKind { return p.kind }

// runState carries records and bookkeeping between stages.
type runState struct {
	id      string
	params  model.SearchParams
	log     *zap.Logger
	records []model.Record
	sources []string
	counts  model.StageCounts
	partial bool
}

// Run records a new run and executes it.
func (p *Pipeline) Run(ctx context.Context, params model.SearchParams) (*model.Summary, error) {
	runID := uuid.NewString()
	if p.opts.Store != nil {
		run, err := p.opts.Store.CreateRun(ctx, p.kind, params)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
	}
	return p.Execute(ctx, runID, params)
}

// Execute runs every stage for a run that already exists. The returned
// summary is non-nil even when the run fails.
func (p *Pipeline) Execute(ctx context.Context, runID string, params model.SearchParams) (*model.Summary, error) {
	start := time.Now()
	st := &runState{
		id:     runID,
		params: params,
		log: zap.L().With(
			zap.String("run_id", runID),
			zap.String("kind", string(p.kind)),
			zap.String("query", params.Query),
			zap.String("location", params.Location),
		),
	}
	st.log.Info("pipeline: starting run")
	p.setStatus(ctx, st, model.RunStatusRunning)

	trackStage := func(name string, fn func() int) {
		stageStart := time.Now()
		n := fn()
		st.log.Info("pipeline: stage complete",
			zap.String("stage", name),
			zap.Int("count", n),
			zap.Int64("duration_ms", time.Since(stageStart).Milliseconds()),
		)
	}

	trackStage("collect", func() int {
		st.counts.Collected = p.collect(ctx, st)
		return st.counts.Collected
	})
	trackStage("enrich", func() int {
		st.counts.Enriched = p.enrich(ctx, st)
		return st.counts.Enriched
	})
	trackStage("dedup", func() int {
		st.counts.Deduplicated = p.dedup(st)
		return st.counts.Deduplicated
	})
	trackStage("classify", func() int {
		st.counts.Classified = p.classify(ctx, st)
		return st.counts.Classified
	})
	trackStage("validate", func() int {
		st.counts.Validated = p.validate(st)
		return st.counts.Validated
	})
	trackStage("sort", func() int {
		sortByQuality(st.records)
		return len(st.records)
	})
	trackStage("filter", func() int {
		before := len(st.records)
		st.records = p.filter(st.records)
		st.counts.FilteredOut = before - len(st.records)
		st.counts.HighQuality = p.highQuality(st.records)
		return len(st.records)
	})

	summary := p.summary(st, start)

	if err := ctx.Err(); err != nil {
		err = eris.Wrap(err, "pipeline: run cancelled before export")
		p.fail(ctx, st, err)
		summary.Duration = time.Since(start)
		return summary, err
	}

	var (
		path      string
		exportErr error
	)
	trackStage("export", func() int {
		path, exportErr = p.export(ctx, st)
		return len(st.records)
	})
	if exportErr != nil {
		p.fail(ctx, st, exportErr)
		summary.Duration = time.Since(start)
		return summary, exportErr
	}

	st.counts.Exported = len(st.records)
	summary.ExportedFile = path
	summary.PerStageCounts = st.counts
	summary.Partial = st.partial
	summary.Duration = time.Since(start)

	status := model.RunStatusComplete
	if st.partial {
		status = model.RunStatusPartial
	}
	if p.opts.Store != nil {
		if err := p.opts.Store.CompleteRun(context.WithoutCancel(ctx), st.id, status, summary); err != nil {
			st.log.Warn("pipeline: failed to record run completion", zap.Error(err))
		}
	}

	st.log.Info("pipeline: run complete",
		zap.String("status", string(status)),
		zap.String("file", path),
		zap.Int("total", summary.Total),
		zap.Int("high_quality", summary.HighQualityCount),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (p *Pipeline) summary(st *runState, start time.Time) *model.Summary {
	return &model.Summary{
		RunID:            st.id,
		Kind:             p.kind,
		Total:            len(st.records),
		HighQualityCount: st.counts.HighQuality,
		PerStageCounts:   st.counts,
		Sources:          st.sources,
		Classification:   p.opts.Classifier.Stats().Snapshot(),
		Partial:          st.partial,
		Duration:         time.Since(start),
	}
}

func (p *Pipeline) setStatus(ctx context.Context, st *runState, status model.RunStatus) {
	if p.opts.Store == nil {
		return
	}
	if err := p.opts.Store.UpdateRunStatus(ctx, st.id, status); err != nil {
		st.log.Warn("pipeline: failed to update run status", zap.String("status", string(status)), zap.Error(err))
	}
}

func (p *Pipeline) fail(ctx context.Context, st *runState, err error) {
	st.log.Error("pipeline: run failed", zap.Error(err))
	if p.opts.Store == nil {
		return
	}
	if ferr := p.opts.Store.FailRun(context.WithoutCancel(ctx), st.id, err.Error()); ferr != nil {
		st.log.Warn("pipeline: failed to record run failure", zap.Error(ferr))
	}
}

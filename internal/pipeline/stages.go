package pipeline

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/collect"
	"github.com/sells-group/leadgen-cli/internal/dedup"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/validate"
)

// selectSources returns the configured sources named in want, or all of
// them when want is empty.
func (p *Pipeline) selectSources(st *runState) []collect.Source {
	if len(st.params.Sources) == 0 {
		return p.opts.Sources
	}
	byName := make(map[string]collect.Source, len(p.opts.Sources))
	for _, s := range p.opts.Sources {
		byName[s.Name()] = s
	}
	var out []collect.Source
	for _, name := range st.params.Sources {
		s, ok := byName[name]
		if !ok {
			st.log.Warn("pipeline: unknown source requested", zap.String("source", name))
			continue
		}
		out = append(out, s)
	}
	return out
}

// collect runs every selected source concurrently. A failing source is
// skipped and marks the run partial.
func (p *Pipeline) collect(ctx context.Context, st *runState) int {
	sources := p.selectSources(st)
	results := make([][]model.Record, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			results[i], errs[i] = src.Collect(ctx, st.params)
			return nil
		})
	}
	_ = g.Wait()

	for i, src := range sources {
		if errs[i] != nil {
			st.log.Warn("pipeline: source failed, skipping",
				zap.String("source", src.Name()),
				zap.Error(errs[i]),
			)
			st.partial = true
			continue
		}
		st.sources = append(st.sources, src.Name())
		st.records = append(st.records, results[i]...)
		st.log.Debug("pipeline: source collected",
			zap.String("source", src.Name()),
			zap.Int("records", len(results[i])),
		)
	}

	if p.opts.MaxRecords > 0 && len(st.records) > p.opts.MaxRecords {
		st.log.Warn("pipeline: truncating collected records",
			zap.Int("collected", len(st.records)),
			zap.Int("max_records", p.opts.MaxRecords),
		)
		st.records = st.records[:p.opts.MaxRecords]
	}
	return len(st.records)
}

// enrich runs the enricher over every record with bounded concurrency. Once
// the deadline passes, records not yet started are kept as collected.
func (p *Pipeline) enrich(ctx context.Context, st *runState) int {
	if p.opts.Enricher == nil || len(st.records) == 0 {
		return 0
	}

	ectx, cancel := ctx, context.CancelFunc(func() {})
	if p.opts.Deadline > 0 {
		ectx, cancel = context.WithTimeout(ctx, p.opts.Deadline)
	}
	defer cancel()

	done := make([]bool, len(st.records))
	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)
	for i, rec := range st.records {
		if ectx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ectx.Err() != nil {
				return nil
			}
			out := p.opts.Enricher.Enrich(ectx, rec)
			if out == nil {
				return nil
			}
			st.records[i] = out
			done[i] = ectx.Err() == nil
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range done {
		if ok {
			n++
		}
	}
	if n < len(st.records) && ectx.Err() != nil {
		st.log.Warn("pipeline: enrichment stopped early",
			zap.Int("enriched", n),
			zap.Int("unenriched", len(st.records)-n),
			zap.Error(ectx.Err()),
		)
		st.partial = true
	}
	return n
}

func (p *Pipeline) dedup(st *runState) int {
	if p.kind == model.PipelineISP {
		st.records = dedup.Fuzzy(st.records, dedup.FuzzyOptions{Merge: p.opts.MergeFuzzy})
	} else {
		st.records = dedup.Exact(st.records)
	}
	return len(st.records)
}

// classify labels records in parallel, writing results back by index.
func (p *Pipeline) classify(ctx context.Context, st *runState) int {
	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)
	for _, rec := range st.records {
		g.Go(func() error {
			res := p.opts.Classifier.Classify(ctx, rec)
			res.Classification.Apply(rec)
			if res.Err != nil {
				st.log.Warn("pipeline: classification failed",
					zap.String("business", rec.Name()),
					zap.Error(res.Err),
				)
			} else if res.Fallback != "" {
				st.log.Debug("pipeline: keyword fallback",
					zap.String("business", rec.Name()),
					zap.String("reason", res.Fallback),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return len(st.records)
}

// validate scores records in parallel, writing results back by index.
func (p *Pipeline) validate(st *runState) int {
	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)
	for i, rec := range st.records {
		g.Go(func() error {
			out := p.opts.Validator.Validate(rec)
			if out.Err != nil {
				st.log.Warn("pipeline: validation failed",
					zap.String("business", rec.Name()),
					zap.Error(out.Err),
				)
			}
			if out.Record != nil {
				st.records[i] = out.Record
			}
			return nil
		})
	}
	_ = g.Wait()
	return len(st.records)
}

// sortByQuality orders records by data_quality_score, highest first. Ties
// keep their collection order.
func sortByQuality(records []model.Record) {
	slices.SortStableFunc(records, func(a, b model.Record) int {
		return cmp.Compare(b.Int(model.FieldDataQualityScore), a.Int(model.FieldDataQualityScore))
	})
}

// filter drops general leads below the quality threshold. ISP leads are all
// kept.
func (p *Pipeline) filter(records []model.Record) []model.Record {
	if p.kind == model.PipelineISP {
		return records
	}
	out := records[:0:0]
	for _, rec := range records {
		if rec.Int(model.FieldDataQualityScore) >= p.opts.Threshold {
			out = append(out, rec)
		}
	}
	return out
}

func (p *Pipeline) highQuality(records []model.Record) int {
	n := 0
	for _, rec := range records {
		if p.kind == model.PipelineISP {
			if rec.Float(model.FieldQualityScore) > validate.ISPHighQuality {
				n++
			}
		} else if rec.Int(model.FieldDataQualityScore) >= highQualityScore {
			n++
		}
	}
	return n
}

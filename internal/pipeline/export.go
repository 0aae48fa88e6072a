package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
)

const xlsxSheet = "Leads"

func (p *Pipeline) table(records []model.Record) export.Table {
	if p.kind == model.PipelineISP {
		return export.ISPTable(records)
	}
	return export.CRMTable(records, p.opts.Now())
}

// export writes the CSV and then fans out to the optional outputs. Only a
// CSV failure is fatal; the rest mark the run partial.
func (p *Pipeline) export(ctx context.Context, st *runState) (string, error) {
	name := export.Filename(p.opts.Prefix, st.params.Query, st.params.Location, p.opts.Now())
	path := filepath.Join(p.opts.OutputDir, name)
	t := p.table(st.records)

	if err := export.WriteCSV(path, t); err != nil {
		return "", eris.Wrapf(err, "pipeline: export %s", path)
	}
	st.log.Info("pipeline: csv written", zap.String("path", path), zap.Int("rows", len(t.Rows)))

	if p.opts.XLSX {
		xlsxPath := strings.TrimSuffix(path, ".csv") + ".xlsx"
		if err := export.WriteXLSX(xlsxPath, xlsxSheet, t); err != nil {
			st.log.Warn("pipeline: xlsx export failed", zap.String("path", xlsxPath), zap.Error(err))
			st.partial = true
		}
	}

	for _, sink := range p.opts.Sinks {
		n, err := sink.Push(ctx, st.records)
		if err != nil {
			st.log.Warn("pipeline: sink push failed",
				zap.String("sink", sink.Name()),
				zap.Int("pushed", n),
				zap.Error(err),
			)
			st.partial = true
			continue
		}
		st.log.Info("pipeline: sink push complete", zap.String("sink", sink.Name()), zap.Int("pushed", n))
	}

	if p.opts.Store != nil {
		n, err := p.opts.Store.SaveLeads(ctx, st.id, st.records)
		if err != nil {
			st.log.Warn("pipeline: failed to save leads", zap.Error(err))
			st.partial = true
		} else {
			st.log.Debug("pipeline: leads saved", zap.Int("count", n))
		}
	}

	return path, nil
}

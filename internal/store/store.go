// Package store persists run history and exported leads.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/dedup"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus    `json:"status,omitempty"`
	Kind   model.PipelineKind `json:"kind,omitempty"`
	Limit  int                `json:"limit,omitempty"`
	Offset int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for pipeline runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, kind model.PipelineKind, params model.SearchParams) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.Summary) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Leads
	SaveLeads(ctx context.Context, runID string, records []model.Record) (int, error)
	ListLeads(ctx context.Context, runID string) ([]model.Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

// leadRow is the flattened form of a record written to the leads table.
type leadRow struct {
	ID           string
	Key          string
	BusinessName string
	NAICSCode    string
	DataQuality  int
	QualityScore float64
	Data         []byte
}

func toLeadRows(records []model.Record) ([]leadRow, error) {
	rows := make([]leadRow, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, eris.Wrapf(err, "store: marshal lead %q", rec.Name())
		}
		rows = append(rows, leadRow{
			ID:           uuid.New().String(),
			Key:          leadKey(rec),
			BusinessName: rec.Name(),
			NAICSCode:    rec.Str(model.FieldNAICSCode),
			DataQuality:  rec.Int(model.FieldDataQualityScore),
			QualityScore: rec.Float(model.FieldQualityScore),
			Data:         data,
		})
	}
	return rows, nil
}

// leadKey identifies a business across runs.
func leadKey(rec model.Record) string {
	if k := dedup.Key(rec); k != "" {
		return k
	}
	return "name:" + strings.ToLower(rec.Name())
}

// registryRows keeps the last row per lead key so a single upsert batch
// never touches the same key twice.
func registryRows(rows []leadRow) []leadRow {
	idx := make(map[string]int, len(rows))
	out := make([]leadRow, 0, len(rows))
	for _, r := range rows {
		if i, ok := idx[r.Key]; ok {
			out[i] = r
			continue
		}
		idx[r.Key] = len(out)
		out = append(out, r)
	}
	return out
}

func decodeLead(data []byte) (model.Record, error) {
	rec := model.Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal lead")
	}
	return rec, nil
}

func decodeRun(r *model.Run, params []byte, summary []byte) error {
	if len(params) > 0 {
		if err := json.Unmarshal(params, &r.Params); err != nil {
			return eris.Wrap(err, "store: unmarshal params")
		}
	}
	if len(summary) > 0 {
		r.Summary = &model.Summary{}
		if err := json.Unmarshal(summary, r.Summary); err != nil {
			return eris.Wrap(err, "store: unmarshal summary")
		}
	}
	return nil
}

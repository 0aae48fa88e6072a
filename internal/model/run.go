package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusPartial  RunStatus = "partial"
	RunStatusFailed   RunStatus = "failed"
)

// PipelineKind distinguishes the general and ISP pipeline variants.
type PipelineKind string

const (
	PipelineGeneral PipelineKind = "general"
	PipelineISP     PipelineKind = "isp"
)

// SearchParams describe what a run collects.
type SearchParams struct {
	Query      string   `json:"query"`
	Location   string   `json:"location"`
	Industry   string   `json:"industry,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
	Sources    []string `json:"sources,omitempty"`
}

// StageCounts records how many records left each stage.
type StageCounts struct {
	Collected    int `json:"collected"`
	Deduplicated int `json:"deduplicated"`
	Enriched     int `json:"enriched"`
	Classified   int `json:"classified"`
	Validated    int `json:"validated"`
	FilteredOut  int `json:"filtered_out"`
	Exported     int `json:"exported"`
	HighQuality  int `json:"high_quality"`
}

// ClassifierStats summarizes how records were classified during a run.
type ClassifierStats struct {
	Total             int64   `json:"total"`
	AI                int64   `json:"ai"`
	Keyword           int64   `json:"keyword"`
	Failed            int64   `json:"failed"`
	AverageConfidence float64 `json:"average_confidence"`
}

// Summary is the outcome of a pipeline run.
type Summary struct {
	RunID            string          `json:"run_id"`
	Kind             PipelineKind    `json:"kind"`
	ExportedFile     string          `json:"exported_file"`
	Total            int             `json:"total"`
	HighQualityCount int             `json:"high_quality_count"`
	PerStageCounts   StageCounts     `json:"per_stage_counts"`
	Sources          []string        `json:"sources"`
	Classification   ClassifierStats `json:"classification"`
	Partial          bool            `json:"partial"`
	Duration         time.Duration   `json:"duration"`
}

// Run is a persisted pipeline run.
type Run struct {
	ID        string       `json:"id"`
	Kind      PipelineKind `json:"kind"`
	Params    SearchParams `json:"params"`
	Status    RunStatus    `json:"status"`
	Summary   *Summary     `json:"summary,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

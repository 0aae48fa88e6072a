package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/collect"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	errBoom   = errors.New("boom")
	fixedNow  = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	rtpParams = model.SearchParams{Query: "Fiber Internet", Location: "Raleigh, NC"}
)

func lead(name, phone string, dq int) model.Record {
	return model.Record{
		model.FieldBusinessName:     name,
		model.FieldPhone:            phone,
		model.FieldDataQualityScore: dq,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

// firstColumn returns column 0 of every data row.
func firstColumn(rows [][]string) []string {
	var out []string
	for _, r := range rows[1:] {
		out = append(out, r[0])
	}
	return out
}

func generalSources() (*fakeSource, *fakeSource) {
	a := &fakeSource{name: "a", recs: []model.Record{
		lead("Low Co", "(919) 555-0101", 4),
		lead("Best Co", "(919) 555-0102", 9),
		lead("Mid Co", "(919) 555-0103", 6),
	}}
	b := &fakeSource{name: "b", recs: []model.Record{
		lead("Best Company", "919.555.0102", 3),
		lead("Also Best", "(919) 555-0104", 9),
	}}
	return a, b
}

func newGeneral(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	if opts.Validator == nil {
		opts.Validator = passValidator{}
	}
	opts.Now = func() time.Time { return fixedNow }
	return New(opts)
}

func TestPipeline_Run_General(t *testing.T) {
	a, b := generalSources()
	st := new(mockStore)
	st.On("CreateRun", mock.Anything, model.PipelineGeneral, rtpParams).Return(&model.Run{ID: "run-1"}, nil)
	st.On("UpdateRunStatus", mock.Anything, "run-1", model.RunStatusRunning).Return(nil)
	st.On("SaveLeads", mock.Anything, "run-1", mock.MatchedBy(func(r []model.Record) bool { return len(r) == 3 })).Return(3, nil)
	st.On("CompleteRun", mock.Anything, "run-1", model.RunStatusComplete, mock.AnythingOfType("*model.Summary")).Return(nil)

	dir := t.TempDir()
	p := newGeneral(t, Options{
		Sources:   []collect.Source{a, b},
		Store:     st,
		OutputDir: dir,
	})

	sum, err := p.Run(context.Background(), rtpParams)
	require.NoError(t, err)

	assert.Equal(t, "run-1", sum.RunID)
	assert.Equal(t, model.PipelineGeneral, sum.Kind)
	assert.Equal(t, filepath.Join(dir, "crm_leads_fiber_internet_raleigh_nc_20260301_103000.csv"), sum.ExportedFile)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.HighQualityCount)
	assert.False(t, sum.Partial)
	assert.Equal(t, []string{"a", "b"}, sum.Sources)
	assert.Equal(t, model.StageCounts{
		Collected:    5,
		Deduplicated: 4,
		Classified:   4,
		Validated:    4,
		FilteredOut:  1,
		Exported:     3,
		HighQuality:  2,
	}, sum.PerStageCounts)
	assert.Equal(t, int64(4), sum.Classification.Total)

	rows := readCSV(t, sum.ExportedFile)
	assert.Equal(t, model.CRMColumns, rows[0])
	// sorted by quality, ties in collection order, the duplicate and the
	// low scorer gone
	assert.Equal(t, []string{"Best Co", "Also Best", "Mid Co"}, firstColumn(rows))

	st.AssertExpectations(t)
}

func TestPipeline_Run_NoStore(t *testing.T) {
	a, _ := generalSources()
	p := newGeneral(t, Options{Sources: []collect.Source{a}})

	sum, err := p.Run(context.Background(), rtpParams)
	require.NoError(t, err)
	assert.NotEmpty(t, sum.RunID)
	assert.FileExists(t, sum.ExportedFile)
}

func TestPipeline_Run_CreateRunFails(t *testing.T) {
	st := new(mockStore)
	st.On("CreateRun", mock.Anything, model.PipelineGeneral, rtpParams).Return(nil, errBoom)

	p := newGeneral(t, Options{Store: st})
	_, err := p.Run(context.Background(), rtpParams)
	assert.ErrorContains(t, err, "pipeline: create run")
}

func TestPipeline_SourceFailureIsPartial(t *testing.T) {
	a, _ := generalSources()
	broken := &fakeSource{name: "broken", err: errBoom}

	p := newGeneral(t, Options{Sources: []collect.Source{broken, a}})
	sum, err := p.Run(context.Background(), rtpParams)
	require.NoError(t, err)

	assert.True(t, sum.Partial)
	assert.Equal(t, []string{"a"}, sum.Sources)
	assert.Equal(t, 3, sum.PerStageCounts.Collected)
}

func TestPipeline_SelectsRequestedSources(t *testing.T) {
	a, b := generalSources()
	p := newGeneral(t, Options{Sources: []collect.Source{a, b}})

	params := rtpParams
	params.Sources = []string{"b", "missing"}
	sum, err := p.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Zero(t, a.calls.Load())
	assert.Equal(t, int32(1), b.calls.Load())
	assert.Equal(t, []string{"b"}, sum.Sources)
	assert.Equal(t, 2, sum.PerStageCounts.Collected)
}

func TestPipeline_MaxRecords(t *testing.T) {
	a, b := generalSources()
	p := newGeneral(t, Options{Sources: []collect.Source{a, b}, MaxRecords: 2})

	sum, err := p.Run(context.Background(), rtpParams)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.PerStageCounts.Collected)
	assert.Equal(t, 2, sum.PerStageCounts.Deduplicated)
}

func TestPipeline_Threshold(t *testing.T) {
	a, b := generalSources()
	p := newGeneral(t, Options{Sources: []collect.Source{a, b}, Threshold: 9})

	sum, err := p.Run(context.Background(), rtpParams)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 2, sum.PerStageCounts.FilteredOut)
}

func TestPipeline_ExportFailureFailsRun(t *testing.T) {
	a, _ := generalSources()
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	st := new(mockStore)
	st.On("UpdateRunStatus", mock.Anything, "run-9", model.RunStatusRunning).Return(nil)
	st.On("FailRun", mock.Anything, "run-9", mock.MatchedBy(func(reason string) bool {
		return strings.Contains(reason, "pipeline: export")
	})).Return(nil)

	p := newGeneral(t, Options{
		Sources:   []collect.Source{a},
		Store:     st,
		OutputDir: filepath.Join(blocker, "out"),
	})
	sum, err := p.Execute(context.Background(), "run-9", rtpParams)
	require.Error(t, err)
	require.NotNil(t, sum)
	assert.Empty(t, sum.ExportedFile)
	assert.Equal(t, 2, sum.Total)

	st.AssertExpectations(t)
	st.AssertNotCalled(t, "SaveLeads", mock.Anything, mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "CompleteRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_CancelledBeforeExport(t *testing.T) {
	a, _ := generalSources()
	dir := t.TempDir()
	p := newGeneral(t, Options{Sources: []collect.Source{a}, OutputDir: dir})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := p.Run(ctx, rtpParams)
	require.Error(t, err)
	assert.ErrorContains(t, err, "cancelled before export")
	assert.Empty(t, sum.ExportedFile)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestPipeline_EnrichDeadline(t *testing.T) {
	src := &fakeSource{name: "a", recs: []model.Record{
		lead("Fast Co", "(919) 555-0201", 7),
		lead("Slow Co", "(919) 555-0202", 7),
		lead("Late Co", "(919) 555-0203", 7),
	}}
	enricher := enrichFunc(func(ctx context.Context, rec model.Record) model.Record {
		out := rec.Clone()
		if rec.Name() == "Slow Co" {
			<-ctx.Done()
			return out
		}
		out.Set(model.FieldCEOName, "Pat Quinn")
		return out
	})

	st := new(mockStore)
	st.On("UpdateRunStatus", mock.Anything, "run-2", model.RunStatusRunning).Return(nil)
	st.On("SaveLeads", mock.Anything, "run-2", mock.Anything).Return(3, nil)
	st.On("CompleteRun", mock.Anything, "run-2", model.RunStatusPartial, mock.Anything).Return(nil)

	p := newGeneral(t, Options{
		Sources:     []collect.Source{src},
		Enricher:    enricher,
		Store:       st,
		Concurrency: 1,
		Deadline:    50 * time.Millisecond,
	})
	sum, err := p.Execute(context.Background(), "run-2", rtpParams)
	require.NoError(t, err)

	assert.True(t, sum.Partial)
	assert.Equal(t, 1, sum.PerStageCounts.Enriched)
	// unenriched records still flow through to the export
	assert.Equal(t, 3, sum.Total)
	st.AssertExpectations(t)
}

func TestPipeline_EnrichAll(t *testing.T) {
	a, _ := generalSources()
	enricher := enrichFunc(func(_ context.Context, rec model.Record) model.Record {
		out := rec.Clone()
		out.Set(model.FieldWebsite, "https://example.net")
		return out
	})

	p := newGeneral(t, Options{Sources: []collect.Source{a}, Enricher: enricher, Concurrency: 2})
	sum, err := p.Run(context.Background(), rtpParams)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.PerStageCounts.Enriched)
	assert.False(t, sum.Partial)
}

func TestPipeline_SinksAndXLSX(t *testing.T) {
	a, _ := generalSources()
	good := &fakeSink{name: "good"}
	bad := &fakeSink{name: "bad", err: errBoom}

	p := newGeneral(t, Options{
		Sources: []collect.Source{a},
		Sinks:   []export.Sink{bad, good},
		XLSX:    true,
	})
	sum, err := p.Run(context.Background(), rtpParams)
	require.NoError(t, err)

	assert.True(t, sum.Partial)
	assert.Equal(t, 2, good.pushed)
	assert.FileExists(t, strings.TrimSuffix(sum.ExportedFile, ".csv")+".xlsx")
}

func TestPipeline_SaveLeadsFailureIsPartial(t *testing.T) {
	a, _ := generalSources()
	st := new(mockStore)
	st.On("UpdateRunStatus", mock.Anything, "run-3", model.RunStatusRunning).Return(errBoom)
	st.On("SaveLeads", mock.Anything, "run-3", mock.Anything).Return(0, errBoom)
	st.On("CompleteRun", mock.Anything, "run-3", model.RunStatusPartial, mock.Anything).Return(errBoom)

	p := newGeneral(t, Options{Sources: []collect.Source{a}, Store: st})
	sum, err := p.Execute(context.Background(), "run-3", rtpParams)
	require.NoError(t, err)
	assert.True(t, sum.Partial)
	assert.FileExists(t, sum.ExportedFile)
	st.AssertExpectations(t)
}

func TestPipeline_RealValidator(t *testing.T) {
	src := &fakeSource{name: "a", recs: []model.Record{
		{
			model.FieldBusinessName:        "Triangle Fiber Networks",
			model.FieldPhone:               "(919) 555-0301",
			model.FieldWebsite:             "trianglefiber.net",
			model.FieldAddress:             "100 Main St, Raleigh, NC 27601",
			model.FieldBusinessDescription: "Fiber internet service provider for homes and businesses",
			model.FieldGeneralEmail:        "info@trianglefiber.net",
			model.FieldCEOName:             "Jane Doe",
		},
		{model.FieldBusinessName: "X"},
	}}

	p := New(Options{
		Sources:   []collect.Source{src},
		OutputDir: t.TempDir(),
		Threshold: 1,
		Now:       func() time.Time { return fixedNow },
	})
	sum, err := p.Run(context.Background(), rtpParams)
	require.NoError(t, err)

	rows := readCSV(t, sum.ExportedFile)
	require.NotEmpty(t, firstColumn(rows))
	assert.Equal(t, "Triangle Fiber Networks", rows[1][0])
	assert.Equal(t, int64(2), sum.Classification.Total)
}

func TestPipeline_ISP(t *testing.T) {
	src := &fakeSource{name: collect.SourceFCC, recs: []model.Record{
		{model.FieldBusinessName: "Acme Fiber", model.FieldBusinessDescription: "fiber internet provider", model.FieldPhone: "(919) 555-0401"},
		{model.FieldBusinessName: "ACME FIBER", model.FieldBusinessDescription: "fiber internet"},
		{model.FieldBusinessName: "Yadtel Broadband", model.FieldBusinessDescription: "rural broadband and DSL"},
	}}
	dir := t.TempDir()
	p := NewISP(Options{
		Sources:   []collect.Source{src},
		OutputDir: dir,
		Threshold: 10,
		Now:       func() time.Time { return fixedNow },
	})
	sum, err := p.Run(context.Background(), model.SearchParams{Query: "ISP", Location: "Raleigh, NC"})
	require.NoError(t, err)

	assert.Equal(t, model.PipelineISP, sum.Kind)
	assert.Equal(t, filepath.Join(dir, "isp_leads_isp_raleigh_nc_20260301_103000.csv"), sum.ExportedFile)
	// fuzzy dedup folds the two spellings; the threshold does not apply
	assert.Equal(t, 2, sum.Total)
	assert.Zero(t, sum.PerStageCounts.FilteredOut)
	assert.Equal(t, int64(2), sum.Classification.Total)

	rows := readCSV(t, sum.ExportedFile)
	assert.Equal(t, "company_name", rows[0][0])
	assert.ElementsMatch(t, []string{"Acme Fiber", "Yadtel Broadband"}, firstColumn(rows))
}

func TestSortByQuality_Stable(t *testing.T) {
	recs := []model.Record{
		lead("a", "", 5),
		lead("b", "", 8),
		lead("c", "", 5),
		lead("d", "", 8),
	}
	sortByQuality(recs)

	var got []string
	for _, r := range recs {
		got = append(got, r.Name())
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, got)
}

func TestHighQuality(t *testing.T) {
	general := New(Options{})
	assert.Equal(t, 1, general.highQuality([]model.Record{lead("a", "", 8), lead("b", "", 7)}))

	isp := NewISP(Options{})
	assert.Equal(t, 1, isp.highQuality([]model.Record{
		{model.FieldQualityScore: 0.71},
		{model.FieldQualityScore: 0.7},
	}))
}

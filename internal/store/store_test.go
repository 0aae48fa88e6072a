package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

var testParams = model.SearchParams{Query: "internet providers", Location: "Raleigh, NC", MaxResults: 50}

func testLeads() []model.Record {
	return []model.Record{
		{
			model.FieldBusinessName:     "Acme Fiber",
			model.FieldPhone:            "(919) 555-1234",
			model.FieldNAICSCode:        "517311",
			model.FieldDataQualityScore: 8,
			model.FieldValidationFlags:  []string{"missing_description"},
		},
		{model.FieldBusinessName: "Yadtel", model.FieldQualityScore: 0.75},
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.PipelineGeneral, testParams)
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusQueued, run.Status)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, model.PipelineGeneral, got.Kind)
		assert.Equal(t, testParams, got.Params)
		assert.Nil(t, got.Summary)
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRun(context.Background(), "nonexistent-id")
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("UpdateRunStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.PipelineISP, testParams)
		require.NoError(t, err)
		require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusRunning, got.Status)

		err = s.UpdateRunStatus(ctx, "nonexistent-id", model.RunStatusRunning)
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("CompleteRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.PipelineGeneral, testParams)
		require.NoError(t, err)

		summary := &model.Summary{
			RunID:            run.ID,
			Kind:             model.PipelineGeneral,
			ExportedFile:     "data/outputs/crm_leads_x.csv",
			Total:            12,
			HighQualityCount: 4,
			PerStageCounts:   model.StageCounts{Collected: 20, Deduplicated: 15, Exported: 12},
			Sources:          []string{"yellow_pages"},
		}
		require.NoError(t, s.CompleteRun(ctx, run.ID, model.RunStatusPartial, summary))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusPartial, got.Status)
		require.NotNil(t, got.Summary)
		assert.Equal(t, 12, got.Summary.Total)
		assert.Equal(t, 15, got.Summary.PerStageCounts.Deduplicated)
		assert.Equal(t, []string{"yellow_pages"}, got.Summary.Sources)
	})

	t.Run("FailRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.PipelineGeneral, testParams)
		require.NoError(t, err)
		require.NoError(t, s.FailRun(ctx, run.ID, "export: create output dir"))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, "export: create output dir", got.Error)
	})

	t.Run("ListRuns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a, err := s.CreateRun(ctx, model.PipelineGeneral, testParams)
		require.NoError(t, err)
		_, err = s.CreateRun(ctx, model.PipelineISP, testParams)
		require.NoError(t, err)
		require.NoError(t, s.UpdateRunStatus(ctx, a.ID, model.RunStatusComplete))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		isp, err := s.ListRuns(ctx, RunFilter{Kind: model.PipelineISP})
		require.NoError(t, err)
		require.Len(t, isp, 1)
		assert.Equal(t, model.PipelineISP, isp[0].Kind)

		done, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, a.ID, done[0].ID)

		limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		skipped, err := s.ListRuns(ctx, RunFilter{Limit: 10, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, skipped, 1)
	})

	t.Run("SaveAndListLeads", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.PipelineGeneral, testParams)
		require.NoError(t, err)

		n, err := s.SaveLeads(ctx, run.ID, testLeads())
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		leads, err := s.ListLeads(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, leads, 2)
		assert.Equal(t, "Acme Fiber", leads[0].Name())
		assert.Equal(t, 8, leads[0].Int(model.FieldDataQualityScore))
		assert.Equal(t, []string{"missing_description"}, leads[0].Flags())
		assert.Equal(t, "Yadtel", leads[1].Name())
		assert.InDelta(t, 0.75, leads[1].Float(model.FieldQualityScore), 1e-9)

		n, err = s.SaveLeads(ctx, run.ID, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, func(t *testing.T) Store { return newTestSQLite(t) })
}

func TestSQLiteStore_RegistryTracksSightings(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first, err := s.CreateRun(ctx, model.PipelineGeneral, testParams)
	require.NoError(t, err)
	second, err := s.CreateRun(ctx, model.PipelineGeneral, testParams)
	require.NoError(t, err)

	_, err = s.SaveLeads(ctx, first.ID, testLeads())
	require.NoError(t, err)
	updated := testLeads()[:1]
	updated[0][model.FieldDataQualityScore] = 9
	_, err = s.SaveLeads(ctx, second.ID, updated)
	require.NoError(t, err)

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lead_registry`).Scan(&count))
	assert.Equal(t, 2, count)

	var firstRun, lastRun string
	var score, seen int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT first_run_id, last_run_id, data_quality_score, times_seen FROM lead_registry WHERE lead_key = ?`,
		"phone:9195551234",
	).Scan(&firstRun, &lastRun, &score, &seen))
	assert.Equal(t, first.ID, firstRun)
	assert.Equal(t, second.ID, lastRun)
	assert.Equal(t, 9, score)
	assert.Equal(t, 2, seen)

	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT times_seen FROM lead_registry WHERE lead_key <> ?`,
		"phone:9195551234",
	).Scan(&seen))
	assert.Equal(t, 1, seen)
}

func TestLeadKey(t *testing.T) {
	assert.Equal(t, "phone:9195551234", leadKey(model.Record{model.FieldPhone: "(919) 555-1234"}))
	assert.Equal(t, "name:acme fiber", leadKey(model.Record{model.FieldBusinessName: "Acme Fiber!"}))
	assert.Equal(t, "name:unknown", leadKey(model.Record{}))
}

func TestRegistryRows_LastWins(t *testing.T) {
	rows := registryRows([]leadRow{
		{Key: "a", BusinessName: "first"},
		{Key: "b", BusinessName: "other"},
		{Key: "a", BusinessName: "second"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "second", rows[0].BusinessName)
	assert.Equal(t, "other", rows[1].BusinessName)
}

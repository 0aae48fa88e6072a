package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/internal/validate"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, kind model.PipelineKind, params model.SearchParams) (*model.Run, error) {
	args := m.Called(ctx, kind, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	return m.Called(ctx, runID, status).Error(0)
}

func (m *mockStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.Summary) error {
	return m.Called(ctx, runID, status, summary).Error(0)
}

func (m *mockStore) FailRun(ctx context.Context, runID string, reason string) error {
	return m.Called(ctx, runID, reason).Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) SaveLeads(ctx context.Context, runID string, records []model.Record) (int, error) {
	args := m.Called(ctx, runID, records)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) ListLeads(ctx context.Context, runID string) ([]model.Record, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Record), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// --- Fakes ---

type fakeSource struct {
	name  string
	recs  []model.Record
	err   error
	calls atomic.Int32
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Collect(_ context.Context, _ model.SearchParams) ([]model.Record, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Record, len(s.recs))
	for i, r := range s.recs {
		out[i] = r.Clone()
	}
	return out, nil
}

type enrichFunc func(ctx context.Context, rec model.Record) model.Record

func (f enrichFunc) Enrich(ctx context.Context, rec model.Record) model.Record { return f(ctx, rec) }

// passValidator keeps whatever data_quality_score the record arrived with.
type passValidator struct{}

func (passValidator) Validate(rec model.Record) validate.Outcome {
	return validate.Outcome{Record: rec.Clone()}
}

type fakeSink struct {
	name   string
	err    error
	pushed int
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Push(_ context.Context, records []model.Record) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.pushed = len(records)
	return len(records), nil
}

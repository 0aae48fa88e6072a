package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/ai"
	"github.com/sells-group/leadgen-cli/internal/model"
)

type mockAI struct {
	mock.Mock
}

func (m *mockAI) ClassifyIndustry(ctx context.Context, b ai.Business) (*ai.Result, error) {
	args := m.Called(ctx, b)
	if v := args.Get(0); v != nil {
		return v.(*ai.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

type panicAI struct{}

func (panicAI) ClassifyIndustry(context.Context, ai.Business) (*ai.Result, error) {
	panic("model exploded")
}

func acmeFiber() model.Record {
	return model.Record{
		model.FieldBusinessName:        "Acme Fiber",
		model.FieldBusinessDescription: "internet fiber optic broadband provider",
	}
}

func TestClassify_KeywordTierAcmeFiber(t *testing.T) {
	t.Parallel()

	c := New(nil)
	res := c.Classify(context.Background(), acmeFiber())

	assert.Equal(t, "517311", res.Classification.NAICSCode)
	assert.Equal(t, 85, res.Classification.Confidence)
	assert.Equal(t, model.MethodKeyword, res.Classification.Method)
	assert.Equal(t, "Wired Telecommunications Carriers", res.Classification.Description)
	assert.Equal(t, "Internet Service Provider", res.Classification.Primary)
	assert.Equal(t, "Technology", res.Classification.Category)
	assert.Equal(t, FallbackNoAI, res.Fallback)
	assert.NoError(t, res.Err)
}

func TestClassify_EmptyRecord(t *testing.T) {
	t.Parallel()

	res := New(nil).Classify(context.Background(), model.Record{})

	assert.Equal(t, model.UnclassifiedCode, res.Classification.NAICSCode)
	assert.LessOrEqual(t, res.Classification.Confidence, 20)
	assert.Equal(t, model.MethodKeyword, res.Classification.Method)
	assert.Equal(t, "Other", res.Classification.Category)
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	c := New(nil)
	rec := model.Record{
		model.FieldBusinessName:        "Blue Ridge Dental",
		model.FieldBusinessDescription: "family dentist and clinic",
	}
	first := c.Classify(context.Background(), rec)
	second := c.Classify(context.Background(), rec)
	assert.Equal(t, first, second)
}

func TestClassifyKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		desc     string
		wantCode string
		wantConf int
	}{
		{"tie goes to lower code", "bar and cafe", "722410", 65},
		{"whole words only", "barber shop", "441000", 65},
		{"phrase and words", "auto repair", "811111", 80},
		{"no match", "quiet meadow", "999999", 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cls := ClassifyKeywords(model.Record{model.FieldBusinessDescription: tt.desc})
			assert.Equal(t, tt.wantCode, cls.NAICSCode)
			assert.Equal(t, tt.wantConf, cls.Confidence)
		})
	}
}

func TestClassify_AITierAccepted(t *testing.T) {
	t.Parallel()

	m := &mockAI{}
	m.On("ClassifyIndustry", mock.Anything, mock.MatchedBy(func(b ai.Business) bool {
		return b.Name == "Acme Fiber"
	})).Return(&ai.Result{
		Success:     true,
		NAICSCode:   "NAICS 541511",
		Description: "something else",
		Confidence:  150,
		Reasoning:   "writes software",
		Model:       "llama3.1",
	}, nil)

	res := New(m).Classify(context.Background(), acmeFiber())

	assert.Equal(t, "541511", res.Classification.NAICSCode)
	assert.Equal(t, "Custom Computer Programming Services", res.Classification.Description)
	assert.Equal(t, 100, res.Classification.Confidence)
	assert.Equal(t, model.MethodAI, res.Classification.Method)
	assert.Contains(t, res.Classification.Reasoning, "llama3.1")
	assert.Equal(t, FallbackNone, res.Fallback)
	m.AssertExpectations(t)
}

func TestClassify_AITierUnparseableCode(t *testing.T) {
	t.Parallel()

	m := &mockAI{}
	m.On("ClassifyIndustry", mock.Anything, mock.Anything).
		Return(&ai.Result{Success: true, NAICSCode: "n/a", Confidence: 90}, nil)

	res := New(m).Classify(context.Background(), acmeFiber())
	assert.Equal(t, model.UnclassifiedCode, res.Classification.NAICSCode)
	assert.Equal(t, model.MethodAI, res.Classification.Method)
}

func TestClassify_AITierRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		result       *ai.Result
		err          error
		wantFallback string
	}{
		{"at threshold", &ai.Result{Success: true, NAICSCode: "541511", Confidence: 70}, nil, FallbackLowConfidence},
		{"not successful", &ai.Result{Success: false, NAICSCode: "541511", Confidence: 95}, nil, FallbackLowConfidence},
		{"provider error", nil, errors.New("connection refused"), FallbackAIError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := &mockAI{}
			m.On("ClassifyIndustry", mock.Anything, mock.Anything).Return(tt.result, tt.err)

			res := New(m).Classify(context.Background(), acmeFiber())
			assert.Equal(t, "517311", res.Classification.NAICSCode)
			assert.Equal(t, model.MethodKeyword, res.Classification.Method)
			assert.Equal(t, tt.wantFallback, res.Fallback)
		})
	}
}

func TestClassify_AISkippedForEmptyRecord(t *testing.T) {
	t.Parallel()

	m := &mockAI{}
	res := New(m).Classify(context.Background(), model.Record{model.FieldPhone: "5551234567"})
	assert.Equal(t, FallbackEmptyRecord, res.Fallback)
	m.AssertNotCalled(t, "ClassifyIndustry", mock.Anything, mock.Anything)
}

func TestClassify_CustomThreshold(t *testing.T) {
	t.Parallel()

	m := &mockAI{}
	m.On("ClassifyIndustry", mock.Anything, mock.Anything).
		Return(&ai.Result{Success: true, NAICSCode: "541511", Confidence: 60}, nil)

	res := New(m, WithAcceptThreshold(50)).Classify(context.Background(), acmeFiber())
	assert.Equal(t, model.MethodAI, res.Classification.Method)
}

func TestClassify_PanicBecomesErrorClassification(t *testing.T) {
	t.Parallel()

	c := New(panicAI{})
	res := c.Classify(context.Background(), acmeFiber())

	require.Error(t, res.Err)
	assert.Equal(t, model.UnclassifiedCode, res.Classification.NAICSCode)
	assert.Equal(t, 0, res.Classification.Confidence)
	assert.Equal(t, model.MethodError, res.Classification.Method)
	assert.Equal(t, int64(1), c.Stats().Snapshot().Failed)
}

func TestStats(t *testing.T) {
	t.Parallel()

	c := New(nil)
	c.Classify(context.Background(), acmeFiber())
	c.Classify(context.Background(), model.Record{})

	s := c.Stats().Snapshot()
	assert.Equal(t, int64(2), s.Total)
	assert.Equal(t, int64(2), s.Keyword)
	assert.Equal(t, int64(0), s.AI)
	assert.InDelta(t, 52.5, s.AverageConfidence, 0.001)
}

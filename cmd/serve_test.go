package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/collect"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/naics"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/store"
)

type staticSource struct {
	recs []model.Record
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) Collect(context.Context, model.SearchParams) ([]model.Record, error) {
	out := make([]model.Record, len(s.recs))
	for i, r := range s.recs {
		out[i] = r.Clone()
	}
	return out, nil
}

func newTestAPI(t *testing.T, withStore bool) (*apiServer, http.Handler) {
	t.Helper()
	api := &apiServer{ctx: context.Background(), acceptThreshold: 70}
	if withStore {
		st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
		require.NoError(t, err)
		require.NoError(t, st.Migrate(context.Background()))
		t.Cleanup(func() { _ = st.Close() })
		api.store = st

		outDir := t.TempDir()
		api.newPipeline = func(kind model.PipelineKind) (*pipeline.Pipeline, error) {
			opts := pipeline.Options{
				Sources: []collect.Source{staticSource{recs: []model.Record{
					{
						model.FieldBusinessName:        "Triangle Fiber Networks",
						model.FieldPhone:               "(919) 555-0301",
						model.FieldWebsite:             "trianglefiber.net",
						model.FieldBusinessDescription: "fiber internet provider",
					},
				}}},
				Store:     st,
				OutputDir: outDir,
				Threshold: 1,
			}
			if kind == model.PipelineISP {
				return pipeline.NewISP(opts), nil
			}
			return pipeline.New(opts), nil
		}
	}
	return api, buildRouter(api, []string{"*"})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	_, h := newTestAPI(t, false)

	rr := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_CORS(t *testing.T) {
	_, h := newTestAPI(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ClassifyKeyword(t *testing.T) {
	_, h := newTestAPI(t, false)

	rr := doJSON(t, h, http.MethodPost, "/v1/classify", map[string]string{
		model.FieldBusinessName:        "Triangle Software",
		model.FieldBusinessDescription: "custom software and web development",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var out classifyOutput
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, model.MethodKeyword, out.Method)
	assert.Equal(t, "541511", out.NAICSCode)
	assert.Equal(t, "ai_disabled", out.Fallback)
}

func TestRouter_ClassifyISP(t *testing.T) {
	_, h := newTestAPI(t, false)

	rr := doJSON(t, h, http.MethodPost, "/v1/classify?pipeline=isp", map[string]string{
		model.FieldBusinessName:        "Acme Fiber",
		model.FieldBusinessDescription: "fiber internet service",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var out classifyOutput
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "Fiber", out.ISPType)
}

func TestRouter_ClassifyBadBody(t *testing.T) {
	_, h := newTestAPI(t, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/classify", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/v1/classify", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "empty record")
}

func TestRouter_Validate(t *testing.T) {
	_, h := newTestAPI(t, false)

	rr := doJSON(t, h, http.MethodPost, "/v1/validate", map[string]string{
		model.FieldBusinessName: "Acme Fiber",
		model.FieldPhone:        "919-555-0101",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Contains(t, out, model.FieldDataQualityScore)
	assert.Contains(t, out, model.FieldValidationStatus)
}

func TestRouter_NAICS(t *testing.T) {
	_, h := newTestAPI(t, false)

	rr := doJSON(t, h, http.MethodGet, "/v1/naics/517311", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var info naics.CodeInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, naics.Info("517311"), info)

	rr = doJSON(t, h, http.MethodGet, "/v1/naics?q=broadband", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var matches []naics.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &matches))
	assert.Equal(t, naics.Search("broadband"), matches)

	rr = doJSON(t, h, http.MethodGet, "/v1/naics", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_RunsDisabledWithoutStore(t *testing.T) {
	_, h := newTestAPI(t, false)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/runs"},
		{http.MethodGet, "/v1/runs/abc"},
		{http.MethodPost, "/v1/runs"},
	} {
		rr := doJSON(t, h, tc.method, tc.path, map[string]string{"query": "isp", "location": "NC"})
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, tc.path)
	}
}

func TestRouter_StartRun(t *testing.T) {
	api, h := newTestAPI(t, true)

	rr := doJSON(t, h, http.MethodPost, "/v1/runs", map[string]any{
		"kind":     "isp",
		"query":    "fiber",
		"location": "Raleigh, NC",
	})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var run model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.PipelineISP, run.Kind)

	api.runs.Wait()

	rr = doJSON(t, h, http.MethodGet, "/v1/runs/"+run.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 1, got.Summary.Total)
	assert.FileExists(t, got.Summary.ExportedFile)

	rr = doJSON(t, h, http.MethodGet, "/v1/runs?kind=isp&limit=5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var runs []model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestRouter_StartRun_BadRequests(t *testing.T) {
	_, h := newTestAPI(t, true)

	rr := doJSON(t, h, http.MethodPost, "/v1/runs", map[string]any{"kind": "retail", "query": "x", "location": "y"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/v1/runs", map[string]any{"query": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "query and location are required")
}

func TestRouter_GetRun_NotFound(t *testing.T) {
	_, h := newTestAPI(t, true)

	rr := doJSON(t, h, http.MethodGet, "/v1/runs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_ListRuns_BadLimit(t *testing.T) {
	_, h := newTestAPI(t, true)

	rr := doJSON(t, h, http.MethodGet, "/v1/runs?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/v1/runs", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

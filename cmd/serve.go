package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/ai"
	"github.com/sells-group/leadgen-cli/internal/classify"
	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/naics"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/internal/validate"
)

const shutdownTimeout = 30 * time.Second

var servePort int

// apiServer serves the HTTP API. Pipeline runs started over HTTP outlive
// their request and are bound to ctx instead.
type apiServer struct {
	ctx             context.Context
	store           store.Store // nil disables the run endpoints
	ai              ai.Classifier
	acceptThreshold int
	newPipeline     func(kind model.PipelineKind) (*pipeline.Pipeline, error)

	runs sync.WaitGroup
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead generation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initEnv(ctx, config.ModeServe)
		if err != nil {
			return err
		}
		defer env.Close()

		api := &apiServer{
			ctx:             ctx,
			store:           env.Store,
			ai:              env.classifier(),
			acceptThreshold: int(cfg.LLM.AcceptThreshold),
			newPipeline: func(kind model.PipelineKind) (*pipeline.Pipeline, error) {
				return buildPipeline(kind, env, "")
			},
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(api, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		api.runs.Wait()
		logAIUsage(env)
		return nil
	},
}

func buildRouter(api *apiServer, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", api.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/classify", api.handleClassify)
		r.Post("/validate", api.handleValidate)
		r.Get("/naics", api.handleNAICSSearch)
		r.Get("/naics/{code}", api.handleNAICSInfo)
		r.Get("/runs", api.handleListRuns)
		r.Post("/runs", api.handleStartRun)
		r.Get("/runs/{id}", api.handleGetRun)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func isISP(r *http.Request) bool {
	return r.URL.Query().Get("pipeline") == string(model.PipelineISP)
}

func decodeRecord(r *http.Request) (model.Record, error) {
	var rec model.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, eris.New("empty record")
	}
	return rec, nil
}

func (api *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (api *apiServer) handleClassify(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record: "+err.Error())
		return
	}

	var res classify.Result
	if isISP(r) {
		res = classify.NewISPClassifier().Classify(rec)
	} else {
		c := classify.New(api.ai, classify.WithAcceptThreshold(api.acceptThreshold))
		res = c.Classify(r.Context(), rec)
	}
	writeJSON(w, http.StatusOK, classifyOutput{Classification: res.Classification, Fallback: res.Fallback})
}

func (api *apiServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record: "+err.Error())
		return
	}

	var out validate.Outcome
	if isISP(r) {
		out = validate.NewISPValidator().Validate(rec)
	} else {
		out = validate.NewValidator().Validate(rec)
	}
	if out.Err != nil {
		zap.L().Warn("serve: validation fell back to minimum scores", zap.Error(out.Err))
	}
	writeJSON(w, http.StatusOK, out.Record)
}

func (api *apiServer) handleNAICSInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, naics.Info(chi.URLParam(r, "code")))
}

func (api *apiServer) handleNAICSSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	matches := naics.Search(q)
	if matches == nil {
		matches = []naics.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// runRequest is the body of POST /v1/runs.
type runRequest struct {
	Kind model.PipelineKind `json:"kind"`
	model.SearchParams
}

func (api *apiServer) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if api.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Kind == "" {
		req.Kind = model.PipelineGeneral
	}
	if req.Kind != model.PipelineGeneral && req.Kind != model.PipelineISP {
		writeError(w, http.StatusBadRequest, "kind must be general or isp")
		return
	}
	if req.Query == "" || req.Location == "" {
		writeError(w, http.StatusBadRequest, "query and location are required")
		return
	}

	p, err := api.newPipeline(req.Kind)
	if err != nil {
		zap.L().Error("serve: build pipeline failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "pipeline unavailable")
		return
	}

	run, err := api.store.CreateRun(r.Context(), req.Kind, req.SearchParams)
	if err != nil {
		zap.L().Error("serve: create run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create run")
		return
	}

	params := req.SearchParams
	api.runs.Add(1)
	go func() {
		defer api.runs.Done()
		summary, err := p.Execute(api.ctx, run.ID, params)
		if err != nil {
			zap.L().Error("serve: run failed", zap.String("run_id", run.ID), zap.Error(err))
			return
		}
		zap.L().Info("serve: run complete",
			zap.String("run_id", run.ID),
			zap.Int("total", summary.Total),
			zap.String("file", summary.ExportedFile),
		)
	}()

	writeJSON(w, http.StatusAccepted, run)
}

func (api *apiServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if api.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Kind:   model.PipelineKind(q.Get("kind")),
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, key+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	runs, err := api.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("serve: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (api *apiServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if api.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	run, err := api.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		zap.L().Error("serve: get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

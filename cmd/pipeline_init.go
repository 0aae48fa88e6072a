package main

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/ai"
	"github.com/sells-group/leadgen-cli/internal/classify"
	"github.com/sells-group/leadgen-cli/internal/collect"
	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/fetcher"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/store"
	anthropicpkg "github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/notion"
	sfpkg "github.com/sells-group/leadgen-cli/pkg/salesforce"
)

// leadEnv holds the clients shared by the run, isp and serve commands.
type leadEnv struct {
	Store  store.Store // nil when store.driver is none
	AI     *ai.Chain   // nil when the AI tier is off
	Cost   *cost.Tracker
	HTTP   *fetcher.HTTPFetcher
	Opener *fetcher.Opener
	Sinks  []export.Sink
}

// Close releases resources held by the environment.
func (e *leadEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// classifier returns the AI capability, or nil so the keyword tier runs
// alone.
func (e *leadEnv) classifier() ai.Classifier {
	if e.AI == nil {
		return nil
	}
	return e.AI
}

// initEnv validates config for mode and builds every client. Callers should
// defer env.Close().
func initEnv(ctx context.Context, mode string) (*leadEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &leadEnv{Store: st}

	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			env.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	env.AI, env.Cost, err = initAI(ctx)
	if err != nil {
		env.Close()
		return nil, err
	}

	env.HTTP = newHTTPFetcher(cfg.Scrape)
	env.Opener = fetcher.NewOpener(env.HTTP, fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: cfg.Scrape.Timeout()}))

	env.Sinks, err = initSinks()
	if err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

// initStore opens the configured store. The none driver yields a nil store.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadgen.db"
		}
		s, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none":
		zap.L().Debug("store disabled, run history will not be recorded")
		return nil, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newHTTPFetcher(sc config.ScrapeConfig) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    sc.UserAgent,
		Timeout:      sc.Timeout(),
		RateLimit:    sc.RateLimit(),
		MaxBodyBytes: sc.MaxBodyBytes,
		Retry:        resilience.DefaultRetryConfig(),
	})
}

// initAI builds the provider chain in fallback order: local, OpenAI,
// Anthropic, Gemini. It returns a nil chain when the tier is off or no
// provider is enabled.
func initAI(ctx context.Context) (*ai.Chain, *cost.Tracker, error) {
	llm := cfg.LLM
	if !llm.Enabled {
		return nil, nil, nil
	}
	s := ai.Sampling{Temperature: llm.Temperature, MaxTokens: llm.MaxTokens}

	var providers []ai.Provider
	if llm.Local.Enabled {
		models := []string{llm.Local.PrimaryModel}
		if llm.Local.BackupModel != "" {
			models = append(models, llm.Local.BackupModel)
		}
		p, err := ai.NewOpenAIProvider(ai.OpenAIConfig{
			Name:    cost.ProviderLocal,
			BaseURL: ai.LocalBaseURL(llm.Local.BaseURL),
			Models:  models,
			Timeout: time.Duration(llm.Local.TimeoutSecs) * time.Second,
		}, s)
		if err != nil {
			return nil, nil, eris.Wrap(err, "init local llm")
		}
		providers = append(providers, p)
	}
	if llm.OpenAI.Enabled {
		p, err := ai.NewOpenAIProvider(ai.OpenAIConfig{
			Name:    cost.ProviderOpenAI,
			APIKey:  llm.OpenAI.Key,
			BaseURL: llm.OpenAI.BaseURL,
			Models:  []string{llm.OpenAI.Model},
		}, s)
		if err != nil {
			return nil, nil, eris.Wrap(err, "init openai")
		}
		providers = append(providers, p)
	}
	if llm.Anthropic.Enabled {
		var opts []option.RequestOption
		if llm.Anthropic.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(llm.Anthropic.BaseURL))
		}
		client := anthropicpkg.NewClient(llm.Anthropic.Key, opts...)
		providers = append(providers, ai.NewAnthropicProvider(client, llm.Anthropic.Model, s))
	}
	if llm.Gemini.Enabled {
		p, err := ai.NewGeminiProvider(ctx, llm.Gemini.Key, llm.Gemini.Model, s)
		if err != nil {
			return nil, nil, eris.Wrap(err, "init gemini")
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		zap.L().Warn("llm enabled but no provider configured, using keyword classification only")
		return nil, nil, nil
	}

	tracker := cost.NewTracker(cost.NewCalculator(pricingRates(cfg.Pricing)))
	chain := ai.NewChain(providers,
		ai.WithRetry(resilience.NewRetryConfig(llm.MaxRetries, llm.InitialBackoffMs, llm.MaxBackoffMs, llm.Multiplier)),
		ai.WithBreakers(resilience.DefaultCircuitBreakerConfig()),
		ai.WithCostTracker(tracker),
	)
	zap.L().Info("llm provider chain ready", zap.Strings("providers", chain.Providers()))
	return chain, tracker, nil
}

// pricingRates overlays configured prices on the built-in list prices.
func pricingRates(pc config.PricingConfig) cost.Rates {
	rates := cost.DefaultRates()
	rates.OpenAI = overlayPricing(rates.OpenAI, pc.OpenAI)
	rates.Anthropic = overlayPricing(rates.Anthropic, pc.Anthropic)
	rates.Gemini = overlayPricing(rates.Gemini, pc.Gemini)
	return rates
}

func overlayPricing(dst map[string]cost.ModelRate, src map[string]config.ModelPricing) map[string]cost.ModelRate {
	if dst == nil {
		dst = make(map[string]cost.ModelRate, len(src))
	}
	for model, p := range src {
		dst[model] = cost.ModelRate{Input: p.Input, Output: p.Output}
	}
	return dst
}

func initSinks() ([]export.Sink, error) {
	var sinks []export.Sink
	if cfg.Salesforce.Enabled {
		sf, err := sfpkg.Connect(sfpkg.Creds{
			LoginURL: cfg.Salesforce.LoginURL,
			Username: cfg.Salesforce.Username,
			ClientID: cfg.Salesforce.ClientID,
			KeyPath:  cfg.Salesforce.KeyPath,
		}, sfpkg.WithRateLimit(cfg.Salesforce.RateLimit))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, export.NewSalesforceSink(sf))
	}
	if cfg.Notion.Enabled {
		sinks = append(sinks, export.NewNotionSink(notion.NewClient(cfg.Notion.Token, notion.Options{
			RateLimit: cfg.Notion.RateLimit,
			Retries:   cfg.Notion.Retries,
		}), cfg.Notion.LeadDB))
	}
	return sinks, nil
}

// buildSources returns the sources for kind. The ISP pipeline filters the
// directory to internet providers and adds the provider catalog; a listing
// file is appended when given.
func buildSources(kind model.PipelineKind, env *leadEnv, listing string) ([]collect.Source, error) {
	sources := []collect.Source{
		collect.NewYellowPages(env.HTTP, collect.YellowPagesOptions{
			BaseURL: cfg.Scrape.DirectoryBaseURL,
			Limit:   cfg.Scrape.DirectoryLimit,
			ISPOnly: kind == model.PipelineISP,
		}),
	}
	if kind == model.PipelineISP {
		catalog, err := collect.CatalogSources()
		if err != nil {
			return nil, eris.Wrap(err, "load provider catalog")
		}
		for _, c := range catalog {
			sources = append(sources, c)
		}
	}
	if listing != "" {
		sources = append(sources, collect.NewFileSource(env.Opener, listing))
	}
	return sources, nil
}

// buildPipeline assembles a pipeline for one run. Each call gets a fresh
// classifier so the summary's classification stats cover that run only.
func buildPipeline(kind model.PipelineKind, env *leadEnv, listing string) (*pipeline.Pipeline, error) {
	sources, err := buildSources(kind, env, listing)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Sources:     sources,
		Sinks:       env.Sinks,
		Store:       env.Store,
		OutputDir:   cfg.Output.Dir,
		XLSX:        cfg.Output.XLSX,
		Threshold:   cfg.Pipeline.QualityThreshold,
		Concurrency: cfg.Pipeline.Concurrency,
		Deadline:    cfg.Pipeline.Deadline(),
		MaxRecords:  cfg.Pipeline.MaxRecords,
		MergeFuzzy:  cfg.Pipeline.MergeFuzzyDuplicates,
	}
	if cfg.Pipeline.EnrichContacts && env.HTTP != nil {
		opts.Enricher = collect.NewContactEnricher(env.HTTP)
	}

	if kind == model.PipelineISP {
		opts.Prefix = cfg.Output.ISPPrefix
		return pipeline.NewISP(opts), nil
	}
	opts.Prefix = cfg.Output.Prefix
	opts.Classifier = newClassifier(env)
	return pipeline.New(opts), nil
}

func newClassifier(env *leadEnv) *classify.Classifier {
	return classify.New(env.classifier(), classify.WithAcceptThreshold(int(cfg.LLM.AcceptThreshold)))
}

// logAIUsage reports provider usage and spend after a run.
func logAIUsage(env *leadEnv) {
	if env.AI == nil {
		return
	}
	s := env.AI.Stats()
	fields := []zap.Field{
		zap.Int64("requests", s.TotalRequests),
		zap.Int64("local_successes", s.LocalSuccesses),
		zap.Int64("cloud_fallbacks", s.CloudFallbacks),
		zap.Int64("errors", s.Errors),
		zap.Duration("avg_response_time", s.AverageResponseTime),
	}
	if env.Cost != nil {
		fields = append(fields, zap.Float64("cost_usd", env.Cost.Total()), zap.Any("cost_by_provider", env.Cost.ByProvider()))
	}
	zap.L().Info("llm usage", fields...)
}

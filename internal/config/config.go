package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ScrapeConfig configures directory scraping and website enrichment.
type ScrapeConfig struct {
	RateLimitSecs    float64 `yaml:"rate_limit_secs" mapstructure:"rate_limit_secs"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent        string  `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes     int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	DirectoryBaseURL string  `yaml:"directory_base_url" mapstructure:"directory_base_url"`
	DirectoryLimit   int     `yaml:"directory_limit" mapstructure:"directory_limit"`
}

// RateLimit is the minimum spacing between outbound requests.
func (s ScrapeConfig) RateLimit() time.Duration {
	return time.Duration(s.RateLimitSecs * float64(time.Second))
}

// Timeout is the per-request timeout.
func (s ScrapeConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// LLMConfig configures the AI classification tier and its provider chain.
type LLMConfig struct {
	Enabled          bool    `yaml:"enabled" mapstructure:"enabled"`
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	AcceptThreshold  float64 `yaml:"accept_threshold" mapstructure:"accept_threshold"`
	Temperature      float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens        int     `yaml:"max_tokens" mapstructure:"max_tokens"`

	Local     LocalLLMConfig `yaml:"local" mapstructure:"local"`
	OpenAI    CloudLLMConfig `yaml:"openai" mapstructure:"openai"`
	Anthropic CloudLLMConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    CloudLLMConfig `yaml:"gemini" mapstructure:"gemini"`
}

// LocalLLMConfig configures the local Ollama models.
type LocalLLMConfig struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	PrimaryModel string `yaml:"primary_model" mapstructure:"primary_model"`
	BackupModel  string `yaml:"backup_model" mapstructure:"backup_model"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CloudLLMConfig configures one hosted model provider.
type CloudLLMConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PipelineConfig configures run behavior.
type PipelineConfig struct {
	QualityThreshold     int  `yaml:"quality_threshold" mapstructure:"quality_threshold"`
	Concurrency          int  `yaml:"concurrency" mapstructure:"concurrency"`
	DeadlineSecs         int  `yaml:"deadline_secs" mapstructure:"deadline_secs"`
	MaxRecords           int  `yaml:"max_records" mapstructure:"max_records"`
	MergeFuzzyDuplicates bool `yaml:"merge_fuzzy_duplicates" mapstructure:"merge_fuzzy_duplicates"`
	EnrichContacts       bool `yaml:"enrich_contacts" mapstructure:"enrich_contacts"`
}

// Deadline is the collection deadline, or zero for none.
func (p PipelineConfig) Deadline() time.Duration {
	return time.Duration(p.DeadlineSecs) * time.Second
}

// OutputConfig configures export files.
type OutputConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Prefix    string `yaml:"prefix" mapstructure:"prefix"`
	ISPPrefix string `yaml:"isp_prefix" mapstructure:"isp_prefix"`
	XLSX      bool   `yaml:"xlsx" mapstructure:"xlsx"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	Username  string  `yaml:"username" mapstructure:"username"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// NotionConfig holds Notion API credentials and the lead database ID.
type NotionConfig struct {
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
	Token     string  `yaml:"token" mapstructure:"token"`
	LeadDB    string  `yaml:"lead_db" mapstructure:"lead_db"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second; 0 disables
	Retries   int     `yaml:"retries" mapstructure:"retries"`       // attempts on 429 responses
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// PricingConfig overrides per-model token pricing. Models not listed keep
// their built-in list price.
type PricingConfig struct {
	OpenAI    map[string]ModelPricing `yaml:"openai" mapstructure:"openai"`
	Anthropic map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    map[string]ModelPricing `yaml:"gemini" mapstructure:"gemini"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("scrape.rate_limit_secs", 2.0)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (compatible; leadgen-cli/1.0)")
	v.SetDefault("scrape.max_body_bytes", 512*1024)
	v.SetDefault("scrape.directory_base_url", "https://www.yellowpages.com/search")
	v.SetDefault("scrape.directory_limit", 20)
	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.initial_backoff_ms", 1000)
	v.SetDefault("llm.multiplier", 2.0)
	v.SetDefault("llm.max_backoff_ms", 30000)
	v.SetDefault("llm.accept_threshold", 70)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.local.enabled", true)
	v.SetDefault("llm.local.base_url", "http://localhost:11434")
	v.SetDefault("llm.local.primary_model", "llama3.1:8b-instruct-q4_K_M")
	v.SetDefault("llm.local.backup_model", "mistral:7b-instruct-q4_K_M")
	v.SetDefault("llm.local.timeout_secs", 60)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("pipeline.quality_threshold", 5)
	v.SetDefault("pipeline.concurrency", 8)
	v.SetDefault("pipeline.deadline_secs", 0)
	v.SetDefault("pipeline.max_records", 10000)
	v.SetDefault("pipeline.merge_fuzzy_duplicates", false)
	v.SetDefault("pipeline.enrich_contacts", true)
	v.SetDefault("output.dir", "data/outputs")
	v.SetDefault("output.prefix", "crm_leads")
	v.SetDefault("output.isp_prefix", "isp_leads")
	v.SetDefault("output.xlsx", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadgen.db")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 5.0)
	v.SetDefault("notion.rate_limit", 3.0)
	v.SetDefault("notion.retries", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validation modes, one per command family.
const (
	ModeRun      = "run"
	ModeClassify = "classify"
	ModeServe    = "serve"
)

// Validate checks the settings the given mode depends on and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string
	switch mode {
	case ModeClassify:
		problems = c.llmProblems()
	case ModeRun:
		problems = append(c.llmProblems(), c.runProblems()...)
	case ModeServe:
		problems = append(c.llmProblems(), c.runProblems()...)
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) llmProblems() []string {
	var p []string
	if c.LLM.AcceptThreshold < 0 || c.LLM.AcceptThreshold > 100 {
		p = append(p, "llm.accept_threshold must be between 0 and 100")
	}
	if !c.LLM.Enabled {
		return p
	}
	if c.LLM.MaxRetries < 1 {
		p = append(p, "llm.max_retries must be >= 1")
	}
	if c.LLM.Local.Enabled && c.LLM.Local.PrimaryModel == "" {
		p = append(p, "llm.local.primary_model is required")
	}
	for _, cloud := range []struct {
		name string
		cfg  CloudLLMConfig
	}{
		{"openai", c.LLM.OpenAI},
		{"anthropic", c.LLM.Anthropic},
		{"gemini", c.LLM.Gemini},
	} {
		if cloud.cfg.Enabled && cloud.cfg.Key == "" {
			p = append(p, "llm."+cloud.name+".key is required")
		}
	}
	return p
}

func (c *Config) runProblems() []string {
	var p []string
	if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > 64 {
		p = append(p, "pipeline.concurrency must be between 1 and 64")
	}
	if c.Pipeline.QualityThreshold < 0 || c.Pipeline.QualityThreshold > 10 {
		p = append(p, "pipeline.quality_threshold must be between 0 and 10")
	}
	if c.Pipeline.DeadlineSecs < 0 {
		p = append(p, "pipeline.deadline_secs must be >= 0")
	}
	if c.Scrape.RateLimitSecs < 0 {
		p = append(p, "scrape.rate_limit_secs must be >= 0")
	}
	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
		if c.Store.Driver != "none" && c.Store.DatabaseURL == "" {
			p = append(p, "store.database_url is required")
		}
	default:
		p = append(p, "store.driver must be sqlite, postgres or none")
	}
	if c.Salesforce.Enabled {
		if c.Salesforce.ClientID == "" {
			p = append(p, "salesforce.client_id is required")
		}
		if c.Salesforce.KeyPath == "" {
			p = append(p, "salesforce.key_path is required")
		}
	}
	if c.Notion.Enabled {
		if c.Notion.Token == "" {
			p = append(p, "notion.token is required")
		}
		if c.Notion.LeadDB == "" {
			p = append(p, "notion.lead_db is required")
		}
	}
	return p
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

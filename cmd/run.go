package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// searchFlags are shared by the run and isp commands.
type searchFlags struct {
	query      string
	location   string
	industry   string
	maxResults int
	sources    []string
	listing    string
	outputDir  string
	xlsx       bool
}

func (f *searchFlags) register(cmd *cobra.Command, query, location string) {
	cmd.Flags().StringVar(&f.query, "query", query, "business search query")
	cmd.Flags().StringVar(&f.location, "location", location, "search location, e.g. \"Raleigh, NC\"")
	cmd.Flags().StringVar(&f.industry, "industry", "", "industry hint passed to sources")
	cmd.Flags().IntVar(&f.maxResults, "max-results", 0, "per-source result cap (0 = source default)")
	cmd.Flags().StringSliceVar(&f.sources, "sources", nil, "only run these sources (default all)")
	cmd.Flags().StringVar(&f.listing, "listing", "", "CSV/TSV/XLSX listing to import (path, http(s) or ftp URL)")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "export directory (default from config)")
	cmd.Flags().BoolVar(&f.xlsx, "xlsx", false, "also write an XLSX workbook")
}

func (f *searchFlags) params() model.SearchParams {
	return model.SearchParams{
		Query:      f.query,
		Location:   f.location,
		Industry:   f.industry,
		MaxResults: f.maxResults,
		Sources:    f.sources,
	}
}

var runFlags searchFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate CRM leads for a query and location",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, model.PipelineGeneral, &runFlags)
	},
}

// runPipeline executes one run of kind and prints its summary as JSON.
func runPipeline(cmd *cobra.Command, kind model.PipelineKind, f *searchFlags) error {
	if f.query == "" || f.location == "" {
		return eris.New("--query and --location are required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if f.outputDir != "" {
		cfg.Output.Dir = f.outputDir
	}
	if f.xlsx {
		cfg.Output.XLSX = true
	}

	env, err := initEnv(ctx, config.ModeRun)
	if err != nil {
		return err
	}
	defer env.Close()

	p, err := buildPipeline(kind, env, f.listing)
	if err != nil {
		return err
	}

	summary, err := p.Run(ctx, f.params())
	if err != nil {
		return eris.Wrap(err, "pipeline run")
	}
	logAIUsage(env)

	zap.L().Info("lead generation complete",
		zap.String("kind", string(kind)),
		zap.String("file", summary.ExportedFile),
		zap.Int("total", summary.Total),
		zap.Int("high_quality", summary.HighQualityCount),
		zap.Bool("partial", summary.Partial),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func init() {
	runFlags.register(runCmd, "", "")
	rootCmd.AddCommand(runCmd)
}

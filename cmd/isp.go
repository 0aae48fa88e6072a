package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var ispFlags searchFlags

var ispCmd = &cobra.Command{
	Use:   "isp",
	Short: "Generate internet service provider leads",
	Long:  "Runs the ISP pipeline: directory listings filtered to internet providers plus the built-in provider catalog, fuzzy dedup, ISP typing and quality scoring.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, model.PipelineISP, &ispFlags)
	},
}

func init() {
	ispFlags.register(ispCmd, "internet service provider", "North Carolina")
	rootCmd.AddCommand(ispCmd)
}

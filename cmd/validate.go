package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/validate"
)

var validateFlags recordFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Clean and score one business record",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := validateFlags.record(cmd.InOrStdin())
		if err != nil {
			return err
		}

		var out validate.Outcome
		if validateFlags.isp {
			out = validate.NewISPValidator().Validate(rec)
		} else {
			out = validate.NewValidator().Validate(rec)
		}
		if out.Err != nil {
			zap.L().Warn("validation fell back to minimum scores", zap.Error(out.Err))
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out.Record)
	},
}

func init() {
	validateFlags.register(validateCmd)
	rootCmd.AddCommand(validateCmd)
}

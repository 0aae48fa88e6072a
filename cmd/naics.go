package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/naics"
)

var naicsCmd = &cobra.Command{
	Use:   "naics",
	Short: "Look up NAICS codes",
}

var naicsInfoCmd = &cobra.Command{
	Use:   "info <code>",
	Short: "Show the title and sector of a code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(naics.Info(args[0]))
	},
}

var naicsSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find codes by keyword or title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matches := naics.Search(args[0])
		if len(matches) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "No codes match %q.\n", args[0])
			return nil
		}
		formatMatches(cmd.OutOrStdout(), matches)
		return nil
	},
}

func formatMatches(w io.Writer, matches []naics.Match) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tRELEVANCE\tKEYWORD\tDESCRIPTION")
	for _, m := range matches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Code, m.Relevance, m.Keyword, m.Description)
	}
	_ = tw.Flush()
}

func init() {
	naicsCmd.AddCommand(naicsInfoCmd, naicsSearchCmd)
	rootCmd.AddCommand(naicsCmd)
}

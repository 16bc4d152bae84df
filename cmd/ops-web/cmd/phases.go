package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ops-web/ops-web-backend/internal/tutorial"
)

var phasesCmd = &cobra.Command{
	Use:   "phases",
	Short: "List the interactive tutorial phases in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tPHASE\tSCREEN\tWAITS FOR\tAUTO ADVANCE")
		for i, cfg := range tutorial.Registry() {
			waits := string(cfg.Expects)
			if cfg.AllowContinue {
				waits = string(tutorial.ActionContinue)
			}
			if waits == "" {
				waits = "-"
			}
			auto := "-"
			if cfg.AutoAdvance > 0 {
				auto = cfg.AutoAdvance.String()
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, cfg.Phase, cfg.Screen, waits, auto)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(phasesCmd)
}

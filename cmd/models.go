package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/KaramelBytes/callpulse/internal/ai"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show reasoning providers and known model context windows",
	Example: `  callpulse models
  callpulse config set provider gemini
  callpulse config set model gemini-2.0-flash`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Providers:")
		for _, p := range ai.Providers() {
			marker := " "
			if cfg != nil && cfg.Provider == p {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %s (default model %s)\n", marker, p, ai.DefaultModel(p))
		}
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tCONTEXT TOKENS")
		for _, mi := range ai.Catalog() {
			fmt.Fprintf(w, "%s\t%d\n", mi.Name, mi.ContextTokens)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

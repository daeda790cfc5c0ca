package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/KaramelBytes/callpulse/internal/journal"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent analysis runs from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil || cfg.JournalPath == "" {
			return fmt.Errorf("journal_path is not configured (callpulse config set journal_path <file>)")
		}
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()
		entries, err := j.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no runs)")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tFEATURE\tOUTCOME\tRECORDS\tDURATION\tORIGIN\tCAUSE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				e.StartedAt.Local().Format(time.DateTime), e.Feature, e.Kind, e.Records,
				e.Duration.Round(time.Millisecond), e.Origin, e.Cause)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
}

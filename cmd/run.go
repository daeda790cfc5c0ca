package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/callpulse/internal/feature"
	"github.com/KaramelBytes/callpulse/internal/utils"
	"github.com/spf13/cobra"
)

var (
	runManager string
	runTop     int
	runOutput  string
)

var runCmd = &cobra.Command{
	Use:   "run <feature>",
	Short: "Run one analysis and print the report",
	Example: `  callpulse run sentiment
  callpulse run sentiment --manager 42
  callpulse run top_sellers --top 3 --output top.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := feature.ParseID(args[0])
		if err != nil {
			return err
		}
		if runTop < 0 {
			return fmt.Errorf("--top must not be negative")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.registry.Run(ctx, id, feature.Params{ManagerID: runManager, TopN: runTop, Origin: "cli"})
		msg := res.Message()
		if runOutput != "" {
			if err := utils.SafeWriteFile(runOutput, []byte(msg+"\n")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Report written to %s\n", runOutput)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), msg)
		}
		switch res.Kind {
		case feature.KindFailure:
			return fmt.Errorf("analysis %s failed: %s", id, res.Cause)
		case feature.KindDataError:
			return fmt.Errorf("analysis %s: %s", id, res.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runManager, "manager", "", "restrict to one manager id (sentiment, manager_type)")
	runCmd.Flags().IntVar(&runTop, "top", 0, "number of top sellers (top_sellers, default 5)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the report to a file instead of stdout")
}

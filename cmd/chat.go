package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/callpulse/internal/menu"
	"github.com/KaramelBytes/callpulse/internal/transport/console"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive menu in the terminal",
	Long: `Starts the analysis menu in the terminal. Pick an option by its number or
type an intent such as "run:sentiment?manager=42". Type quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		m := menu.New(a.registry, a.log.Named("menu"))
		return console.New(m, cmd.InOrStdin(), cmd.OutOrStdout(), a.log.Named("console")).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

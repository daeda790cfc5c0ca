package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var featuresVerbose bool

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the available analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		out := cmd.OutOrStdout()
		for _, d := range a.registry.Definitions() {
			fmt.Fprintf(out, "- %s: %s\n", d.ID, d.Title)
			if featuresVerbose {
				fmt.Fprintf(out, "    %s\n", d.Description)
				fmt.Fprintf(out, "    sources: %s\n", strings.Join(d.Sources, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresCmd.Flags().BoolVarP(&featuresVerbose, "verbose", "v", false, "show descriptions and sources")
}

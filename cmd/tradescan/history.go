package main

import (
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the retained comparison runs as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := a.analyzer.History(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), h)
	},
}

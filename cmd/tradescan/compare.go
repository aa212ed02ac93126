package main

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/tradescan/internal/domain"
)

var compareCmd = &cobra.Command{
	Use:   "compare FILE...",
	Short: "Cross-check a document set and print the report as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		records := make([]*domain.DocumentRecord, 0, len(args))
		for _, path := range args {
			content, err := readInput(path)
			if err != nil {
				slog.Warn("failed to read document, treating as empty",
					"filename", path,
					"error", err,
				)
			}
			ex, err := a.analyzer.ExtractFile(ctx, filepath.Base(path), content)
			if err != nil {
				return err
			}
			records = append(records, ex.Record)
		}

		report, err := a.analyzer.Compare(ctx, records)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

var extractReview bool

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Extract fields from one document and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readInput(args[0])
		if err != nil {
			return err
		}

		a, err := buildApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ex, err := a.analyzer.ExtractFile(cmd.Context(), filepath.Base(args[0]), content)
		if err != nil {
			return err
		}

		out := map[string]any{
			"filename":           ex.Record.Filename,
			"overall_confidence": ex.Record.OverallConfidence,
			"summary":            ex.Record.Summary,
			"key_fields":         ex.Record.Fields,
			"items":              ex.Record.Items,
			"meta":               map[string]any{"pages": ex.Pages, "review_mode": extractReview},
		}
		if extractReview {
			lines := ex.Record.Lines
			if n := cfg.Extraction.MaxDebugLines; n > 0 && len(lines) > n {
				lines = lines[:n]
			}
			out["debug_lines"] = lines
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractReview, "review", false, "include classified debug lines")
}

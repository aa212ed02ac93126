package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/tradescan/internal/config"
	"github.com/opensource-finance/tradescan/internal/domain"
)

var (
	cfg        *domain.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "tradescan",
	Short:         "Trade document extraction and cross-checking",
	Long:          "Extracts fields from invoices, packing lists and bills of lading, cross-checks document sets and scores the trade risk.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		initLogger(cfg.Logging, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default ./tradescan.yaml)")
	rootCmd.Version = Version

	rootCmd.AddCommand(serveCmd, extractCmd, compareCmd, historyCmd)
}

// initLogger installs the default slog logger. Logs go to w so command
// output on stdout stays machine-readable.
func initLogger(lc domain.LoggingConfig, w io.Writer) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(lc.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

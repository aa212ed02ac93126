// TradeScan - Cross-document trade compliance checks.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"fmt"
	"os"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  TRADESCAN")
	fmt.Println("  Trade document extraction and cross-checking")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  History:  %s (last %d runs)\n", cfg.History.Store, cfg.History.Limit)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /extract           - Extract fields from one document")
	fmt.Println("    POST /compare           - Cross-check a document set")
	fmt.Println("    POST /compare/async     - Queue a comparison on the event bus")
	fmt.Println("    GET  /reports/{id}      - Get a stored comparison report")
	fmt.Println("    GET  /history           - Retained comparison runs")
	fmt.Println("    GET  /rules             - List risk triggers")
	fmt.Println("    POST /rules             - Load a risk trigger")
	fmt.Println("    GET  /health            - Health and capabilities")
	fmt.Println("    GET  /metrics           - Prometheus metrics")
	fmt.Println()
}

// Command genmock writes a fallback alert fixture for FALLBACK_FILE. By
// default it writes the built-in fallback set; with -api it snapshots the
// backend's current active alerts instead, so a deployment can fall back to
// data that matches its own region.
//
// Usage:
//
//	go run ./cmd/genmock -out data/fallback.json
//	go run ./cmd/genmock -api http://localhost:8000/api -out data/fallback.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/floodaura-sync/internal/adapter/api"
	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the fallback JSON fixture")
	apiURL := flag.String("api", "", "snapshot active alerts from this backend instead of the built-in set")
	timeout := flag.Duration("timeout", 10*time.Second, "backend request timeout")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	alerts := []domain.AlertRecord(domain.DefaultFallback())
	if *apiURL != "" {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		client := api.NewClient(*apiURL, *timeout, 0, logger, observability.NewMetricsForTesting())
		live, err := api.NewAlertsAPI(client).Active(context.Background())
		if err != nil {
			return fmt.Errorf("fetch active alerts: %w", err)
		}
		alerts = live
	}

	if err := writeFixture(*out, alerts); err != nil {
		return err
	}

	// Read it back the way the agent will.
	loaded, err := domain.LoadFallbackFile(*out)
	if err != nil {
		return fmt.Errorf("verify fixture: %w", err)
	}
	fmt.Printf("Wrote %d fallback alerts to %s\n", len(loaded), *out)
	return nil
}

func writeFixture(path string, alerts []domain.AlertRecord) error {
	alerts = slices.Clone(alerts)
	slices.SortFunc(alerts, func(a, b domain.AlertRecord) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	for i := range alerts {
		alerts[i].Risk = domain.NormalizeRisk(alerts[i].Risk)
	}

	data, err := json.MarshalIndent(alerts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

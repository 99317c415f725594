// Command probe calls every FloodAura backend endpoint once and reports
// which ones respond with a well-formed payload. It is meant to be run
// against a deployment before pointing the sync agent at it.
//
// Usage:
//
//	go run ./cmd/probe \
//	  -api http://localhost:8000/api \
//	  -chat http://localhost:8001/api
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/floodaura-sync/internal/adapter/api"
	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

// Probe coordinates: lower Manhattan, inside the backend's seeded data.
const (
	probeLat = 40.7128
	probeLng = -74.0060
)

// phase tracks pass/fail for a group of endpoint checks.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	apiURL   string
	chatURL  string
	timeout  time.Duration
	skipChat bool
}

func main() {
	var opts options
	flag.StringVar(&opts.apiURL, "api", "http://localhost:8000/api", "backend API base URL")
	flag.StringVar(&opts.chatURL, "chat", "http://localhost:8001/api", "assistant chat base URL")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	flag.BoolVar(&opts.skipChat, "skip-chat", false, "skip the assistant endpoints")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if code := run(context.Background(), os.Stdout, opts, logger, observability.NewMetrics()); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, out io.Writer, opts options, logger *slog.Logger, metrics *observability.Metrics) int {
	backend := api.NewClient(opts.apiURL, opts.timeout, 0, logger, metrics)
	chat := api.NewClient(opts.chatURL, opts.timeout, 0, logger, metrics)

	fmt.Fprintln(out, "=== FloodAura Endpoint Probe ===")
	fmt.Fprintf(out, "API:  %s\n", backend.BaseURL())
	if !opts.skipChat {
		fmt.Fprintf(out, "Chat: %s\n", chat.BaseURL())
	}
	fmt.Fprintln(out)

	phases := []*phase{
		probeAlerts(ctx, api.NewAlertsAPI(backend)),
		probeMap(ctx, api.NewMapAPI(backend)),
		probeAnalytics(ctx, api.NewAnalyticsAPI(backend)),
	}
	if !opts.skipChat {
		phases = append(phases, probeAssistant(ctx, api.NewAssistantAPI(chat, backend)))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-30s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll endpoints responded.")
		return 0
	}
	fmt.Fprintln(out, "\nProbe FAILED.")
	return 1
}

func probeAlerts(ctx context.Context, alerts *api.AlertsAPI) *phase {
	p := &phase{name: "Alerts"}

	active, err := alerts.Active(ctx)
	if err != nil {
		p.errorf("active: %v", err)
	}
	for i, a := range active {
		if a.Location == "" {
			p.errorf("active alert %d: missing location", i)
		}
		if a.RiskScore < 0 || a.RiskScore > 100 {
			p.errorf("active alert %d (%s): risk_score %g outside 0-100", i, a.Location, a.RiskScore)
		}
	}

	if _, err := alerts.ByLocation(ctx, probeLat, probeLng, 0); err != nil {
		p.errorf("by location: %v", err)
	}
	history, err := alerts.History(ctx, 0)
	if err != nil {
		p.errorf("history: %v", err)
	} else if history.TotalAlerts < len(history.Alerts) {
		p.errorf("history: total_alerts %d is less than the %d alerts returned", history.TotalAlerts, len(history.Alerts))
	}
	if _, err := alerts.Statistics(ctx); err != nil {
		p.errorf("statistics: %v", err)
	}
	return p
}

func probeMap(ctx context.Context, m *api.MapAPI) *phase {
	p := &phase{name: "Map"}

	if _, err := m.Search(ctx, "Manhattan"); err != nil {
		p.errorf("search: %v", err)
	}
	bounds := domain.Bounds{North: probeLat + 0.5, South: probeLat - 0.5, East: probeLng + 0.5, West: probeLng - 0.5}
	if _, err := m.RiskData(ctx, bounds); err != nil {
		p.errorf("risk data: %v", err)
	}
	if _, err := m.Locate(ctx, probeLat, probeLng); err != nil {
		p.errorf("locate: %v", err)
	}
	if _, err := m.LastUpdate(ctx); err != nil {
		p.errorf("last update: %v", err)
	}
	if _, err := m.Heatmap(ctx); err != nil {
		p.errorf("heatmap: %v", err)
	}
	if _, err := m.Forecast(ctx, probeLat, probeLng, 0); err != nil {
		p.errorf("forecast: %v", err)
	}
	return p
}

func probeAnalytics(ctx context.Context, a *api.AnalyticsAPI) *phase {
	p := &phase{name: "Analytics"}

	if _, err := a.Accuracy(ctx); err != nil {
		p.errorf("accuracy: %v", err)
	}
	if _, err := a.Coverage(ctx); err != nil {
		p.errorf("coverage: %v", err)
	}
	if _, err := a.Trends(ctx, 0); err != nil {
		p.errorf("trends: %v", err)
	}
	return p
}

func probeAssistant(ctx context.Context, a *api.AssistantAPI) *phase {
	p := &phase{name: "Assistant"}

	reply, err := a.Chat(ctx, "Is there flooding in Manhattan?")
	if err != nil {
		p.errorf("chat: %v", err)
	} else if reply == "" {
		p.errorf("chat: empty reply")
	}

	_, err = a.RouteVerdict(ctx, domain.RouteRequest{PointA: "Brooklyn", PointB: "Manhattan", VehicleType: "car"})
	if err != nil {
		p.errorf("route verdict: %v", err)
	}
	return p
}

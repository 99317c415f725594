package viewmodel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

const viewAlerts = "alerts"

// AlertsSnapshot is an immutable copy of the alerts page state.
type AlertsSnapshot struct {
	State       State                `json:"state"`
	Alerts      []domain.AlertRecord `json:"alerts"`
	Connected   bool                 `json:"connected"`
	LastUpdated time.Time            `json:"last_updated"`
}

// AlertsPage polls the active alert list. While the backend is unreachable
// it shows the fallback set and reports itself disconnected.
type AlertsPage struct {
	source   AlertSource
	fallback domain.FallbackProvider
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	guard guard
	mu    sync.RWMutex
	snap  AlertsSnapshot
}

// NewAlertsPage creates an idle alerts page. A non-positive interval means
// DefaultPollInterval.
func NewAlertsPage(source AlertSource, fallback domain.FallbackProvider, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *AlertsPage {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	o := buildOptions(opts)
	return &AlertsPage{
		source:   source,
		fallback: fallback,
		interval: interval,
		clock:    o.clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run fetches immediately and then once per interval until ctx is cancelled.
func (p *AlertsPage) Run(ctx context.Context) error {
	p.logger.Info("alerts page polling", "interval", p.interval)
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.guard.stop()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("alerts page stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.Refresh(ctx)
		}
	}
}

// Refresh fetches the alert list now, superseding any fetch in flight.
func (p *AlertsPage) Refresh(ctx context.Context) {
	p.mu.Lock()
	p.snap.State = StateFetching
	p.mu.Unlock()

	var degradedBy error
	applied := guarded(ctx, &p.guard, &p.mu, p.source.Active, func(alerts []domain.AlertRecord, err error) {
		p.snap.LastUpdated = p.clock.Now()
		if err != nil {
			degradedBy = err
			p.snap.State = StateDegraded
			p.snap.Alerts = p.fallback.Alerts()
			p.snap.Connected = false
			return
		}
		p.snap.State = StateReady
		p.snap.Alerts = cloneAlerts(alerts)
		p.snap.Connected = true
	})

	if !applied {
		p.mu.Lock()
		if p.snap.State == StateFetching && p.guard.idle() {
			p.snap.State = settledState(!p.snap.LastUpdated.IsZero(), p.snap.Connected)
		}
		p.mu.Unlock()
	}
	p.metrics.Refreshes.WithLabelValues(viewAlerts, "alerts", outcome(applied, degradedBy)).Inc()
	if applied {
		p.metrics.Connected.WithLabelValues(viewAlerts).Set(boolGauge(degradedBy == nil))
	}
	if degradedBy != nil {
		p.logger.Warn("alerts unavailable, showing fallback", "error", degradedBy)
	}
}

// Snapshot returns a copy of the current state.
func (p *AlertsPage) Snapshot() AlertsSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.snap
	s.Alerts = cloneAlerts(p.snap.Alerts)
	return s
}

// CheckReadiness returns nil once the page has shown an alert list, live or fallback.
func (p *AlertsPage) CheckReadiness(_ context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snap.LastUpdated.IsZero() {
		return errors.New("alerts page has not completed a refresh yet")
	}
	return nil
}

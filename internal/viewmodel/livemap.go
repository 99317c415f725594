package viewmodel

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

const viewMap = "map"

// User-facing messages for failed map interactions.
const (
	searchFailedMessage     = "Unable to search location. Please try again."
	locateFailedMessage     = "Unable to determine flood risk at your location."
	lastUpdateFailedMessage = "Unable to reach the server for its last update time."
)

// MapSnapshot is an immutable copy of the live map state. State, Alerts,
// Connected and LastUpdated always describe the same alert-list fetch; the
// other resources report failures through their own error fields.
type MapSnapshot struct {
	State             State                       `json:"state"`
	Alerts            []domain.AlertRecord        `json:"alerts"`
	Connected         bool                        `json:"connected"`
	LastUpdated       time.Time                   `json:"last_updated"`
	ServerUpdate      *domain.LastUpdate          `json:"server_update,omitempty"`
	ServerUpdateError string                      `json:"server_update_error,omitempty"`
	Search            *domain.LocationQueryResult `json:"search,omitempty"`
	SearchError       string                      `json:"search_error,omitempty"`
	Location          *domain.LocateResult        `json:"location,omitempty"`
	LocateError       string                      `json:"locate_error,omitempty"`
}

// LiveMap polls the alert list and the server's last-update timestamp, and
// holds the results of the user's location search and locate-me requests.
// Each resource has its own in-flight guard.
type LiveMap struct {
	alerts   AlertSource
	places   PlaceSource
	geocoder domain.Geocoder
	fallback domain.FallbackProvider
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	alertsGuard guard
	updateGuard guard
	searchGuard guard
	locateGuard guard

	mu    sync.RWMutex
	snap  MapSnapshot
	shown bool // an alert list, live or fallback, has been applied
}

// NewLiveMap creates an idle live map. A non-positive interval means
// DefaultPollInterval. WithGeocoder enables naming of located points.
func NewLiveMap(alerts AlertSource, places PlaceSource, fallback domain.FallbackProvider, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *LiveMap {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	o := buildOptions(opts)
	return &LiveMap{
		alerts:   alerts,
		places:   places,
		geocoder: o.geocoder,
		fallback: fallback,
		interval: interval,
		clock:    o.clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run refreshes immediately and then once per interval until ctx is cancelled.
func (m *LiveMap) Run(ctx context.Context) error {
	m.logger.Info("live map polling", "interval", m.interval)
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()
	defer func() {
		m.alertsGuard.stop()
		m.updateGuard.stop()
		m.searchGuard.stop()
		m.locateGuard.stop()
	}()

	m.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("live map stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			m.Refresh(ctx)
		}
	}
}

// Refresh fetches the alert list and the last-update timestamp.
func (m *LiveMap) Refresh(ctx context.Context) {
	m.RefreshAlerts(ctx)
	m.refreshLastUpdate(ctx)
}

// RefreshAlerts fetches the alert list now, superseding any fetch in flight.
func (m *LiveMap) RefreshAlerts(ctx context.Context) {
	m.mu.Lock()
	m.snap.State = StateFetching
	m.mu.Unlock()

	var degradedBy error
	applied := guarded(ctx, &m.alertsGuard, &m.mu, m.alerts.Active, func(alerts []domain.AlertRecord, err error) {
		m.snap.LastUpdated = m.clock.Now()
		m.shown = true
		if err != nil {
			degradedBy = err
			m.snap.State = StateDegraded
			m.snap.Alerts = m.fallback.Alerts()
			m.snap.Connected = false
			return
		}
		m.snap.State = StateReady
		m.snap.Alerts = cloneAlerts(alerts)
		m.snap.Connected = true
	})
	if !applied {
		m.mu.Lock()
		m.settleLocked()
		m.mu.Unlock()
	}
	m.record("alerts", applied, degradedBy)
	if applied {
		m.metrics.Connected.WithLabelValues(viewMap).Set(boolGauge(degradedBy == nil))
	}
	if degradedBy != nil {
		m.logger.Warn("map alerts unavailable, showing fallback", "error", degradedBy)
	}
}

// settleLocked leaves Fetching when the alert fetch was dropped and no
// newer one is in flight, so the state matches the list on display.
func (m *LiveMap) settleLocked() {
	if m.snap.State == StateFetching && m.alertsGuard.idle() {
		m.snap.State = settledState(m.shown, m.snap.Connected)
	}
}

func (m *LiveMap) refreshLastUpdate(ctx context.Context) {
	var failed error
	applied := guarded(ctx, &m.updateGuard, &m.mu, m.places.LastUpdate, func(lu domain.LastUpdate, err error) {
		if err != nil {
			failed = err
			m.snap.ServerUpdateError = lastUpdateFailedMessage
			return
		}
		m.snap.ServerUpdate = &lu
		m.snap.ServerUpdateError = ""
	})
	m.record("last_update", applied, failed)
	if failed != nil {
		m.logger.Warn("last update unavailable", "error", failed)
	}
}

// Search looks up a free-text location and, when that succeeds, refreshes
// the alerts. A blank query is ignored without any request. A failed search
// leaves the alert list and connectivity as they were.
func (m *LiveMap) Search(ctx context.Context, query string) {
	if strings.TrimSpace(query) == "" {
		return
	}

	var failed error
	applied := guarded(ctx, &m.searchGuard, &m.mu, func(ctx context.Context) (domain.LocationQueryResult, error) {
		return m.places.Search(ctx, query)
	}, func(res domain.LocationQueryResult, err error) {
		if err != nil {
			failed = err
			m.snap.SearchError = searchFailedMessage
			return
		}
		m.snap.Search = &res
		m.snap.SearchError = ""
	})
	m.record("search", applied, failed)
	if failed != nil {
		m.logger.Warn("location search failed", "query", query, "error", failed)
		return
	}
	if applied {
		m.RefreshAlerts(ctx)
	}
}

// Locate looks up the flood risk at the user's coordinate and, when that
// succeeds, refreshes the alerts. The point is named through the geocoder
// when one is configured.
func (m *LiveMap) Locate(ctx context.Context, lat, lng float64) {
	var failed error
	applied := guarded(ctx, &m.locateGuard, &m.mu, func(ctx context.Context) (domain.LocateResult, error) {
		res, err := m.places.Locate(ctx, lat, lng)
		if err != nil {
			return res, err
		}
		res.LocationName = m.placeName(ctx, lat, lng)
		return res, nil
	}, func(res domain.LocateResult, err error) {
		if err != nil {
			failed = err
			m.snap.LocateError = locateFailedMessage
			return
		}
		m.snap.Location = &res
		m.snap.LocateError = ""
	})
	m.record("locate", applied, failed)
	if failed != nil {
		m.logger.Warn("locate failed", "lat", lat, "lng", lng, "error", failed)
		return
	}
	if applied {
		m.RefreshAlerts(ctx)
	}
}

// placeName is best effort: a geocoding failure leaves the name empty.
func (m *LiveMap) placeName(ctx context.Context, lat, lng float64) string {
	if m.geocoder == nil {
		return ""
	}
	res, err := m.geocoder.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		m.logger.Debug("reverse geocode failed", "error", err)
		return ""
	}
	return res.FormattedAddress
}

func (m *LiveMap) record(resource string, applied bool, err error) {
	m.metrics.Refreshes.WithLabelValues(viewMap, resource, outcome(applied, err)).Inc()
}

// Snapshot returns a copy of the current state.
func (m *LiveMap) Snapshot() MapSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snap
	s.Alerts = cloneAlerts(m.snap.Alerts)
	if m.snap.ServerUpdate != nil {
		lu := *m.snap.ServerUpdate
		s.ServerUpdate = &lu
	}
	if m.snap.Search != nil {
		res := *m.snap.Search
		s.Search = &res
	}
	if m.snap.Location != nil {
		loc := *m.snap.Location
		loc.NearestEvents = slices.Clone(loc.NearestEvents)
		s.Location = &loc
	}
	return s
}

// CheckReadiness returns nil once the map has shown an alert list, live or fallback.
func (m *LiveMap) CheckReadiness(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.shown {
		return errors.New("live map has not completed a refresh yet")
	}
	return nil
}

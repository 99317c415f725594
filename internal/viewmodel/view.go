// Package viewmodel keeps the presentation state of the FloodAura pages in
// sync with the backend: polling, fallback data when the backend is
// unreachable, and last-issued-wins handling of overlapping requests.
package viewmodel

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
)

// DefaultPollInterval is how often views refetch absent user actions.
const DefaultPollInterval = 30 * time.Second

// State is the lifecycle state of a polled resource.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateReady
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AlertSource lists the active alerts. *api.AlertsAPI satisfies it.
type AlertSource interface {
	Active(ctx context.Context) ([]domain.AlertRecord, error)
}

// PlaceSource answers the map page's location queries. *api.MapAPI satisfies it.
type PlaceSource interface {
	Search(ctx context.Context, query string) (domain.LocationQueryResult, error)
	Locate(ctx context.Context, lat, lng float64) (domain.LocateResult, error)
	LastUpdate(ctx context.Context) (domain.LastUpdate, error)
}

// Subscriber registers alert subscriptions. *api.AlertsAPI satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, req domain.SubscriptionRequest) (domain.Document, error)
}

// Assistant answers chat messages. *api.AssistantAPI satisfies it.
type Assistant interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Option customizes a view-model.
type Option func(*options)

type options struct {
	clock    clockwork.Clock
	geocoder domain.Geocoder
}

// WithClock replaces the clock that drives polling, timestamps and notices.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithGeocoder enables free-text location resolution and reverse geocoding.
func WithGeocoder(g domain.Geocoder) Option {
	return func(o *options) { o.geocoder = g }
}

func buildOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func cloneAlerts(in []domain.AlertRecord) []domain.AlertRecord {
	if in == nil {
		return nil
	}
	out := make([]domain.AlertRecord, len(in))
	copy(out, in)
	return out
}

func outcome(applied bool, err error) string {
	switch {
	case !applied:
		return "superseded"
	case err != nil:
		return "degraded"
	default:
		return "ready"
	}
}

// settledState is the state matching what a view already shows once a
// fetch is dropped without being applied.
func settledState(shown, connected bool) State {
	switch {
	case !shown:
		return StateIdle
	case connected:
		return StateReady
	default:
		return StateDegraded
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

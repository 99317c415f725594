package viewmodel

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

var serverUpdate = domain.LastUpdate{Timestamp: "2026-10-15T08:00:00", LastUpdated: "08:00 AM", Status: "active"}

func newFakePlaces() *fakePlaces {
	return &fakePlaces{
		search:     script[domain.LocationQueryResult]{steps: []step[domain.LocationQueryResult]{ok(domain.LocationQueryResult{Found: true, LocationName: "Red Hook", Severity: "High", RiskScore: 77})}},
		locate:     script[domain.LocateResult]{steps: []step[domain.LocateResult]{ok(domain.LocateResult{Latitude: 40.7, Longitude: -74, Severity: "Low", RiskScore: 20, NearestEvents: []domain.NearbyEvent{{ID: 1, LocationName: "Tribeca"}}})}},
		lastUpdate: script[domain.LastUpdate]{steps: []step[domain.LastUpdate]{ok(serverUpdate)}},
	}
}

func newTestLiveMap(alerts AlertSource, places PlaceSource, opts ...Option) *LiveMap {
	opts = append([]Option{WithClock(clockwork.NewFakeClock())}, opts...)
	return NewLiveMap(alerts, places, domain.DefaultFallback(), 30*time.Second, discardLogger(), observability.NewMetricsForTesting(), opts...)
}

func TestLiveMap_RefreshLoadsAlertsAndLastUpdate(t *testing.T) {
	m := newTestLiveMap(newFakeAlerts(ok(backendAlerts)), newFakePlaces())

	m.Refresh(context.Background())

	snap := m.Snapshot()
	if diff := cmp.Diff(backendAlerts, snap.Alerts); diff != "" {
		t.Errorf("alerts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, StateReady, snap.State)
	assert.True(t, snap.Connected)
	require.NotNil(t, snap.ServerUpdate)
	assert.Equal(t, serverUpdate, *snap.ServerUpdate)
	require.NoError(t, m.CheckReadiness(context.Background()))
}

func TestLiveMap_AlertFailureShowsFallback(t *testing.T) {
	places := newFakePlaces()
	places.lastUpdate.steps = []step[domain.LastUpdate]{fail[domain.LastUpdate](errBackendDown)}
	m := newTestLiveMap(newFakeAlerts(fail[[]domain.AlertRecord](errBackendDown)), places)

	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, domain.DefaultFallback().Alerts(), snap.Alerts)
	assert.Equal(t, StateDegraded, snap.State)
	assert.False(t, snap.Connected)
	assert.Nil(t, snap.ServerUpdate)
}

func TestLiveMap_FallbackStaysDisconnectedWhenLastUpdateSucceeds(t *testing.T) {
	m := newTestLiveMap(newFakeAlerts(fail[[]domain.AlertRecord](errBackendDown)), newFakePlaces())

	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, domain.DefaultFallback().Alerts(), snap.Alerts)
	assert.Equal(t, StateDegraded, snap.State)
	assert.False(t, snap.Connected)
	require.NotNil(t, snap.ServerUpdate)
	assert.Empty(t, snap.ServerUpdateError)
}

func TestLiveMap_LiveListStaysConnectedWhenLastUpdateFails(t *testing.T) {
	clock := clockwork.NewFakeClock()
	places := newFakePlaces()
	places.lastUpdate.steps = []step[domain.LastUpdate]{fail[domain.LastUpdate](errBackendDown)}
	metrics := observability.NewMetricsForTesting()
	m := NewLiveMap(newFakeAlerts(ok(backendAlerts)), places, domain.DefaultFallback(), 30*time.Second, discardLogger(), metrics, WithClock(clock))

	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, backendAlerts, snap.Alerts)
	assert.Equal(t, StateReady, snap.State)
	assert.True(t, snap.Connected)
	assert.Equal(t, clock.Now(), snap.LastUpdated)
	assert.Nil(t, snap.ServerUpdate)
	assert.Equal(t, lastUpdateFailedMessage, snap.ServerUpdateError)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Connected.WithLabelValues(viewMap)), 0)
}

func TestLiveMap_LastUpdateRecoveryClearsError(t *testing.T) {
	places := newFakePlaces()
	places.lastUpdate.steps = []step[domain.LastUpdate]{fail[domain.LastUpdate](errBackendDown), ok(serverUpdate)}
	m := newTestLiveMap(newFakeAlerts(ok(backendAlerts)), places)

	m.Refresh(context.Background())
	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.Empty(t, snap.ServerUpdateError)
	require.NotNil(t, snap.ServerUpdate)
	assert.Equal(t, serverUpdate, *snap.ServerUpdate)
}

func TestLiveMap_AbandonedAlertRefreshSettlesState(t *testing.T) {
	entered := make(chan struct{})
	alerts := newFakeAlerts(ok(backendAlerts), untilCancelled[[]domain.AlertRecord](entered))
	m := newTestLiveMap(alerts, newFakePlaces())
	m.RefreshAlerts(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.RefreshAlerts(ctx)
	}()
	<-entered
	assert.Equal(t, StateFetching, m.Snapshot().State)
	cancel()
	<-done

	snap := m.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.True(t, snap.Connected)
	assert.Equal(t, backendAlerts, snap.Alerts)
}

func TestLiveMap_BlankSearchMakesNoCall(t *testing.T) {
	alerts := newFakeAlerts(ok(backendAlerts))
	places := newFakePlaces()
	m := newTestLiveMap(alerts, places)

	m.Search(context.Background(), "   ")

	assert.Zero(t, places.search.count())
	assert.Zero(t, alerts.count())
	assert.Nil(t, m.Snapshot().Search)
}

func TestLiveMap_SearchSuccessRefreshesAlerts(t *testing.T) {
	alerts := newFakeAlerts(ok(backendAlerts))
	places := newFakePlaces()
	m := newTestLiveMap(alerts, places)

	m.Search(context.Background(), "Red Hook")

	snap := m.Snapshot()
	require.NotNil(t, snap.Search)
	assert.Equal(t, "Red Hook", snap.Search.LocationName)
	assert.Empty(t, snap.SearchError)
	assert.Equal(t, []string{"Red Hook"}, places.queries)
	assert.Equal(t, 1, alerts.count())
	assert.Equal(t, backendAlerts, snap.Alerts)
}

func TestLiveMap_SearchFailureKeepsAlerts(t *testing.T) {
	alerts := newFakeAlerts(ok(backendAlerts))
	places := newFakePlaces()
	places.search.steps = []step[domain.LocationQueryResult]{fail[domain.LocationQueryResult](errBackendDown)}
	m := newTestLiveMap(alerts, places)

	m.RefreshAlerts(context.Background())
	m.Search(context.Background(), "Red Hook")

	snap := m.Snapshot()
	assert.Equal(t, searchFailedMessage, snap.SearchError)
	assert.True(t, snap.Connected, "connectivity follows the alert list only")
	assert.Equal(t, backendAlerts, snap.Alerts)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 1, alerts.count(), "failed search must not refetch alerts")
}

func TestLiveMap_LocateNamesPointWithGeocoder(t *testing.T) {
	alerts := newFakeAlerts(ok(backendAlerts))
	geo := &fakeGeocoder{reverse: domain.GeocodingResult{FormattedAddress: "Tribeca, Manhattan"}}
	m := newTestLiveMap(alerts, newFakePlaces(), WithGeocoder(geo))

	m.Locate(context.Background(), 40.7, -74)

	snap := m.Snapshot()
	require.NotNil(t, snap.Location)
	assert.Equal(t, "Tribeca, Manhattan", snap.Location.LocationName)
	assert.Equal(t, "Low Risk", snap.Location.Present().Label)
	assert.Empty(t, snap.LocateError)
	assert.Equal(t, 1, alerts.count())
}

func TestLiveMap_LocateWithoutGeocoder(t *testing.T) {
	m := newTestLiveMap(newFakeAlerts(ok(backendAlerts)), newFakePlaces())

	m.Locate(context.Background(), 40.7, -74)

	snap := m.Snapshot()
	require.NotNil(t, snap.Location)
	assert.Empty(t, snap.Location.LocationName)
}

func TestLiveMap_LocateGeocoderFailureIsNotFatal(t *testing.T) {
	geo := &fakeGeocoder{err: errBackendDown}
	m := newTestLiveMap(newFakeAlerts(ok(backendAlerts)), newFakePlaces(), WithGeocoder(geo))

	m.Locate(context.Background(), 40.7, -74)

	snap := m.Snapshot()
	require.NotNil(t, snap.Location)
	assert.Empty(t, snap.Location.LocationName)
	assert.Empty(t, snap.LocateError)
}

func TestLiveMap_LocateFailure(t *testing.T) {
	alerts := newFakeAlerts(ok(backendAlerts))
	places := newFakePlaces()
	places.locate.steps = []step[domain.LocateResult]{fail[domain.LocateResult](errBackendDown)}
	m := newTestLiveMap(alerts, places)

	m.Locate(context.Background(), 40.7, -74)

	snap := m.Snapshot()
	assert.Nil(t, snap.Location)
	assert.Equal(t, locateFailedMessage, snap.LocateError)
	assert.False(t, snap.Connected)
	assert.Zero(t, alerts.count())
}

func TestLiveMap_SupersededSearchIsDiscarded(t *testing.T) {
	g := newGate()
	places := newFakePlaces()
	places.search.steps = []step[domain.LocationQueryResult]{
		gated(g, domain.LocationQueryResult{Found: true, LocationName: "Old Query"}),
		ok(domain.LocationQueryResult{Found: true, LocationName: "New Query"}),
	}
	m := newTestLiveMap(newFakeAlerts(ok(backendAlerts)), places)

	first := make(chan struct{})
	go func() {
		defer close(first)
		m.Search(context.Background(), "old")
	}()
	<-g.entered

	m.Search(context.Background(), "new")
	close(g.release)
	<-first

	snap := m.Snapshot()
	require.NotNil(t, snap.Search)
	assert.Equal(t, "New Query", snap.Search.LocationName)
}

func TestLiveMap_SnapshotIsACopy(t *testing.T) {
	m := newTestLiveMap(newFakeAlerts(ok(backendAlerts)), newFakePlaces())
	m.Locate(context.Background(), 40.7, -74)

	snap := m.Snapshot()
	snap.Location.NearestEvents[0].LocationName = "mutated"
	snap.Alerts[0].Location = "mutated"

	again := m.Snapshot()
	assert.Equal(t, "Tribeca", again.Location.NearestEvents[0].LocationName)
	assert.Equal(t, "Red Hook", again.Alerts[0].Location)
}

func TestLiveMap_RunPollsAndStops(t *testing.T) {
	clock := clockwork.NewFakeClock()
	alerts := newFakeAlerts(ok(backendAlerts))
	places := newFakePlaces()
	m := NewLiveMap(alerts, places, domain.DefaultFallback(), 30*time.Second, discardLogger(), observability.NewMetricsForTesting(), WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return places.lastUpdate.count() == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, alerts.count())

	clock.Advance(30 * time.Second)
	require.Eventually(t, func() bool { return places.lastUpdate.count() == 2 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, alerts.count())

	cancel()
	require.NoError(t, <-done)
}

package viewmodel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
)

var errBackendDown = errors.New("backend down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// step is one scripted response of a fake source.
type step[T any] func(ctx context.Context) (T, error)

func ok[T any](v T) step[T] {
	return func(context.Context) (T, error) { return v, nil }
}

func fail[T any](err error) step[T] {
	return func(context.Context) (T, error) {
		var zero T
		return zero, err
	}
}

// script replays steps in order, repeating the last one once exhausted.
type script[T any] struct {
	mu    sync.Mutex
	calls int
	steps []step[T]
}

func (s *script[T]) next(ctx context.Context) (T, error) {
	s.mu.Lock()
	i := min(s.calls, len(s.steps)-1)
	s.calls++
	st := s.steps[i]
	s.mu.Unlock()
	return st(ctx)
}

func (s *script[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeAlerts struct {
	script[[]domain.AlertRecord]
}

func newFakeAlerts(steps ...step[[]domain.AlertRecord]) *fakeAlerts {
	return &fakeAlerts{script: script[[]domain.AlertRecord]{steps: steps}}
}

func (f *fakeAlerts) Active(ctx context.Context) ([]domain.AlertRecord, error) {
	return f.next(ctx)
}

type fakePlaces struct {
	search     script[domain.LocationQueryResult]
	locate     script[domain.LocateResult]
	lastUpdate script[domain.LastUpdate]
	queries    []string
}

func (f *fakePlaces) Search(ctx context.Context, query string) (domain.LocationQueryResult, error) {
	f.search.mu.Lock()
	f.queries = append(f.queries, query)
	f.search.mu.Unlock()
	return f.search.next(ctx)
}

func (f *fakePlaces) Locate(ctx context.Context, _, _ float64) (domain.LocateResult, error) {
	return f.locate.next(ctx)
}

func (f *fakePlaces) LastUpdate(ctx context.Context) (domain.LastUpdate, error) {
	return f.lastUpdate.next(ctx)
}

// gate holds a fetch until released, ignoring cancellation, so a superseded
// request can deliver its response late.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func gated[T any](g *gate, v T) step[T] {
	return func(context.Context) (T, error) {
		close(g.entered)
		<-g.release
		return v, nil
	}
}

// untilCancelled blocks until the request context ends, as an abandoned
// HTTP request does.
func untilCancelled[T any](entered chan struct{}) step[T] {
	return func(ctx context.Context) (T, error) {
		close(entered)
		<-ctx.Done()
		var zero T
		return zero, ctx.Err()
	}
}

type fakeGeocoder struct {
	forward domain.GeocodingResult
	reverse domain.GeocodingResult
	err     error

	mu      sync.Mutex
	queries []string
}

func (f *fakeGeocoder) ForwardGeocode(_ context.Context, query string) (domain.GeocodingResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return f.forward, f.err
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return f.reverse, f.err
}

type fakeSubscriber struct {
	mu   sync.Mutex
	reqs []domain.SubscriptionRequest
	err  error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, req domain.SubscriptionRequest) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return domain.Document{"status": "success"}, nil
}

func (f *fakeSubscriber) requests() []domain.SubscriptionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.SubscriptionRequest(nil), f.reqs...)
}

var backendAlerts = []domain.AlertRecord{
	{ID: 11, Location: "Red Hook", Risk: domain.RiskHigh, RiskScore: 81, Time: "1 hour"},
	{ID: 12, Location: "Astoria", Risk: domain.RiskLow, RiskScore: 15, Time: "5 hours"},
}

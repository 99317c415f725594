package viewmodel

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
)

// EventSink receives every real-time message. *kafka.Publisher satisfies it.
type EventSink interface {
	Publish(ctx context.Context, msg domain.Message) error
}

// Refresher is a view whose alert list can be refreshed on demand.
type Refresher interface {
	RefreshAlerts(ctx context.Context)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context)

// RefreshAlerts calls f.
func (f RefresherFunc) RefreshAlerts(ctx context.Context) { f(ctx) }

// Events routes real-time messages: each one is forwarded to the sink, and
// an alert message refreshes every registered view in the background.
// Overlapping refreshes of a view resolve last-issued-wins.
type Events struct {
	sink   EventSink
	views  []Refresher
	logger *slog.Logger

	mu   sync.RWMutex
	last domain.Message
	wg   sync.WaitGroup
}

// NewEvents creates a router. sink may be nil when forwarding is disabled.
func NewEvents(sink EventSink, logger *slog.Logger, views ...Refresher) *Events {
	return &Events{sink: sink, views: views, logger: logger}
}

// Handle processes one message. It is safe to use as a realtime.Handler.
func (e *Events) Handle(ctx context.Context, msg domain.Message) {
	e.mu.Lock()
	e.last = msg
	e.mu.Unlock()

	if e.sink != nil {
		if err := e.sink.Publish(ctx, msg); err != nil {
			e.logger.Warn("forward realtime message failed", "type", msg.Type(), "id", msg.ID(), "error", err)
		}
	}

	if msg.Type() != domain.MessageTypeAlert {
		return
	}
	e.logger.Info("alert message received", "id", msg.ID())
	for _, v := range e.views {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			v.RefreshAlerts(ctx)
		}()
	}
}

// Last returns a copy of the most recent message, or nil.
func (e *Events) Last() domain.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.last)
}

// Wait blocks until background refreshes have finished.
func (e *Events) Wait() {
	e.wg.Wait()
}

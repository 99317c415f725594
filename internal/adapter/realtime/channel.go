// Package realtime maintains the WebSocket connection to the backend's
// real-time endpoint and hands every inbound JSON object to a handler.
package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

// ErrAttemptsExhausted is returned by Run when the configured number of
// reconnection attempts has been used up.
var ErrAttemptsExhausted = errors.New("realtime: reconnection attempts exhausted")

const closeGrace = time.Second

// State is the connection lifecycle state of a Channel.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Handler receives each inbound message. It is called from a single
// goroutine, in arrival order, and must not block for long.
type Handler func(ctx context.Context, msg domain.Message)

// Dialer opens a WebSocket connection. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Config controls the channel endpoint and reconnection policy.
type Config struct {
	URL            string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int // 0 means retry forever
}

// Option customizes a Channel.
type Option func(*Channel)

// WithClock replaces the clock used for backoff sleeps.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Channel) { c.clock = clock }
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithStateListener registers fn to be called on every state transition.
func WithStateListener(fn func(State)) Option {
	return func(c *Channel) { c.onState = fn }
}

// Channel is a self-reconnecting real-time subscription.
type Channel struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	dialer  Dialer
	onState func(State)

	mu    sync.RWMutex
	state State
}

// New creates an idle channel. Call Run to connect.
func New(cfg Config, handler Handler, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Channel {
	c := &Channel{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
		dialer:  websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Run connects and keeps the channel connected until ctx is cancelled, in
// which case it returns nil, or until reconnection attempts are exhausted.
// The channel ends in StateClosed either way.
func (c *Channel) Run(ctx context.Context) error {
	bo := c.newBackOff()
	c.setState(StateConnecting)

	for {
		conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
		if err == nil {
			bo.Reset()
			c.setState(StateOpen)
			c.logger.Info("realtime connected", "url", c.cfg.URL)
			c.read(ctx, conn)
		} else if ctx.Err() == nil {
			c.logger.Warn("realtime dial failed", "url", c.cfg.URL, "error", err)
		}

		if ctx.Err() != nil {
			c.setState(StateClosed)
			return nil
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			c.setState(StateClosed)
			c.logger.Error("realtime giving up", "url", c.cfg.URL, "max_attempts", c.cfg.MaxAttempts)
			return ErrAttemptsExhausted
		}

		c.setState(StateReconnecting)
		c.metrics.RealtimeReconnects.Inc()
		c.logger.Info("realtime reconnecting", "backoff", wait)

		select {
		case <-ctx.Done():
			c.setState(StateClosed)
			return nil
		case <-c.clock.After(wait):
		}
	}
}

// read consumes frames until the connection fails or ctx is cancelled.
func (c *Channel) read(ctx context.Context, conn *websocket.Conn) {
	stop := context.AfterFunc(ctx, func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		_ = conn.Close()
	})
	defer stop()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("realtime connection lost", "error", err)
			}
			return
		}

		msg, err := domain.DecodeMessage(data)
		if err != nil {
			c.metrics.RealtimeDropped.Inc()
			c.logger.Warn("realtime frame dropped", "error", err, "bytes", len(data))
			continue
		}
		c.metrics.RealtimeMessages.Inc()
		c.handler(ctx, msg)
	}
}

func (c *Channel) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.InitialBackoff
	eb.MaxInterval = c.cfg.MaxBackoff
	eb.MaxElapsedTime = 0
	eb.Reset()
	if c.cfg.MaxAttempts > 0 {
		return backoff.WithMaxRetries(eb, uint64(c.cfg.MaxAttempts))
	}
	return eb
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()

	c.metrics.RealtimeState.Set(float64(s))
	c.logger.Debug("realtime state", "state", s.String())
	if c.onState != nil {
		c.onState(s)
	}
}

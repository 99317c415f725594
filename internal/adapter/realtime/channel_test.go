package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// wsServer upgrades every request and passes the connection and its
// 1-based sequence number to serve.
func wsServer(t *testing.T, serve func(conn *websocket.Conn, n int)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		serve(conn, int(count.Add(1)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// holdOpen blocks until the client goes away.
func holdOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type recorder struct {
	mu     sync.Mutex
	msgs   []domain.Message
	states []State
}

func (r *recorder) handle(_ context.Context, msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) state(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) messages() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.msgs...)
}

func (r *recorder) seen() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func testConfig(url string) Config {
	return Config{URL: url, InitialBackoff: 5 * time.Millisecond, MaxBackoff: 20 * time.Millisecond}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestChannel_DeliversObjectsInOrder(t *testing.T) {
	frames := []string{
		`{"type":"alert","id":5}`,
		`[1,2,3]`,
		`null`,
		`not json at all`,
		`"just a string"`,
		`{"type":"update","id":9007199254740993,"risk":"High"}`,
	}
	srv := wsServer(t, func(conn *websocket.Conn, _ int) {
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		holdOpen(conn)
	})

	rec := &recorder{}
	metrics := observability.NewMetricsForTesting()
	ch := New(testConfig(wsURL(srv)), rec.handle, discardLogger(), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.messages()) == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateOpen, ch.State())

	msgs := rec.messages()
	assert.Equal(t, domain.Message{"type": "alert", "id": json.Number("5")}, msgs[0])
	assert.Equal(t, domain.MessageTypeAlert, msgs[0].Type())
	assert.Equal(t, "5", msgs[0].ID())
	assert.Equal(t, "9007199254740993", msgs[1].ID())

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.RealtimeDropped) == 4
	}, 5*time.Second, 10*time.Millisecond)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RealtimeMessages), 0)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, StateClosed, ch.State())
	assert.Len(t, rec.messages(), 2)
}

func TestChannel_ReconnectsAfterServerDrop(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn, n int) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`{"seq":%d}`, n)))
		if n == 1 {
			return
		}
		holdOpen(conn)
	})

	rec := &recorder{}
	metrics := observability.NewMetricsForTesting()
	ch := New(testConfig(wsURL(srv)), rec.handle, discardLogger(), metrics, WithStateListener(rec.state))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.messages()) == 2 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return ch.State() == StateOpen }, 5*time.Second, 10*time.Millisecond)

	msgs := rec.messages()
	assert.InDelta(t, 1, msgs[0]["seq"], 0)
	assert.InDelta(t, 2, msgs[1]["seq"], 0)

	states := rec.seen()
	require.GreaterOrEqual(t, len(states), 4)
	assert.Equal(t, []State{StateConnecting, StateOpen, StateReconnecting, StateOpen}, states[:4])
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.RealtimeReconnects), 1.0)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, ch.State())
	assert.Equal(t, StateClosed, rec.seen()[len(rec.seen())-1])
}

func TestChannel_GivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	clock := clockwork.NewFakeClock()
	metrics := observability.NewMetricsForTesting()
	cfg := testConfig(url)
	cfg.MaxAttempts = 2

	rec := &recorder{}
	ch := New(cfg, rec.handle, discardLogger(), metrics, WithClock(clock), WithStateListener(rec.state))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx) }()

	for range cfg.MaxAttempts {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		assert.Equal(t, StateReconnecting, ch.State())
		clock.Advance(time.Minute)
	}

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrAttemptsExhausted)
	case <-ctx.Done():
		t.Fatal("Run did not give up")
	}
	assert.Equal(t, StateClosed, ch.State())
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RealtimeReconnects), 0)
	assert.InDelta(t, float64(StateClosed), testutil.ToFloat64(metrics.RealtimeState), 0)
	assert.Empty(t, rec.messages())
}

func TestChannel_CancelDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	clock := clockwork.NewFakeClock()
	ch := New(testConfig(url), (&recorder{}).handle, discardLogger(), observability.NewMetricsForTesting(), WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-waitCtx.Done():
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, StateClosed, ch.State())
}

type countingDialer struct {
	calls atomic.Int32
	inner Dialer
}

func (d *countingDialer) DialContext(ctx context.Context, urlStr string, h http.Header) (*websocket.Conn, *http.Response, error) {
	d.calls.Add(1)
	return d.inner.DialContext(ctx, urlStr, h)
}

func TestChannel_UsesInjectedDialer(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn, _ int) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"alert"}`))
		holdOpen(conn)
	})

	rec := &recorder{}
	dialer := &countingDialer{inner: websocket.DefaultDialer}
	ch := New(testConfig(wsURL(srv)), rec.handle, discardLogger(), observability.NewMetricsForTesting(), WithDialer(dialer))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.messages()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), dialer.calls.Load())

	cancel()
	require.NoError(t, <-done)
}

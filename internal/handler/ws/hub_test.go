package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FraudDash/internal/domain/models"
)

type staticView struct{ v models.DashboardView }

func (s staticView) View() models.DashboardView { return s.v }

func newTestHub(t *testing.T, cfg Config) (*Hub, string) {
	t.Helper()
	snap := staticView{v: models.DashboardView{Metrics: models.MetricsView{State: models.StateLoading}}}
	h := NewHub(snap, cfg, nil)

	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&m))
	return m.Type, m.Data
}

func TestHubSendsSnapshotThenBroadcasts(t *testing.T) {
	h, url := newTestHub(t, Config{})
	conn := dial(t, url)

	typ, data := readMessage(t, conn)
	assert.Equal(t, MessageSnapshot, typ)
	assert.Contains(t, string(data), `"metrics":{"state":"loading"}`)

	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)

	h.Broadcast(models.EventThreshold, models.ThresholdView{Threshold: 0.45, Sensitivity: "Balanced", State: models.StateLoading})
	typ, data = readMessage(t, conn)
	assert.Equal(t, models.EventThreshold, typ)
	assert.Contains(t, string(data), `"threshold":0.45`)
}

func TestHubFansOutToAllClients(t *testing.T) {
	h, url := newTestHub(t, Config{})
	a, b := dial(t, url), dial(t, url)
	readMessage(t, a)
	readMessage(t, b)
	require.Eventually(t, func() bool { return h.Len() == 2 }, time.Second, 5*time.Millisecond)

	h.Broadcast(models.EventMetrics, models.MetricsView{State: models.StateError, Error: "Failed to load metrics"})
	for _, c := range []*websocket.Conn{a, b} {
		typ, data := readMessage(t, c)
		assert.Equal(t, models.EventMetrics, typ)
		assert.Contains(t, string(data), "Failed to load metrics")
	}
}

func TestHubForgetsDisconnectedClients(t *testing.T) {
	h, url := newTestHub(t, Config{})
	conn := dial(t, url)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()
	require.Eventually(t, func() bool { return h.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	_, url := newTestHub(t, Config{AllowOrigins: []string{"http://dash.local"}})

	hdr := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, hdr)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	hdr.Set("Origin", "http://dash.local")
	conn, _, err := websocket.DefaultDialer.Dial(url, hdr)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestEncodeRequiresType(t *testing.T) {
	_, err := encode("", nil)
	assert.ErrorIs(t, err, errEmptyType)
}

// gatedView blocks its first render until released.
type gatedView struct {
	once     sync.Once
	rendered chan struct{}
	release  chan struct{}
}

func (g *gatedView) View() models.DashboardView {
	g.once.Do(func() {
		close(g.rendered)
		<-g.release
	})
	return models.DashboardView{Metrics: models.MetricsView{State: models.StateLoading}}
}

func TestHubBroadcastDuringConnectIsDelivered(t *testing.T) {
	gate := &gatedView{rendered: make(chan struct{}), release: make(chan struct{})}
	h := NewHub(gate, Config{}, nil)
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})

	connected := make(chan *websocket.Conn, 1)
	go func() {
		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
		if err != nil {
			close(connected)
			return
		}
		connected <- conn
	}()

	<-gate.rendered
	// The client is mid-registration; this frame must still reach it, after the snapshot.
	sent := make(chan struct{})
	go func() {
		defer close(sent)
		h.Broadcast(models.EventPrediction, models.PredictionSlotView{State: models.StateLoading})
	}()
	close(gate.release)
	<-sent

	conn, ok := <-connected
	require.True(t, ok, "dial failed")
	t.Cleanup(func() { _ = conn.Close() })

	typ, _ := readMessage(t, conn)
	assert.Equal(t, MessageSnapshot, typ)
	typ, _ = readMessage(t, conn)
	assert.Equal(t, models.EventPrediction, typ)
}

package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"quickbite/internal/contracts"
	"quickbite/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type stubIngestor struct {
	mu   sync.Mutex
	got  []contracts.DriverLocationUpdate
	seen chan struct{}
}

func newStubIngestor() *stubIngestor {
	return &stubIngestor{seen: make(chan struct{}, 16)}
}

func (s *stubIngestor) IngestDriverUpdate(_ context.Context, upd contracts.DriverLocationUpdate) {
	s.mu.Lock()
	s.got = append(s.got, upd)
	s.mu.Unlock()
	s.seen <- struct{}{}
}

func (s *stubIngestor) updates() []contracts.DriverLocationUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]contracts.DriverLocationUpdate, len(s.got))
	copy(out, s.got)
	return out
}

func dialGateway(t *testing.T, reg *Registry, ingest *stubIngestor) *websocket.Conn {
	t.Helper()

	log := logger.New("test")
	gw := NewGateway(log, reg, ingest, nil)

	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWS))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestGatewayRoutesDriverUpdates(t *testing.T) {
	reg := NewRegistry(logger.New("test"))
	ingest := newStubIngestor()
	conn := dialGateway(t, reg, ingest)

	err := conn.WriteJSON(map[string]any{
		"type": contracts.EventDriverUpdateLocation,
		"data": map[string]any{
			"driverId":  "D1",
			"latitude":  40.71,
			"longitude": -74.0,
			"orderId":   "O1",
		},
	})
	require.NoError(t, err)

	select {
	case <-ingest.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("ingestor never received the update")
	}

	got := ingest.updates()
	require.Len(t, got, 1)
	require.Equal(t, "D1", got[0].DriverID)
	require.NotNil(t, got[0].Latitude)
	require.Equal(t, 40.71, *got[0].Latitude)
	require.NotNil(t, got[0].Longitude)
	require.Equal(t, -74.0, *got[0].Longitude)
	require.Equal(t, "O1", got[0].OrderID)
}

func TestGatewaySubscribesToOrderAndMonitoringTopics(t *testing.T) {
	reg := NewRegistry(logger.New("test"))
	conn := dialGateway(t, reg, newStubIngestor())

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": contracts.EventOrderTrack,
		"data": "O42",
	}))
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": contracts.EventAdminMonitorDrivers,
	}))

	require.Eventually(t, func() bool {
		return reg.MemberCount(contracts.OrderTopic("O42")) == 1 &&
			reg.MemberCount(contracts.TopicAdminMonitoring) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGatewayIgnoresMalformedAndUnknownFrames(t *testing.T) {
	reg := NewRegistry(logger.New("test"))
	ingest := newStubIngestor()
	conn := dialGateway(t, reg, ingest)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "order:unknown", "data": "x"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": contracts.EventOrderTrack, "data": ""}))

	// a valid frame after the garbage proves the loop survived it
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": contracts.EventDriverUpdateLocation,
		"data": map[string]any{"driverId": "D9", "latitude": 1.0, "longitude": 2.0},
	}))

	select {
	case <-ingest.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not survive malformed frames")
	}

	require.Equal(t, 0, reg.MemberCount(contracts.OrderTopic("")))
}

func TestGatewayCleansUpOnDisconnect(t *testing.T) {
	reg := NewRegistry(logger.New("test"))
	conn := dialGateway(t, reg, newStubIngestor())

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": contracts.EventOrderTrack,
		"data": "O7",
	}))
	require.Eventually(t, func() bool {
		return reg.MemberCount(contracts.OrderTopic("O7")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return reg.MemberCount(contracts.OrderTopic("O7")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGatewayOriginAllowList(t *testing.T) {
	log := logger.New("test")
	gw := NewGateway(log, NewRegistry(log), newStubIngestor(), []string{"https://app.example.com"})

	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWS))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"https://evil.example.com"}})
	require.Error(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"https://app.example.com"}})
	require.NoError(t, err)
	_ = conn.Close()
}

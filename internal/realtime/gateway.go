package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"quickbite/internal/contracts"
	"quickbite/internal/logger"
	"quickbite/internal/ports"

	"github.com/gorilla/websocket"
)

const (
	pongWait    = 60 * time.Second
	pingPeriod  = 30 * time.Second
	ctrlTimeout = 5 * time.Second
)

// Gateway accepts anonymous WebSocket sessions, routes their events, and
// cleans up registry membership deterministically on disconnect.
type Gateway struct {
	logger   *logger.Logger
	registry *Registry
	ingest   ports.UpdateIngestor
	upgrader websocket.Upgrader
}

// NewGateway builds a gateway. allowedOrigins is the cross-origin allow-list
// for session establishment; empty means allow all.
func NewGateway(logger *logger.Logger, registry *Registry, ingest ports.UpdateIngestor, allowedOrigins []string) *Gateway {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &Gateway{
		logger:   logger,
		registry: registry,
		ingest:   ingest,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// HandleWS upgrades the request and runs the session's read loop until the
// client disconnects.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error(r.Context(), "ws_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}

	sess := NewSession(conn)

	activeSessions.Inc()
	g.logger.Info(r.Context(), "ws_connected", "Client connected", map[string]any{"session_id": sess.ID})

	// Teardown order (LIFO on return): drop topic membership first so
	// publishes racing the disconnect become no-ops, then close the socket.
	defer func() {
		g.registry.RemoveSession(sess)
		_ = conn.Close()
		activeSessions.Dec()
		g.logger.Info(r.Context(), "ws_disconnected", "Client disconnected", map[string]any{"session_id": sess.ID})
	}()

	conn.SetReadLimit(1 << 20) // 1 MiB

	// every received pong extends the read deadline
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// ping loop; a failed ping closes the socket to unblock the reader
	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stopPing:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout)); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	g.readLoop(r.Context(), conn, sess)
}

// readLoop consumes inbound frames one at a time, which also serializes a
// driver's own updates in receipt order.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, sess *Session) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				g.logger.Error(ctx, "ws_unexpected_close", "Connection closed unexpectedly", err, map[string]any{"session_id": sess.ID})
			}
			return
		}

		var evt contracts.ClientEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			// malformed frames are dropped without a reply, same as
			// malformed updates
			g.logger.Debug(ctx, "ws_bad_frame", "Dropping undecodable frame", map[string]any{"session_id": sess.ID})
			continue
		}

		switch evt.Type {
		case contracts.EventDriverUpdateLocation:
			g.handleUpdateLocation(ctx, sess, evt.Data)

		case contracts.EventOrderTrack:
			g.handleOrderTrack(ctx, sess, evt.Data)

		case contracts.EventAdminMonitorDrivers:
			g.registry.Join(contracts.TopicAdminMonitoring, sess)
			g.logger.Info(ctx, "admin_monitoring_joined", "Session joined fleet monitoring", map[string]any{"session_id": sess.ID})

		default:
			g.logger.Debug(ctx, "ws_unknown_event", "Ignoring unknown event type", map[string]any{
				"session_id": sess.ID,
				"type":       evt.Type,
			})
		}
	}
}

func (g *Gateway) handleUpdateLocation(ctx context.Context, sess *Session, data json.RawMessage) {
	var upd contracts.DriverLocationUpdate
	if err := json.Unmarshal(data, &upd); err != nil {
		g.logger.Debug(ctx, "location_update_undecodable", "Dropping undecodable location update", map[string]any{"session_id": sess.ID})
		return
	}

	// validation and the silent-drop contract live in the ingestion handler
	g.ingest.IngestDriverUpdate(ctx, upd)
}

func (g *Gateway) handleOrderTrack(ctx context.Context, sess *Session, data json.RawMessage) {
	var orderID string
	if err := json.Unmarshal(data, &orderID); err != nil || orderID == "" {
		g.logger.Debug(ctx, "order_track_invalid", "Dropping order:track without an order id", map[string]any{"session_id": sess.ID})
		return
	}

	g.registry.Join(contracts.OrderTopic(orderID), sess)
	g.logger.Info(g.logger.WithOrderID(ctx, orderID), "order_tracking_joined", "Session joined order tracking", map[string]any{
		"session_id": sess.ID,
	})
}

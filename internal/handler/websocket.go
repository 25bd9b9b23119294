package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/listview"
	"github.com/vyrodovalexey/venuelist/internal/model"
	"github.com/vyrodovalexey/venuelist/internal/session"
)

// WebSocket configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	replyBuffer    = 16
)

var wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "venuelist_ws_connections_active",
	Help: "Number of open view stream connections",
})

// WebSocketHandler streams view states to clients and applies the
// navigation intents they send, one at a time and in arrival order.
type WebSocketHandler struct {
	registry *session.Registry
	upgrader websocket.Upgrader
	logger   *zap.Logger
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*wsClient
}

// wsClient is the shutdown handle of one connection. done is closed when
// its writePump has returned.
type wsClient struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// streamConn holds the per-connection state shared by the pumps.
type streamConn struct {
	conn    *websocket.Conn
	viewer  string
	viewID  string
	updates <-chan model.ViewState
	replies chan model.WebSocketMessage
	done    chan struct{}
}

// NewWebSocketHandler creates a new WebSocketHandler instance.
func NewWebSocketHandler(registry *session.Registry, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]*wsClient),
	}
}

// RegisterRoutes registers the WebSocket routes with the router.
func (h *WebSocketHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)
}

// HandleWebSocket attaches a connection to a view. With ?view={id} the
// connection follows an existing view of the viewer; without it a view is
// opened for the connection (page size from ?per_page) and closed with it.
//
//nolint:contextcheck // WebSocket connections outlive the HTTP request context
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	viewer := viewerID(r)
	viewID := r.URL.Query().Get("view")
	owned := viewID == ""

	if owned {
		perPage, err := queryInt(r, "per_page", 0)
		req := model.ViewRequest{ItemsPerPage: perPage}
		if err != nil || req.Validate() != nil {
			http.Error(w, "invalid per_page", http.StatusBadRequest)
			return
		}

		state, err := h.registry.Open(r.Context(), viewer, perPage)
		if err != nil {
			h.logger.Error("failed to open view", zap.Error(err))
			http.Error(w, "failed to open view", http.StatusInternalServerError)
			return
		}
		viewID = state.ViewID
	}

	updates, stop, err := h.registry.Watch(viewer, viewID)
	if err != nil {
		if errors.Is(err, session.ErrViewNotFound) {
			http.Error(w, "view not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to watch view", http.StatusInternalServerError)
		return
	}

	release := func() {
		stop()
		if owned {
			_ = h.registry.Close(viewer, viewID)
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		release()
		return
	}

	// The request context ends when this handler returns.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	h.mu.Lock()
	h.clients[conn] = &wsClient{cancel: cancel, done: done}
	h.mu.Unlock()
	wsConnectionsActive.Inc()

	h.logger.Info("websocket client connected",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.String("view_id", viewID),
	)

	sc := &streamConn{
		conn:    conn,
		viewer:  viewer,
		viewID:  viewID,
		updates: updates,
		replies: make(chan model.WebSocketMessage, replyBuffer),
		done:    done,
	}

	if state, err := h.registry.State(viewer, viewID); err == nil {
		if err := h.send(conn, model.NewPageMessage(state, "")); err != nil {
			h.logger.Debug("failed to send initial page", zap.Error(err))
		}
	}

	go h.writePump(ctx, sc)
	go h.readPump(ctx, sc, func() {
		cancel()
		release()
	})
}

// readPump applies the intents received on the connection in order.
func (h *WebSocketHandler) readPump(ctx context.Context, sc *streamConn, done func()) {
	conn := sc.conn
	defer func() {
		done()
		h.removeClient(conn)
		if err := conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("failed to set read deadline", zap.Error(err))
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("websocket read error", zap.Error(err))
				}
				return
			}

			reply, ok := h.handleIntent(sc, message)
			if !ok {
				continue
			}

			select {
			case sc.replies <- reply:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleIntent applies one client message. Applied moves reach the client
// through the view's update stream, so only the other outcomes, errors and
// pongs produce a direct reply.
func (h *WebSocketHandler) handleIntent(sc *streamConn, message []byte) (model.WebSocketMessage, bool) {
	var intent model.ViewIntent
	if err := json.Unmarshal(message, &intent); err != nil {
		h.logger.Debug("invalid intent", zap.ByteString("message", message), zap.Error(err))
		return model.NewErrorMessage("invalid message"), true
	}

	if intent.Type == model.IntentPing {
		return model.NewPongMessage(), true
	}

	state, outcome, err := h.registry.Navigate(sc.viewer, sc.viewID, intent)
	if err != nil {
		return model.NewErrorMessage(err.Error()), true
	}

	h.logger.Debug("intent applied",
		zap.String("view_id", sc.viewID),
		zap.String("intent", intent.Type),
		zap.String("outcome", string(outcome)),
		zap.Int("page", state.CurrentPage),
	)

	if outcome == listview.OutcomeApplied {
		return model.WebSocketMessage{}, false
	}
	return model.NewPageMessage(state, string(outcome)), true
}

// writePump is the only writer of the connection.
func (h *WebSocketHandler) writePump(ctx context.Context, sc *streamConn) {
	defer close(sc.done)

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.sendCloseMessage(sc.conn, "server shutting down")
			return
		case state, ok := <-sc.updates:
			if !ok {
				h.sendCloseMessage(sc.conn, "view closed")
				return
			}
			if err := h.send(sc.conn, model.NewPageMessage(state, string(listview.OutcomeApplied))); err != nil {
				h.logger.Debug("failed to send page", zap.Error(err))
				return
			}
		case msg := <-sc.replies:
			if err := h.send(sc.conn, msg); err != nil {
				h.logger.Debug("failed to send reply", zap.Error(err))
				return
			}
		case <-pingTicker.C:
			if err := h.sendPing(sc.conn); err != nil {
				h.logger.Debug("failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// send writes a JSON message to the connection.
func (h *WebSocketHandler) send(conn *websocket.Conn, msg model.WebSocketMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// sendPing sends a ping message to the connection.
func (h *WebSocketHandler) sendPing(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// sendCloseMessage sends a close message to the connection.
func (h *WebSocketHandler) sendCloseMessage(conn *websocket.Conn, reason string) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		h.logger.Debug("failed to set write deadline for close", zap.Error(err))
		return
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		h.logger.Debug("failed to send close message", zap.Error(err))
	}
}

// removeClient removes a client from the clients map.
func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[conn]; exists {
		client.cancel()
		delete(h.clients, conn)
		wsConnectionsActive.Dec()
		h.logger.Info("websocket client disconnected", zap.String("remote_addr", conn.RemoteAddr().String()))
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAllConnections sends a close message to every client and closes the
// connections. It returns once each writePump has finished or writeWait has
// passed.
func (h *WebSocketHandler) CloseAllConnections() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	// Cancelling makes each writePump send its close message.
	for _, client := range clients {
		client.cancel()
	}

	deadline := time.NewTimer(writeWait)
	defer deadline.Stop()
wait:
	for _, client := range clients {
		select {
		case <-client.done:
		case <-deadline.C:
			h.logger.Warn("websocket writers did not finish before close")
			break wait
		}
	}

	h.mu.Lock()
	for conn := range h.clients {
		if err := conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
		delete(h.clients, conn)
		wsConnectionsActive.Dec()
	}
	h.mu.Unlock()

	h.logger.Info("all websocket connections closed")
}

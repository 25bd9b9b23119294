package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/auth"
	"github.com/vyrodovalexey/venuelist/internal/listview"
	"github.com/vyrodovalexey/venuelist/internal/model"
)

const viewerHeader = "X-Test-Viewer"

// newWSServer serves the WebSocket handler of env. The viewer is taken from
// the X-Test-Viewer header.
func newWSServer(t *testing.T, env *testEnv) (*httptest.Server, *WebSocketHandler) {
	t.Helper()

	handler := NewWebSocketHandler(env.registry, zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &auth.AuthInfo{Method: auth.AuthMethodNone}
		if viewer := r.Header.Get(viewerHeader); viewer != "" {
			info = &auth.AuthInfo{Method: auth.AuthMethodAPIKey, Subject: viewer}
		}
		handler.HandleWebSocket(w, r.WithContext(auth.WithAuthInfo(r.Context(), info)))
	}))
	t.Cleanup(server.Close)

	return server, handler
}

func dial(t *testing.T, server *httptest.Server, query, viewer string) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	if viewer != "" {
		header.Set(viewerHeader, viewer)
	}

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + query
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) model.WebSocketMessage {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}

	var msg model.WebSocketMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	return msg
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error(msg)
}

func TestNewWebSocketHandler(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 0)

	// Act
	handler := NewWebSocketHandler(env.registry, zap.NewNop())

	// Assert
	if handler == nil {
		t.Fatal("NewWebSocketHandler() returned nil")
	}
	if handler.registry != env.registry {
		t.Error("registry not set correctly")
	}
	if handler.clients == nil {
		t.Error("clients map should be initialized")
	}
}

func TestWebSocketHandler_RegisterRoutes(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 1)
	handler := NewWebSocketHandler(env.registry, zap.NewNop())
	router := mux.NewRouter()

	// Act
	handler.RegisterRoutes(router)

	// Assert
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code == http.StatusNotFound {
		t.Error("Route /ws not found")
	}
	if env.registry.Len() != 0 {
		t.Errorf("open views after failed upgrade = %d, want 0", env.registry.Len())
	}
}

func TestWebSocketHandler_InitialPage(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 25)
	server, handler := newWSServer(t, env)

	// Act
	conn := dial(t, server, "?per_page=5", "alice")
	msg := readMessage(t, conn)

	// Assert
	if msg.Type != model.WSMessageTypePage {
		t.Fatalf("Type = %s, want %s", msg.Type, model.WSMessageTypePage)
	}
	if msg.View == nil || msg.View.ViewID == "" {
		t.Fatal("initial message carries no view")
	}
	if msg.View.CurrentPage != 1 || msg.View.ItemsPerPage != 5 || len(msg.View.Items) != 5 {
		t.Errorf("view = %+v, want first page of 5", msg.View.Metadata)
	}
	if env.registry.Len() != 1 {
		t.Errorf("open views = %d, want 1", env.registry.Len())
	}
	eventually(t, func() bool { return handler.ClientCount() == 1 }, "client not registered")
}

func TestWebSocketHandler_Intents(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 25)
	server, _ := newWSServer(t, env)
	conn := dial(t, server, "", "alice")
	readMessage(t, conn)

	steps := []struct {
		name        string
		send        string
		wantType    string
		wantOutcome listview.Outcome
		wantPage    int
	}{
		{"next", `{"type":"next"}`, model.WSMessageTypePage, listview.OutcomeApplied, 2},
		{"prev", `{"type":"prev"}`, model.WSMessageTypePage, listview.OutcomeApplied, 1},
		{"prev on first page", `{"type":"prev"}`, model.WSMessageTypePage, listview.OutcomeNoop, 1},
		{"goto", `{"type":"goto","page":3}`, model.WSMessageTypePage, listview.OutcomeApplied, 3},
		{"goto out of range", `{"type":"goto","page":9}`, model.WSMessageTypePage, listview.OutcomeRejected, 3},
		{"resize", `{"type":"resize","items_per_page":5}`, model.WSMessageTypePage, listview.OutcomeApplied, 1},
		{"ping", `{"type":"ping"}`, model.WSMessageTypePong, "", 0},
		{"unknown intent", `{"type":"shuffle"}`, model.WSMessageTypeError, "", 0},
		{"invalid message", `not json`, model.WSMessageTypeError, "", 0},
	}

	for _, step := range steps {
		// Act
		if err := conn.WriteMessage(websocket.TextMessage, []byte(step.send)); err != nil {
			t.Fatalf("%s: failed to send: %v", step.name, err)
		}
		msg := readMessage(t, conn)

		// Assert
		if msg.Type != step.wantType {
			t.Fatalf("%s: Type = %s, want %s", step.name, msg.Type, step.wantType)
		}
		if step.wantType != model.WSMessageTypePage {
			continue
		}
		if msg.Outcome != string(step.wantOutcome) {
			t.Errorf("%s: Outcome = %s, want %s", step.name, msg.Outcome, step.wantOutcome)
		}
		if msg.View.CurrentPage != step.wantPage {
			t.Errorf("%s: page = %d, want %d", step.name, msg.View.CurrentPage, step.wantPage)
		}
	}
}

func TestWebSocketHandler_AttachToView(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 25)
	server, _ := newWSServer(t, env)
	state, err := env.registry.Open(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	conn := dial(t, server, "?view="+state.ViewID, "alice")
	if initial := readMessage(t, conn); initial.View.ViewID != state.ViewID {
		t.Fatalf("ViewID = %s, want %s", initial.View.ViewID, state.ViewID)
	}

	// Act
	if _, _, err := env.registry.Navigate("alice", state.ViewID, model.ViewIntent{Type: model.IntentNext}); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	msg := readMessage(t, conn)

	// Assert
	if msg.View.CurrentPage != 2 || msg.Outcome != string(listview.OutcomeApplied) {
		t.Errorf("update = page %d (%s), want page 2 (applied)", msg.View.CurrentPage, msg.Outcome)
	}

	// The view outlives connections that merely attach to it.
	_ = conn.Close()
	time.Sleep(50 * time.Millisecond)
	if env.registry.Len() != 1 {
		t.Errorf("open views = %d, want 1", env.registry.Len())
	}
}

func TestWebSocketHandler_FavoriteChangeResetsStream(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 25)
	server, _ := newWSServer(t, env)
	conn := dial(t, server, "", "alice")
	readMessage(t, conn)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"next"}`)); err != nil {
		t.Fatalf("failed to send: %v", err)
	}
	readMessage(t, conn)

	// Act
	if _, err := env.catalog.AddFavoriteVenue(context.Background(), "alice", "v25"); err != nil {
		t.Fatalf("AddFavoriteVenue() error = %v", err)
	}
	msg := readMessage(t, conn)

	// Assert
	if msg.View.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", msg.View.CurrentPage)
	}
	if msg.View.Items[0].ID != "v25" {
		t.Errorf("first item = %s, want v25", msg.View.Items[0].ID)
	}
}

func TestWebSocketHandler_UnknownView(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		viewer string
	}{
		{"missing view", "?view=nope", "alice"},
		{"view of another viewer", "", "bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			env := newTestEnv(t, 3)
			server, _ := newWSServer(t, env)
			query := tt.query
			if query == "" {
				state, err := env.registry.Open(context.Background(), "alice", 0)
				if err != nil {
					t.Fatalf("Open() error = %v", err)
				}
				query = "?view=" + state.ViewID
			}

			header := http.Header{}
			header.Set(viewerHeader, tt.viewer)
			wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + query

			// Act
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)

			// Assert
			if err == nil {
				_ = conn.Close()
				t.Fatal("Dial() expected error")
			}
			if resp == nil || resp.StatusCode != http.StatusNotFound {
				t.Errorf("response = %v, want 404", resp)
			}
		})
	}
}

func TestWebSocketHandler_InvalidPerPage(t *testing.T) {
	env := newTestEnv(t, 3)
	server, _ := newWSServer(t, env)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?per_page=1000"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)

	if err == nil {
		_ = conn.Close()
		t.Fatal("Dial() expected error")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("response = %v, want 400", resp)
	}
}

func TestWebSocketHandler_ClientDisconnect(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 3)
	server, handler := newWSServer(t, env)
	conn := dial(t, server, "", "")
	readMessage(t, conn)

	// Act
	_ = conn.Close()

	// Assert
	eventually(t, func() bool { return handler.ClientCount() == 0 }, "client not removed")
	eventually(t, func() bool { return env.registry.Len() == 0 }, "owned view not closed")
}

func TestWebSocketHandler_ViewClosed(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 3)
	server, _ := newWSServer(t, env)
	state, err := env.registry.Open(context.Background(), "alice", 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	conn := dial(t, server, "?view="+state.ViewID, "alice")
	readMessage(t, conn)

	// Act
	if err := env.registry.Close("alice", state.ViewID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Assert
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("ReadMessage() error = %v, want normal closure", err)
	}
}

func TestWebSocketHandler_CloseAllConnections(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 3)
	server, handler := newWSServer(t, env)
	for i := 0; i < 3; i++ {
		conn := dial(t, server, "", "")
		readMessage(t, conn)
	}
	eventually(t, func() bool { return handler.ClientCount() == 3 }, "clients not registered")

	// Act
	handler.CloseAllConnections()

	// Assert
	if handler.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", handler.ClientCount())
	}
}

func TestWebSocketHandler_CloseAllConnections_WaitsForCloseFrames(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 3)
	server, handler := newWSServer(t, env)
	conns := make([]*websocket.Conn, 0, 2)
	for i := 0; i < 2; i++ {
		conn := dial(t, server, "", "alice")
		readMessage(t, conn)
		conns = append(conns, conn)
	}
	eventually(t, func() bool { return handler.ClientCount() == 2 }, "clients not registered")

	// Act
	start := time.Now()
	handler.CloseAllConnections()
	elapsed := time.Since(start)

	// Assert
	if elapsed >= writeWait {
		t.Errorf("CloseAllConnections() took %v, want under %v", elapsed, writeWait)
	}
	for i, conn := range conns {
		if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
			t.Fatalf("SetReadDeadline() error = %v", err)
		}
		_, _, err := conn.ReadMessage()
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			t.Errorf("conn %d: ReadMessage() error = %v, want normal closure", i, err)
			continue
		}
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) && closeErr.Text != "server shutting down" {
			t.Errorf("conn %d: close reason = %q, want %q", i, closeErr.Text, "server shutting down")
		}
	}
}

func TestWebSocketHandler_CloseAllConnections_Empty(t *testing.T) {
	env := newTestEnv(t, 0)
	handler := NewWebSocketHandler(env.registry, zap.NewNop())

	handler.CloseAllConnections()

	if handler.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", handler.ClientCount())
	}
}

func TestWebSocketConstants(t *testing.T) {
	if pingPeriod >= pongWait {
		t.Errorf("pingPeriod (%v) should be less than pongWait (%v)", pingPeriod, pongWait)
	}
	if maxMessageSize <= 0 {
		t.Errorf("maxMessageSize = %d, want positive", maxMessageSize)
	}
}

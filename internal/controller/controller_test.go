package controller

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/moveefy/server/internal/domain"
	connInmemory "github.com/moveefy/server/internal/repository/connection/inmemory"
	roomInmemory "github.com/moveefy/server/internal/repository/room/inmemory"
	"github.com/moveefy/server/internal/service/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOutput struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.Default()
	connRepo := connInmemory.NewRepo(logger)
	roomRepo := roomInmemory.NewRepo(connRepo, logger)
	roomService := room.NewService(roomRepo, connRepo, logger)
	c := NewController(roomService, logger, &Config{
		SendBuffer: 16,
		ReadLimit:  4096,
		PongWait:   time.Minute,
	})

	server := httptest.NewServer(c.GetMux())
	t.Cleanup(server.Close)

	return server
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	return ws
}

func readOutput(t *testing.T, ws *websocket.Conn) testOutput {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var output testOutput
	require.NoError(t, ws.ReadJSON(&output))

	return output
}

func readMembers(t *testing.T, ws *websocket.Conn) []string {
	t.Helper()
	output := readOutput(t, ws)
	require.Equal(t, "MEMBERSHIP_CHANGED", output.Type)
	var payload membershipChangedOutput
	require.NoError(t, json.Unmarshal(output.Payload, &payload))

	return payload.Members
}

func send(t *testing.T, ws *websocket.Conn, messageType string, payload any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(map[string]any{"type": messageType, "payload": payload}))
}

// expectPong proves nothing else was queued for ws before the pong.
func expectPong(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	send(t, ws, "PING", PingInput{Timestamp: 1.5})
	output := readOutput(t, ws)
	require.Equal(t, "PONG", output.Type)
	var payload pongOutput
	require.NoError(t, json.Unmarshal(output.Payload, &payload))
	assert.Equal(t, 1.5, payload.Timestamp)
	assert.NotZero(t, payload.ServerTime)
}

func TestController_RoomSession(t *testing.T) {
	server := newTestServer(t)

	alice := dial(t, server, "/api/v1/ws/room/ABC123/join?username=Alice")
	assert.Equal(t, "CONNECTED", readOutput(t, alice).Type)
	assert.Equal(t, []string{"Alice"}, readMembers(t, alice))

	bob := dial(t, server, "/api/v1/ws")
	connected := readOutput(t, bob)
	require.Equal(t, "CONNECTED", connected.Type)
	var connectedPayload connectedOutput
	require.NoError(t, json.Unmarshal(connected.Payload, &connectedPayload))
	assert.NotEmpty(t, connectedPayload.ConnectionId)

	send(t, bob, "JOIN_ROOM", JoinRoomInput{RoomId: "ABC123", Username: "Bob"})
	assert.Equal(t, []string{"Alice", "Bob"}, readMembers(t, bob))
	assert.Equal(t, []string{"Alice", "Bob"}, readMembers(t, alice))

	send(t, bob, "SEND_ACTION", map[string]any{"room_id": "ABC123", "action": "play"})
	play := readOutput(t, alice)
	assert.Equal(t, "PLAY", play.Type)
	assert.JSONEq(t, `{"from":"Bob"}`, string(play.Payload))

	send(t, bob, "SEND_ACTION", map[string]any{"room_id": "ABC123", "action": 42.5})
	seek := readOutput(t, alice)
	assert.Equal(t, "SEEK_TO", seek.Type)
	assert.JSONEq(t, `{"timestamp":42.5,"from":"Bob"}`, string(seek.Payload))

	// dropped silently on both ends
	send(t, bob, "SEND_ACTION", map[string]any{"room_id": "ABC123", "action": "rewind"})
	send(t, bob, "SEND_ACTION", map[string]any{"room_id": "XYZ999", "action": "pause"})
	expectPong(t, bob)
	expectPong(t, alice)

	bob.Close()
	assert.Equal(t, []string{"Alice"}, readMembers(t, alice))

	send(t, alice, "SEND_ACTION", map[string]any{"room_id": "ABC123", "action": "87.25"})
	expectPong(t, alice)

	resp, err := http.Get(server.URL + "/api/v1/rooms/ABC123/members")
	require.NoError(t, err)
	defer resp.Body.Close()
	var members struct {
		Data roomMembersResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
	assert.Equal(t, []string{"Alice"}, members.Data.Members)
}

func TestController_InvalidControlMessages(t *testing.T) {
	server := newTestServer(t)
	ws := dial(t, server, "/api/v1/ws")
	readOutput(t, ws)

	tests := []struct {
		name       string
		message    string
		wantErrors bool
	}{
		{name: "bad json", message: `{"type":`},
		{name: "unknown type", message: `{"type":"REWIND","payload":{}}`},
		{name: "missing room id", message: `{"type":"JOIN_ROOM","payload":{"username":"Alice"}}`, wantErrors: true},
		{name: "username too long", message: `{"type":"JOIN_ROOM","payload":{"room_id":"r","username":"` + strings.Repeat("a", 33) + `"}}`, wantErrors: true},
		{name: "leave without room", message: `{"type":"LEAVE_ROOM","payload":null}`, wantErrors: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(tt.message)))
			output := readOutput(t, ws)
			require.Equal(t, "ERROR", output.Type)

			var payload errorOutput
			require.NoError(t, json.Unmarshal(output.Payload, &payload))
			assert.NotEmpty(t, payload.Message)
			assert.Equal(t, tt.wantErrors, len(payload.Errors) > 0)
		})
	}
}

func TestController_JoinRejectsInvalidUsername(t *testing.T) {
	server := newTestServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws/room/ABC123/join"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestController_Stats(t *testing.T) {
	server := newTestServer(t)
	ws := dial(t, server, "/api/v1/ws/room/ABC123/join?username=Alice")
	readOutput(t, ws)
	readMembers(t, ws)

	resp, err := http.Get(server.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		Data room.Stats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Data.Rooms)
	assert.Equal(t, 1, stats.Data.Members)
	assert.Equal(t, 1, stats.Data.Connections)
}

func TestOutputFromEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   domain.Event
		want string
	}{
		{name: "play", ev: domain.Relayed(domain.Play(), "Bob"), want: `{"type":"PLAY","payload":{"from":"Bob"}}`},
		{name: "pause", ev: domain.Relayed(domain.Pause(), "Bob"), want: `{"type":"PAUSE","payload":{"from":"Bob"}}`},
		{name: "seek", ev: domain.Relayed(domain.SeekTo(87.25), "Alice"), want: `{"type":"SEEK_TO","payload":{"timestamp":87.25,"from":"Alice"}}`},
		{name: "members", ev: domain.MembershipChanged([]string{"Alice", "Bob"}), want: `{"type":"MEMBERSHIP_CHANGED","payload":{"members":["Alice","Bob"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(outputFromEvent(tt.ev))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestWSConn_Send(t *testing.T) {
	conn := newWSConn("a", nil, 1)

	require.NoError(t, conn.Send(domain.Relayed(domain.Play(), "Bob")))
	assert.ErrorIs(t, conn.Send(domain.Relayed(domain.Pause(), "Bob")), ErrSendBufferFull)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Send(domain.Relayed(domain.Pause(), "Bob")), ErrConnClosed)
}

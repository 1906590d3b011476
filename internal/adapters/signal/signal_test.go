package signal_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	router "github.com/clanrich/signal/internal/adapters/http"
	"github.com/clanrich/signal/internal/adapters/signal"
	"github.com/clanrich/signal/internal/app"
	"github.com/clanrich/signal/internal/config"
	"github.com/clanrich/signal/internal/core"
	"github.com/clanrich/signal/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*httptest.Server, *app.Relay) {
	t.Helper()
	cfg := &config.Config{
		Mode:          "release",
		ReadLimit:     32768,
		PingPeriod:    time.Minute,
		SweepInterval: time.Minute,
		DefaultRoom:   "main",
		Rooms: []domain.RoomInfo{
			{ID: "main", Name: "Main Hall", Description: "General voice room"},
		},
		StunURLs: []string{"stun:stun.example.org:3478"},
	}
	relay := app.NewRelay(app.NewRegistry(), core.NewDirectory())
	ctl := signal.NewController(relay, cfg)
	srv := httptest.NewServer(router.SetupRouter(context.Background(), cfg, relay, ctl))
	t.Cleanup(srv.Close)
	return srv, relay
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, c.WriteJSON(v))
}

func recv(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m map[string]any
	require.NoError(t, c.ReadJSON(&m))
	return m
}

// join sends a join and returns the joined reply.
func join(t *testing.T, c *websocket.Conn, room, nickname string) map[string]any {
	t.Helper()
	send(t, c, map[string]any{"type": "join", "room": room, "nickname": nickname})
	m := recv(t, c)
	require.Equal(t, "joined", m["type"])
	return m
}

func TestJoinFirstMemberGetsEmptyPeerList(t *testing.T) {
	srv, _ := newTestServer(t)
	x := dial(t, srv)

	m := join(t, x, "main", "Alice")
	assert.Equal(t, "main", m["room"])
	assert.Empty(t, m["users"])
	assert.Equal(t, float64(1), m["count"])

	info, ok := m["info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Main Hall", info["name"])

	ice, ok := m["iceServers"].([]any)
	require.True(t, ok)
	require.Len(t, ice, 1)
}

func TestSecondJoinNotifiesFirst(t *testing.T) {
	srv, _ := newTestServer(t)
	x := dial(t, srv)
	join(t, x, "main", "Alice")

	y := dial(t, srv)
	m := join(t, y, "main", "Bob")

	users, ok := m["users"].([]any)
	require.True(t, ok)
	require.Len(t, users, 1)
	first := users[0].(map[string]any)
	assert.Equal(t, "Alice", first["nickname"])

	ev := recv(t, x)
	require.Equal(t, "user-joined", ev["type"])
	user := ev["user"].(map[string]any)
	assert.Equal(t, "Bob", user["nickname"])
	assert.NotEmpty(t, user["id"])

	count := recv(t, x)
	require.Equal(t, "user-count", count["type"])
	assert.Equal(t, float64(2), count["count"])
}

func TestOfferRelayStampsSender(t *testing.T) {
	srv, _ := newTestServer(t)
	x := dial(t, srv)
	join(t, x, "main", "Alice")

	y := dial(t, srv)
	joinedY := join(t, y, "main", "Bob")
	xID := joinedY["users"].([]any)[0].(map[string]any)["id"].(string)

	evJoined := recv(t, x) // user-joined for Bob
	yID := evJoined["user"].(map[string]any)["id"].(string)
	recv(t, x) // user-count

	send(t, x, map[string]any{"type": "offer", "targetId": yID, "sdp": "v=0"})

	got := recv(t, y)
	assert.Equal(t, "offer", got["type"])
	assert.Equal(t, "v=0", got["sdp"])
	assert.Equal(t, xID, got["fromId"])
	assert.Equal(t, "Alice", got["fromNickname"])
}

func TestRelayToNonexistentTargetIsDropped(t *testing.T) {
	srv, _ := newTestServer(t)
	x := dial(t, srv)
	join(t, x, "main", "Alice")

	send(t, x, map[string]any{"type": "ice-candidate", "targetId": "nonexistent", "candidate": "c"})

	// Nothing comes back; a follow-up ping answers first.
	send(t, x, map[string]any{"type": "ping"})
	m := recv(t, x)
	assert.Equal(t, "pong", m["type"])
}

func TestTextMessageBroadcast(t *testing.T) {
	srv, _ := newTestServer(t)
	x := dial(t, srv)
	join(t, x, "main", "Alice")
	y := dial(t, srv)
	join(t, y, "main", "Bob")
	recv(t, x) // user-joined
	recv(t, x) // user-count

	send(t, y, map[string]any{"type": "text-message", "message": "hello"})

	got := recv(t, x)
	require.Equal(t, "text-message", got["type"])
	assert.Equal(t, "hello", got["message"])
	assert.Equal(t, "Bob", got["fromNickname"])
	assert.Greater(t, got["timestamp"].(float64), float64(0))
}

func TestSwitchRoom(t *testing.T) {
	srv, relay := newTestServer(t)
	x := dial(t, srv)
	join(t, x, "one", "Alice")
	y := dial(t, srv)
	join(t, y, "one", "Bob")
	recv(t, x) // user-joined
	recv(t, x) // user-count

	send(t, y, map[string]any{"type": "switch-room", "targetRoom": "two", "oldRoom": "one"})

	m := recv(t, y)
	require.Equal(t, "joined", m["type"])
	assert.Equal(t, "two", m["room"])

	left := recv(t, x)
	require.Equal(t, "user-left", left["type"])
	assert.Equal(t, "Bob", left["nickname"])
	count := recv(t, x)
	assert.Equal(t, "user-count", count["type"])
	assert.Equal(t, float64(1), count["count"])

	assert.Equal(t, 1, relay.Rooms.MemberCount("one"))
	assert.Equal(t, 1, relay.Rooms.MemberCount("two"))
}

func TestDisconnectActsAsLeave(t *testing.T) {
	srv, relay := newTestServer(t)
	x := dial(t, srv)
	join(t, x, "main", "Alice")
	y := dial(t, srv)
	join(t, y, "main", "Bob")
	recv(t, x) // user-joined
	recv(t, x) // user-count

	require.NoError(t, y.Close())

	left := recv(t, x)
	require.Equal(t, "user-left", left["type"])
	assert.Equal(t, "Bob", left["nickname"])
	assert.NotEmpty(t, left["userId"])
	count := recv(t, x)
	assert.Equal(t, float64(1), count["count"])

	assert.Equal(t, 1, relay.Rooms.MemberCount("main"))
}

func TestLastLeaveDeletesRoom(t *testing.T) {
	srv, relay := newTestServer(t)
	x := dial(t, srv)
	join(t, x, "main", "Alice")

	send(t, x, map[string]any{"type": "leave"})
	// leave has no reply; synchronize on a ping round trip.
	send(t, x, map[string]any{"type": "ping"})
	m := recv(t, x)
	require.Equal(t, "pong", m["type"])

	assert.False(t, relay.Rooms.Has("main"))
}

func TestMalformedFrameGetsError(t *testing.T) {
	srv, _ := newTestServer(t)
	x := dial(t, srv)

	require.NoError(t, x.WriteMessage(websocket.TextMessage, []byte("not json")))

	m := recv(t, x)
	assert.Equal(t, "error", m["type"])
	assert.Equal(t, "Invalid JSON", m["message"])
}

func TestUnknownTypeIsIgnored(t *testing.T) {
	srv, _ := newTestServer(t)
	x := dial(t, srv)

	send(t, x, map[string]any{"type": "frobnicate"})
	send(t, x, map[string]any{"type": "ping"})
	m := recv(t, x)
	assert.Equal(t, "pong", m["type"])
}

func TestJoinWithEmptyRoomUsesDefault(t *testing.T) {
	srv, relay := newTestServer(t)
	x := dial(t, srv)

	m := join(t, x, "", "Alice")
	assert.Equal(t, "main", m["room"])
	assert.True(t, relay.Rooms.Has("main"))
}

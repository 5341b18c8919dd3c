package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/config"
	"github.com/sanguosha-online/sgs-server-go/internal/game"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
	"github.com/sanguosha-online/sgs-server-go/internal/game/skill"
	"github.com/sanguosha-online/sgs-server-go/internal/session"
)

type gatewayFixture struct {
	gateway  *Gateway
	manager  *game.Manager
	sessions *session.Manager
	server   *httptest.Server
	room     *game.Room
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	manager := game.NewManager(logger)
	t.Cleanup(manager.Shutdown)
	sessions := session.NewManager(time.Minute, logger)

	gw := NewGateway(manager, sessions, config.WebSocketConfig{
		WriteTimeout: time.Second,
		PingInterval: time.Minute,
	}, logger)

	room := manager.CreateRoom(game.Options{
		ID:         "room-1",
		Catalog:    catalog.NewStandard(),
		Skills:     skill.NewStandardRegistry(),
		Notifier:   gw.NotifierFor("room-1"),
		Journal:    game.NewMemoryJournal(),
		AskTimeout: 2 * time.Second,
		Seed:       42,
	})

	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWS))
	t.Cleanup(srv.Close)

	return &gatewayFixture{gateway: gw, manager: manager, sessions: sessions, server: srv, room: room}
}

func (f *gatewayFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func join(t *testing.T, conn *websocket.Conn, playerID, roomID string) ServerMessage {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type:     MsgJoin,
		PlayerID: playerID,
		RoomID:   roomID,
	}))
	return readMessage(t, conn)
}

func TestJoinOpensSession(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t)

	msg := join(t, conn, "p1", "room-1")
	require.Equal(t, MsgJoined, msg.Type)
	assert.NotEmpty(t, msg.SessionID)
	assert.Equal(t, "room-1", msg.RoomID)

	s, ok := f.sessions.ByPlayer("p1")
	require.True(t, ok)
	assert.Equal(t, msg.SessionID, s.ID)
}

func TestJoinUnknownRoomRejected(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t)

	msg := join(t, conn, "p1", "no-such-room")
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Error, "not found")
}

func TestJoinWrongPasscodeRejected(t *testing.T) {
	f := newGatewayFixture(t)
	require.NoError(t, f.sessions.SetRoomPasscode("room-1", "secret"))
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type:     MsgJoin,
		PlayerID: "p1",
		RoomID:   "room-1",
		Passcode: "wrong",
	}))
	msg := readMessage(t, conn)
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Error, "passcode")
}

func TestReconnectWithSessionID(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t)
	first := join(t, conn, "p1", "room-1")
	require.Equal(t, MsgJoined, first.Type)
	conn.Close()

	conn2 := f.dial(t)
	require.NoError(t, conn2.WriteJSON(ClientMessage{
		Type:      MsgJoin,
		PlayerID:  "p1",
		RoomID:    "room-1",
		SessionID: first.SessionID,
	}))
	msg := readMessage(t, conn2)
	require.Equal(t, MsgJoined, msg.Type)
	assert.Equal(t, first.SessionID, msg.SessionID, "reconnect keeps the session")
}

func TestAnswerReachesBlockedRoom(t *testing.T) {
	f := newGatewayFixture(t)

	require.NoError(t, f.manager.Do(context.Background(), "room-1", func(r *game.Room) error {
		if _, err := r.AddPlayer("p1", "p1", catalog.CharLiuBei, game.RoleLord); err != nil {
			return err
		}
		if _, err := r.AddPlayer("p2", "p2", catalog.CharSunCe, game.RoleRebel); err != nil {
			return err
		}
		return r.Start()
	}))

	conn := f.dial(t)
	require.Equal(t, MsgJoined, join(t, conn, "p1", "room-1").Type)

	got := make(chan rules.Response, 1)
	require.NoError(t, f.manager.Enqueue("room-1", func(r *game.Room) error {
		ask := rules.NewEvent(rules.EventAskForChoosingOptions, "")
		ask.ToIDs = []string{"p1"}
		ask.Options = []string{"yes", "no"}
		resp, err := r.Ask("p1", ask)
		if err != nil {
			return err
		}
		got <- resp
		return nil
	}))

	// The ask arrives as an event push.
	var askMsg ServerMessage
	for {
		askMsg = readMessage(t, conn)
		if askMsg.Type == MsgEvent && askMsg.Event != nil &&
			askMsg.Event.Kind == rules.EventAskForChoosingOptions {
			break
		}
	}

	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type:     MsgAnswer,
		Response: &rules.Response{SelectedOption: "yes"},
	}))

	select {
	case resp := <-got:
		assert.Equal(t, "yes", resp.SelectedOption)
		assert.Equal(t, "p1", resp.FromID, "the gateway stamps the sender")
	case <-time.After(2 * time.Second):
		t.Fatal("answer never reached the room")
	}
}

func TestAnswerBeforeJoinRejected(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type:     MsgAnswer,
		Response: &rules.Response{SelectedOption: "yes"},
	}))
	msg := readMessage(t, conn)
	assert.Equal(t, MsgError, msg.Type)
}

func TestBroadcastReachesRoomClients(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t)
	require.Equal(t, MsgJoined, join(t, conn, "p1", "room-1").Type)

	notifier := f.gateway.NotifierFor("room-1")
	ev := rules.NewEvent(rules.EventCardDisplay, "p2")
	notifier.Broadcast(ev)

	msg := readMessage(t, conn)
	require.Equal(t, MsgEvent, msg.Type)
	assert.Equal(t, rules.EventCardDisplay, msg.Event.Kind)
}

func TestDisconnectResolvesPendingAsk(t *testing.T) {
	f := newGatewayFixture(t)

	require.NoError(t, f.manager.Do(context.Background(), "room-1", func(r *game.Room) error {
		if _, err := r.AddPlayer("p1", "p1", catalog.CharLiuBei, game.RoleLord); err != nil {
			return err
		}
		if _, err := r.AddPlayer("p2", "p2", catalog.CharSunCe, game.RoleRebel); err != nil {
			return err
		}
		return r.Start()
	}))

	conn := f.dial(t)
	require.Equal(t, MsgJoined, join(t, conn, "p1", "room-1").Type)

	got := make(chan rules.Response, 1)
	require.NoError(t, f.manager.Enqueue("room-1", func(r *game.Room) error {
		ask := rules.NewEvent(rules.EventAskForCardUse, "")
		ask.ToIDs = []string{"p1"}
		resp, err := r.Ask("p1", ask)
		if err != nil {
			return err
		}
		got <- resp
		return nil
	}))

	// Wait for the ask to open, then cut the connection.
	for {
		msg := readMessage(t, conn)
		if msg.Type == MsgEvent && msg.Event.Kind == rules.EventAskForCardUse {
			break
		}
	}
	conn.Close()

	select {
	case resp := <-got:
		assert.True(t, resp.Declined(), "disconnect resolves the ask with the default")
	case <-time.After(3 * time.Second):
		t.Fatal("disconnect never resolved the ask")
	}
}

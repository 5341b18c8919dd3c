package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sanguosha-online/sgs-server-go/internal/config"
	"github.com/sanguosha-online/sgs-server-go/internal/game"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
	"github.com/sanguosha-online/sgs-server-go/internal/session"
)

// Gateway is the websocket transport: one connection per player. Incoming
// answers go straight into the room's ask table; outgoing events flow
// through per-connection write pumps so a slow client never blocks a room.
type Gateway struct {
	manager  *game.Manager
	sessions *session.Manager
	cfg      config.WebSocketConfig
	logger   *zap.Logger

	upgrader websocket.Upgrader

	// createRoom builds and registers a room for a fresh lobby id; main
	// wires it so the gateway stays ignorant of catalogs and journals.
	createRoom func(roomID string) error
	// maxTurns caps started games; zero disables the cap.
	maxTurns int

	mu      sync.RWMutex
	clients map[string]*client
}

// client is one player's live connection. send is never closed; done
// signals the write pump, so pushes racing a disconnect are safe.
type client struct {
	playerID  string
	roomID    string
	sessionID string
	conn      *websocket.Conn
	send      chan ServerMessage
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// push queues a message unless the client is gone or the buffer is full.
func (c *client) push(msg ServerMessage) bool {
	select {
	case <-c.done:
		return false
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// NewGateway wires the transport to the room manager and session manager.
func NewGateway(manager *game.Manager, sessions *session.Manager, cfg config.WebSocketConfig, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		manager:  manager,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		clients:  map[string]*client{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	// A lapsed lease resolves the player's pending ask with its default so
	// the room never waits on a gone client.
	sessions.OnExpire(func(s *session.Session) {
		g.manager.PlayerDisconnected(s.RoomID, s.PlayerID)
		g.dropClient(s.PlayerID)
	})
	return g
}

// OnCreateRoom sets the factory invoked for create_room messages.
func (g *Gateway) OnCreateRoom(fn func(roomID string) error) {
	g.createRoom = fn
}

// SetMaxTurns caps the game loop of rooms started through the gateway.
func (g *Gateway) SetMaxTurns(n int) {
	g.maxTurns = n
}

// NotifierFor returns a game.Notifier bound to one room.
func (g *Gateway) NotifierFor(roomID string) game.Notifier {
	return &roomNotifier{gateway: g, roomID: roomID}
}

// roomNotifier pushes one room's events to its connected players.
type roomNotifier struct {
	gateway *Gateway
	roomID  string
}

func (n *roomNotifier) Notify(playerID string, ev rules.Event) {
	n.gateway.push(playerID, ServerMessage{Type: MsgEvent, RoomID: n.roomID, Event: &ev})
}

func (n *roomNotifier) Broadcast(ev rules.Event) {
	n.gateway.pushRoom(n.roomID, ServerMessage{Type: MsgEvent, RoomID: n.roomID, Event: &ev})
}

func (g *Gateway) push(playerID string, msg ServerMessage) {
	g.mu.RLock()
	c, ok := g.clients[playerID]
	g.mu.RUnlock()
	if !ok {
		return
	}
	if !c.push(msg) {
		// Send buffer full: the write pump is stuck, drop the connection.
		g.logger.Warn("client send buffer full, dropping connection",
			zap.String("player_id", playerID))
		g.disconnect(c)
	}
}

func (g *Gateway) pushRoom(roomID string, msg ServerMessage) {
	g.mu.RLock()
	targets := make([]*client, 0, len(g.clients))
	for _, c := range g.clients {
		if c.roomID == roomID {
			targets = append(targets, c)
		}
	}
	g.mu.RUnlock()
	for _, c := range targets {
		if !c.push(msg) {
			g.disconnect(c)
		}
	}
}

// HandleWS upgrades the connection and runs the read loop until the client
// leaves or errors out.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan ServerMessage, 64),
		done: make(chan struct{}),
	}
	go g.writePump(c)
	g.readLoop(c)
}

func (g *Gateway) readLoop(c *client) {
	defer g.disconnect(c)

	for {
		if g.cfg.ReadTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(g.cfg.ReadTimeout))
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Debug("websocket read failed",
					zap.String("player_id", c.playerID),
					zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.push(ServerMessage{Type: MsgError, Error: "malformed message"})
			continue
		}
		g.handleMessage(c, msg)
	}
}

func (g *Gateway) handleMessage(c *client, msg ClientMessage) {
	if c.sessionID != "" {
		if s, ok := g.sessions.Get(c.sessionID); ok {
			s.Touch()
		}
	}

	switch msg.Type {
	case MsgCreateRoom:
		g.handleCreateRoom(c, msg)
	case MsgJoin:
		g.handleJoin(c, msg)
	case MsgSit:
		g.handleSit(c, msg)
	case MsgStart:
		g.handleStart(c)
	case MsgAnswer:
		g.handleAnswer(c, msg)
	case MsgLeave:
		_ = c.conn.Close()
	case MsgPing:
		c.push(ServerMessage{Type: MsgPong})
	default:
		c.push(ServerMessage{Type: MsgError, Error: "unknown message type " + msg.Type})
	}
}

// handleCreateRoom builds a fresh room through the wired factory. The
// creator's passcode, if any, protects joins.
func (g *Gateway) handleCreateRoom(c *client, msg ClientMessage) {
	if g.createRoom == nil {
		c.push(ServerMessage{Type: MsgError, Error: "room creation disabled"})
		return
	}
	roomID := uuid.NewString()
	if err := g.createRoom(roomID); err != nil {
		g.logger.Error("room creation failed", zap.Error(err))
		c.push(ServerMessage{Type: MsgError, Error: "room creation failed"})
		return
	}
	if msg.Passcode != "" {
		if err := g.sessions.SetRoomPasscode(roomID, msg.Passcode); err != nil {
			c.push(ServerMessage{Type: MsgError, Error: "room creation failed"})
			return
		}
	}
	c.push(ServerMessage{Type: MsgRoomCreated, RoomID: roomID})
	g.logger.Info("room created", zap.String("room_id", roomID))
}

// handleSit seats the joined player with a character and role.
func (g *Gateway) handleSit(c *client, msg ClientMessage) {
	if c.playerID == "" || c.roomID == "" {
		c.push(ServerMessage{Type: MsgError, Error: "join before sitting"})
		return
	}
	name := msg.PlayerName
	if name == "" {
		name = c.playerID
	}
	// Bounded wait: a room busy running its game loop cannot serve lobby
	// actions, and the read loop must stay free to deliver answers.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := g.manager.Do(ctx, c.roomID, func(r *game.Room) error {
		_, err := r.AddPlayer(c.playerID, name, msg.CharacterID, game.Role(msg.Role))
		return err
	})
	if err != nil {
		c.push(ServerMessage{Type: MsgError, Error: err.Error()})
		return
	}
	c.push(ServerMessage{Type: MsgSeated, RoomID: c.roomID})
}

// handleStart starts the game and kicks the turn loop off on the room's
// goroutine.
func (g *Gateway) handleStart(c *client) {
	if c.playerID == "" || c.roomID == "" {
		c.push(ServerMessage{Type: MsgError, Error: "join before starting"})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := g.manager.Do(ctx, c.roomID, func(r *game.Room) error {
		return r.Start()
	})
	if err != nil {
		c.push(ServerMessage{Type: MsgError, Error: err.Error()})
		return
	}
	maxTurns := g.maxTurns
	if err := g.manager.Enqueue(c.roomID, func(r *game.Room) error {
		return r.Run(maxTurns)
	}); err != nil {
		c.push(ServerMessage{Type: MsgError, Error: err.Error()})
		return
	}
	c.push(ServerMessage{Type: MsgStarted, RoomID: c.roomID})
}

// handleJoin binds the connection to a player. A valid session id
// reconnects to the existing seat; otherwise a fresh session is opened
// (seat assignment happens through the lobby API before the room starts).
func (g *Gateway) handleJoin(c *client, msg ClientMessage) {
	if msg.PlayerID == "" || msg.RoomID == "" {
		c.push(ServerMessage{Type: MsgError, Error: "join requires playerId and roomId"})
		return
	}
	if _, ok := g.manager.Room(msg.RoomID); !ok {
		c.push(ServerMessage{Type: MsgError, Error: "room " + msg.RoomID + " not found"})
		return
	}

	if msg.SessionID != "" {
		s, ok := g.sessions.Get(msg.SessionID)
		if !ok || s.PlayerID != msg.PlayerID {
			c.push(ServerMessage{Type: MsgError, Error: "session expired, rejoin with passcode"})
			return
		}
		s.Touch()
		c.sessionID = s.ID
	} else {
		if !g.sessions.CheckRoomPasscode(msg.RoomID, msg.Passcode) {
			c.push(ServerMessage{Type: MsgError, Error: "wrong passcode"})
			return
		}
		s, err := g.sessions.Open(msg.PlayerID, msg.RoomID)
		if err != nil {
			c.push(ServerMessage{Type: MsgError, Error: err.Error()})
			return
		}
		c.sessionID = s.ID
	}

	c.playerID = msg.PlayerID
	c.roomID = msg.RoomID

	g.mu.Lock()
	if old, ok := g.clients[c.playerID]; ok && old != c {
		old.close()
		_ = old.conn.Close()
	}
	g.clients[c.playerID] = c
	g.mu.Unlock()

	c.push(ServerMessage{Type: MsgJoined, SessionID: c.sessionID, RoomID: c.roomID})
	g.logger.Info("player connected",
		zap.String("player_id", c.playerID),
		zap.String("room_id", c.roomID))
}

// handleAnswer routes an async answer into the room. Delivery bypasses the
// room's action queue so a room blocked in an ask receives it.
func (g *Gateway) handleAnswer(c *client, msg ClientMessage) {
	if c.playerID == "" {
		c.push(ServerMessage{Type: MsgError, Error: "join before answering"})
		return
	}
	if msg.Response == nil {
		c.push(ServerMessage{Type: MsgError, Error: "answer carries no response"})
		return
	}
	resp := *msg.Response
	resp.FromID = c.playerID
	if err := g.manager.DeliverAnswer(c.roomID, c.playerID, resp); err != nil {
		c.push(ServerMessage{Type: MsgError, Error: err.Error()})
	}
}

func (g *Gateway) writePump(c *client) {
	interval := g.cfg.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			if g.cfg.WriteTimeout > 0 {
				_ = c.conn.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout))
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if g.cfg.WriteTimeout > 0 {
				_ = c.conn.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout))
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// disconnect tears a connection down and resolves any pending ask with its
// default so the room is never left waiting.
func (g *Gateway) disconnect(c *client) {
	g.mu.Lock()
	if g.clients[c.playerID] == c {
		delete(g.clients, c.playerID)
	}
	g.mu.Unlock()

	c.close()
	_ = c.conn.Close()

	if c.playerID != "" && c.roomID != "" {
		g.manager.PlayerDisconnected(c.roomID, c.playerID)
		g.logger.Info("player disconnected",
			zap.String("player_id", c.playerID),
			zap.String("room_id", c.roomID))
	}
}

func (g *Gateway) dropClient(playerID string) {
	g.mu.Lock()
	c, ok := g.clients[playerID]
	if ok {
		delete(g.clients, playerID)
	}
	g.mu.Unlock()
	if ok {
		c.close()
		_ = c.conn.Close()
	}
}

// Serve runs the websocket endpoint until ctx is cancelled.
func (g *Gateway) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.HandleWS)

	srv := &http.Server{
		Addr:    g.cfg.Address,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("websocket server listening", zap.String("address", g.cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

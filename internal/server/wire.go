package server

import (
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// ClientMessage is what a client sends over the websocket.
type ClientMessage struct {
	Type string `json:"type"`

	// join fields
	RoomID      string `json:"roomId,omitempty"`
	PlayerID    string `json:"playerId,omitempty"`
	PlayerName  string `json:"playerName,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	Passcode    string `json:"passcode,omitempty"`
	CharacterID int    `json:"characterId,omitempty"`
	Role        string `json:"role,omitempty"`

	// answer field
	Response *rules.Response `json:"response,omitempty"`
}

// Client message types.
const (
	MsgCreateRoom = "create_room"
	MsgJoin       = "join"
	MsgSit        = "sit"
	MsgStart      = "start"
	MsgAnswer     = "answer"
	MsgLeave      = "leave"
	MsgPing       = "ping"
)

// ServerMessage is what the gateway pushes to a client.
type ServerMessage struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId,omitempty"`
	RoomID    string       `json:"roomId,omitempty"`
	Event     *rules.Event `json:"event,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Server message types.
const (
	MsgEvent       = "event"
	MsgRoomCreated = "room_created"
	MsgJoined      = "joined"
	MsgSeated      = "seated"
	MsgStarted     = "started"
	MsgError       = "error"
	MsgPong        = "pong"
)

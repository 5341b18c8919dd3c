package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// Manager owns the live rooms. Each room runs on its own goroutine, which
// is the room's single writer: all state mutation happens as actions queued
// to that goroutine. Async answers bypass the queue — the ask table is
// internally synchronized — so a room blocked in an ask still receives its
// answer.
type Manager struct {
	mu     sync.RWMutex
	rooms  map[string]*roomHandle
	logger *zap.Logger
}

type roomHandle struct {
	room    *Room
	actions chan func()
	done    chan struct{}
}

// NewManager creates an empty room manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		rooms:  map[string]*roomHandle{},
		logger: logger,
	}
}

// CreateRoom builds a room and starts its goroutine. The given options'
// ID is assigned if empty.
func (m *Manager) CreateRoom(opts Options) *Room {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	room := NewRoom(opts)
	h := &roomHandle{
		room:    room,
		actions: make(chan func(), 64),
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	m.rooms[room.ID()] = h
	m.mu.Unlock()

	go func() {
		defer close(h.done)
		for action := range h.actions {
			action()
		}
	}()
	return room
}

// Room looks a live room up.
func (m *Manager) Room(roomID string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}
	return h.room, true
}

// Do queues an action onto the room's goroutine and waits for it. The
// action runs with exclusive access to the room's state.
func (m *Manager) Do(ctx context.Context, roomID string, action func(r *Room) error) error {
	m.mu.RLock()
	h, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("room %s not found", roomID)
	}

	errCh := make(chan error, 1)
	select {
	case h.actions <- func() { errCh <- action(h.room) }:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue queues an action without waiting; used to kick off long-running
// work like the game loop itself.
func (m *Manager) Enqueue(roomID string, action func(r *Room) error) error {
	m.mu.RLock()
	h, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("room %s not found", roomID)
	}
	h.actions <- func() {
		if err := action(h.room); err != nil {
			m.logger.Error("room action failed",
				zap.String("room_id", roomID),
				zap.Error(err))
		}
	}
	return nil
}

// DeliverAnswer routes a client answer into the room's ask table. Safe
// from any goroutine; never enters the room's action queue, so a room
// blocked awaiting this very answer is not deadlocked.
func (m *Manager) DeliverAnswer(roomID, playerID string, resp rules.Response) error {
	m.mu.RLock()
	h, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("room %s not found", roomID)
	}
	return h.room.DeliverAnswer(playerID, resp)
}

// PlayerDisconnected resolves the player's pending ask, if any, with its
// default.
func (m *Manager) PlayerDisconnected(roomID, playerID string) {
	m.mu.RLock()
	h, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if ok {
		h.room.CancelAsk(playerID)
	}
}

// CloseRoom stops the room's goroutine after pending actions drain.
func (m *Manager) CloseRoom(roomID string) {
	m.mu.Lock()
	h, ok := m.rooms[roomID]
	if ok {
		delete(m.rooms, roomID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	close(h.actions)
	<-h.done
}

// Shutdown closes every room.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	handles := make([]*roomHandle, 0, len(m.rooms))
	for id, h := range m.rooms {
		handles = append(handles, h)
		delete(m.rooms, id)
	}
	m.mu.Unlock()

	for _, h := range handles {
		close(h.actions)
		<-h.done
	}
}

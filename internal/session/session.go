package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Session ties a connected player to a room. The lease renews on every
// message; a session whose lease lapses is reaped and the player must
// reconnect with the session id (and the room passcode, if one is set).
type Session struct {
	ID       string
	PlayerID string
	RoomID   string

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool
}

// Touch renews the session lease.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// Expired reports whether the lease lapsed before the cutoff.
func (s *Session) Expired(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.lastSeen.Before(cutoff)
}

// Manager tracks live sessions and room passcodes.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	byPlayer    map[string]string
	passcodes   map[string][]byte
	leasePeriod time.Duration
	maxSessions int
	logger      *zap.Logger

	// onExpire runs outside the manager lock when a session is reaped.
	onExpire func(s *Session)
}

// NewManager creates a session manager with the given lease period.
func NewManager(leasePeriod time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions:    map[string]*Session{},
		byPlayer:    map[string]string{},
		passcodes:   map[string][]byte{},
		leasePeriod: leasePeriod,
		logger:      logger,
	}
}

// SetMaxSessions caps concurrent sessions; zero means unlimited.
func (m *Manager) SetMaxSessions(n int) {
	m.mu.Lock()
	m.maxSessions = n
	m.mu.Unlock()
}

// OnExpire registers a callback invoked for every reaped session (the
// gateway uses it to resolve pending asks with defaults).
func (m *Manager) OnExpire(fn func(s *Session)) {
	m.mu.Lock()
	m.onExpire = fn
	m.mu.Unlock()
}

// Open creates a session for a player joining a room. A player holds at
// most one session; opening again replaces the old one (reconnect from a
// new connection).
func (m *Manager) Open(playerID, roomID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		if _, replacing := m.byPlayer[playerID]; !replacing {
			return nil, fmt.Errorf("session limit %d reached", m.maxSessions)
		}
	}

	if oldID, ok := m.byPlayer[playerID]; ok {
		delete(m.sessions, oldID)
	}

	s := &Session{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		RoomID:   roomID,
		lastSeen: time.Now(),
	}
	m.sessions[s.ID] = s
	m.byPlayer[playerID] = s.ID

	m.logger.Info("session opened",
		zap.String("session_id", s.ID),
		zap.String("player_id", playerID),
		zap.String("room_id", roomID))
	return s, nil
}

// Get resolves a session by id.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// ByPlayer resolves a player's live session.
func (m *Manager) ByPlayer(playerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[id]
	return s, ok
}

// Close removes a session.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
		if m.byPlayer[s.PlayerID] == sessionID {
			delete(m.byPlayer, s.PlayerID)
		}
	}
	m.mu.Unlock()
	if ok {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	}
}

// CloseAll drops every session; used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	n := len(m.sessions)
	m.sessions = map[string]*Session{}
	m.byPlayer = map[string]string{}
	m.mu.Unlock()
	m.logger.Info("all sessions closed", zap.Int("count", n))
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpiredSessions reaps lapsed leases until ctx is done. Run it as a
// goroutine from main.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) {
	interval := m.leasePeriod / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reapExpired()
		}
	}
}

func (m *Manager) reapExpired() {
	cutoff := time.Now().Add(-m.leasePeriod)

	m.mu.Lock()
	var reaped []*Session
	for id, s := range m.sessions {
		if s.Expired(cutoff) {
			delete(m.sessions, id)
			if m.byPlayer[s.PlayerID] == id {
				delete(m.byPlayer, s.PlayerID)
			}
			reaped = append(reaped, s)
		}
	}
	onExpire := m.onExpire
	m.mu.Unlock()

	for _, s := range reaped {
		m.logger.Info("session lease expired",
			zap.String("session_id", s.ID),
			zap.String("player_id", s.PlayerID))
		if onExpire != nil {
			onExpire(s)
		}
	}
}

// SetRoomPasscode hashes and stores a room's passcode. An empty passcode
// removes protection.
func (m *Manager) SetRoomPasscode(roomID, passcode string) error {
	if passcode == "" {
		m.mu.Lock()
		delete(m.passcodes, roomID)
		m.mu.Unlock()
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash passcode: %w", err)
	}
	m.mu.Lock()
	m.passcodes[roomID] = hash
	m.mu.Unlock()
	return nil
}

// CheckRoomPasscode verifies a join attempt. Rooms without a stored
// passcode accept anything.
func (m *Manager) CheckRoomPasscode(roomID, passcode string) bool {
	m.mu.RLock()
	hash, ok := m.passcodes[roomID]
	m.mu.RUnlock()
	if !ok {
		return true
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(passcode)) == nil
}

// DropRoomPasscode removes a closed room's passcode.
func (m *Manager) DropRoomPasscode(roomID string) {
	m.mu.Lock()
	delete(m.passcodes, roomID)
	m.mu.Unlock()
}

package room

import (
	"fmt"
	"sync"

	"github.com/playsquare/gamesession-backend/internal/apperror"
)

// Role is a connection's capability within a session.
type Role string

const (
	RoleX        Role = "X"
	RoleO        Role = "O"
	RoleObserver Role = "observer"
)

// Mark returns the board mark for a player role, empty for observers.
func (that Role) Mark() string {
	if that == RoleX || that == RoleO {
		return string(that)
	}
	return ""
}

func (that Role) CanMove() bool {
	return that == RoleX || that == RoleO
}

// Event is one outbound message, delivered identically to every recipient.
type Event struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

// Connection is one subscribed client. Send must be safe for concurrent use
// and must not block indefinitely; a failed send is that member's problem
// alone.
type Connection interface {
	ID() string
	Send(event Event) error
}

type member struct {
	conn Connection
	role Role
}

// Room tracks the participants of one session. The first two joiners take
// the player roles, in order; everyone after is an observer. Player roles
// are never reassigned, even after their holder disconnects.
type Room struct {
	mu      sync.RWMutex
	members map[string]*member
	order   []string
	xTaken  bool
	oTaken  bool
}

func newRoom() *Room {
	return &Room{
		members: make(map[string]*member),
	}
}

func (that *Room) join(conn Connection, enforceCapacity bool) (Role, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if existing, ok := that.members[conn.ID()]; ok {
		return existing.role, nil
	}

	role := RoleObserver

	switch {
	case !that.xTaken:
		role = RoleX
		that.xTaken = true
	case !that.oTaken:
		role = RoleO
		that.oTaken = true
	case enforceCapacity:
		return "", apperror.ErrRoomFull
	}

	that.members[conn.ID()] = &member{conn: conn, role: role}
	that.order = append(that.order, conn.ID())

	return role, nil
}

func (that *Room) leave(connID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.members[connID]; !ok {
		return false
	}

	delete(that.members, connID)
	for i, id := range that.order {
		if id == connID {
			that.order = append(that.order[:i], that.order[i+1:]...)
			break
		}
	}

	return true
}

func (that *Room) role(connID string) (Role, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	m, ok := that.members[connID]
	if !ok {
		return "", false
	}

	return m.role, true
}

// broadcast delivers event to every member except the ones in skip. Delivery
// is best-effort: a member whose Send fails is skipped, the rest still get
// the event.
func (that *Room) broadcast(event Event, skip map[string]struct{}) {
	that.mu.RLock()
	recipients := make([]Connection, 0, len(that.order))
	for _, id := range that.order {
		if _, skipped := skip[id]; skipped {
			continue
		}
		recipients = append(recipients, that.members[id].conn)
	}
	that.mu.RUnlock()

	for _, conn := range recipients {
		_ = conn.Send(event)
	}
}

func (that *Room) size() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.members)
}

// Manager owns all rooms, keyed by session identifier.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	enforceCapacity bool
}

// NewManager creates a room manager. With enforceCapacity set, joining a
// session whose two player roles are taken fails with ErrRoomFull instead of
// granting an observer seat.
func NewManager(enforceCapacity bool) *Manager {
	return &Manager{
		rooms:           make(map[string]*Room),
		enforceCapacity: enforceCapacity,
	}
}

// Join adds conn to the session's room and returns its assigned role.
// Joining a room one is already in returns the original role.
func (that *Manager) Join(sessionID string, conn Connection) (Role, error) {
	room := that.room(sessionID, true)

	role, err := room.join(conn, that.enforceCapacity)
	if err != nil {
		return "", fmt.Errorf("session %s: %w", sessionID, err)
	}

	return role, nil
}

// Leave removes conn from the session's room. Unknown rooms and non-members
// are a no-op.
func (that *Manager) Leave(sessionID string, conn Connection) {
	if room := that.room(sessionID, false); room != nil {
		room.leave(conn.ID())
	}
}

// LeaveAll removes conn from every room it is a member of and returns the
// session identifiers it left.
func (that *Manager) LeaveAll(conn Connection) []string {
	that.mu.RLock()
	rooms := make(map[string]*Room, len(that.rooms))
	for id, room := range that.rooms {
		rooms[id] = room
	}
	that.mu.RUnlock()

	var left []string
	for sessionID, room := range rooms {
		if room.leave(conn.ID()) {
			left = append(left, sessionID)
		}
	}

	return left
}

// Role reports conn's role in the session's room.
func (that *Manager) Role(sessionID string, conn Connection) (Role, bool) {
	room := that.room(sessionID, false)
	if room == nil {
		return "", false
	}

	return room.role(conn.ID())
}

// Broadcast sends event to every member of the session's room.
func (that *Manager) Broadcast(sessionID string, event Event) {
	if room := that.room(sessionID, false); room != nil {
		room.broadcast(event, nil)
	}
}

// BroadcastExcept sends event to every member except conn.
func (that *Manager) BroadcastExcept(sessionID string, conn Connection, event Event) {
	if room := that.room(sessionID, false); room != nil {
		room.broadcast(event, map[string]struct{}{conn.ID(): {}})
	}
}

// Size reports the current member count of the session's room.
func (that *Manager) Size(sessionID string) int {
	room := that.room(sessionID, false)
	if room == nil {
		return 0
	}

	return room.size()
}

func (that *Manager) room(sessionID string, create bool) *Room {
	that.mu.RLock()
	existing, ok := that.rooms[sessionID]
	that.mu.RUnlock()

	if ok || !create {
		return existing
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if existing, ok = that.rooms[sessionID]; ok {
		return existing
	}

	newOne := newRoom()
	that.rooms[sessionID] = newOne

	return newOne
}

package session

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/castlefall/game/room"
	"github.com/wricardo/castlefall/game/wordlist"
)

var (
	ErrNotMapped    = errors.New("connection is not in a room")
	ErrSpectating   = errors.New("connection is spectating")
	ErrStaleName    = errors.New("name is no longer a member of the room")
	ErrRoomNotFound = errors.New("room not found")
)

// Status is what a connection is currently bound to. An empty Name means
// the connection spectates.
type Status struct {
	Room string
	Name string
}

// Spectator reports whether the status has no player name
func (s Status) Spectator() bool {
	return s.Name == ""
}

// Manager is the session registry: it owns every room, creating them on
// first use, and maps each live connection to its room and identity.
type Manager struct {
	catalog  *wordlist.Catalog
	opts     room.Options
	rooms    map[string]*room.Room
	statuses map[room.ConnID]Status
	mu       sync.RWMutex
}

// NewManager creates a registry whose rooms draw from catalog
func NewManager(catalog *wordlist.Catalog, opts room.Options) *Manager {
	return &Manager{
		catalog:  catalog,
		opts:     opts,
		rooms:    make(map[string]*room.Room),
		statuses: make(map[room.ConnID]Status),
	}
}

// Room returns the named room, creating it if needed
func (m *Manager) Room(name string) *room.Room {
	m.mu.RLock()
	r, exists := m.rooms[name]
	m.mu.RUnlock()
	if exists {
		return r
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if r, exists := m.rooms[name]; exists {
		return r
	}

	r = room.New(name, m.catalog, m.opts)
	m.rooms[name] = r
	log.Info().Str("room", name).Msg("room created")
	return r
}

// Get returns an existing room without creating it
func (m *Manager) Get(name string) (*room.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, exists := m.rooms[name]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// List returns all rooms sorted by name
func (m *Manager) List() []*room.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*room.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })

	return result
}

// Count returns the number of rooms
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Connections returns the number of mapped connections
func (m *Manager) Connections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.statuses)
}

// Bind maps conn to a room and name, returning the mapping it replaced
func (m *Manager) Bind(conn room.ConnID, roomName, name string) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, had := m.statuses[conn]
	m.statuses[conn] = Status{Room: roomName, Name: name}
	return prev, had
}

// Unbind removes the mapping of conn
func (m *Manager) Unbind(conn room.ConnID) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.statuses[conn]
	if ok {
		delete(m.statuses, conn)
	}
	return status, ok
}

// Drop removes the mapping of conn only if it still points at want. It is
// used when a connection loses its name to another one.
func (m *Manager) Drop(conn room.ConnID, want Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status, ok := m.statuses[conn]; ok && status == want {
		delete(m.statuses, conn)
		return true
	}
	return false
}

// Lookup returns the mapping of conn
func (m *Manager) Lookup(conn room.ConnID) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[conn]
	return status, ok
}

// Resolve returns the room and player name conn is playing as. It fails
// when conn is unmapped, spectating, or no longer owns its name.
func (m *Manager) Resolve(conn room.ConnID) (*room.Room, string, error) {
	status, ok := m.Lookup(conn)
	if !ok {
		return nil, "", ErrNotMapped
	}
	if status.Spectator() {
		return nil, "", ErrSpectating
	}

	r := m.Room(status.Room)
	if owner, ok := r.ConnOf(status.Name); !ok || owner != conn {
		return nil, "", ErrStaleName
	}
	return r, status.Name, nil
}

package room

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/castlefall/game/wordlist"
)

type member struct {
	status Status
	conn   ConnID
}

// Room is the authoritative state of one game. All methods are safe for
// concurrent use; every mutation happens under the room mutex.
type Room struct {
	name    string
	catalog *wordlist.Catalog
	opts    Options

	mu             sync.Mutex
	players        map[string]*member
	spectators     map[ConnID]struct{}
	round          int
	starter        string
	lastStart      time.Time
	playersInRound []string
	assigned       map[string]string
	currentWords   []string
	pools          map[string]*wordlist.Pool
	autokick       bool
	rand           *rand.Rand
}

// New creates an empty room. Zero fields of opts fall back to defaults,
// except Autokick which is taken as given.
func New(name string, catalog *wordlist.Catalog, opts Options) *Room {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.DefaultWordCount <= 0 {
		opts.DefaultWordCount = DefaultWordCount
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Room{
		name:       name,
		catalog:    catalog,
		opts:       opts,
		players:    make(map[string]*member),
		spectators: make(map[ConnID]struct{}),
		assigned:   make(map[string]string),
		pools:      make(map[string]*wordlist.Pool),
		autokick:   opts.Autokick,
		rand:       opts.Rand,
	}
}

// Name returns the room name
func (r *Room) Name() string {
	return r.name
}

// Join binds name to conn, or adds conn as a spectator when name is empty.
// A live previous holder of the name is reported in the result so the
// caller can notify it; the room forgets it either way.
func (r *Room) Join(name string, conn ConnID) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res JoinResult
	if name == "" {
		r.spectators[conn] = struct{}{}
		res.Spectator = true
	} else {
		if m, ok := r.players[name]; ok {
			switch {
			case m.status == StatusDisconnected:
				res.Rebound = true
			case m.conn != conn:
				res.Evicted = m.conn
			}
		}
		r.players[name] = &member{status: StatusActive, conn: conn}
	}

	res.Snapshot = r.snapshotLocked()
	res.View = r.viewLocked(Recipient{Name: name, Conn: conn})
	return res
}

// Disconnect drops conn from the room. A named player is removed when
// autokick is on and kept as disconnected otherwise.
func (r *Room) Disconnect(conn ConnID) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.spectators[conn]; ok {
		delete(r.spectators, conn)
		return LeaveResult{Spectator: true}, nil
	}

	for name, m := range r.players {
		if m.status != StatusActive || m.conn != conn {
			continue
		}
		if r.autokick {
			delete(r.players, name)
			return LeaveResult{Name: name}, nil
		}
		m.status = StatusDisconnected
		m.conn = ""
		return LeaveResult{Name: name, Retained: true}, nil
	}

	return LeaveResult{}, ErrNotFound
}

// Kick removes the named player regardless of autokick
func (r *Room) Kick(name string) (KickResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.players[name]
	if !ok {
		return KickResult{}, ErrNotFound
	}
	delete(r.players, name)

	res := KickResult{Name: name}
	if m.status == StatusActive {
		res.Conn = m.conn
	}
	return res, nil
}

// SetAutokick changes the policy for later disconnects
func (r *Room) SetAutokick(value bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autokick = value
}

// Autokick returns the current policy
func (r *Room) Autokick() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.autokick
}

// HasPlayer reports whether name is a member, connected or not
func (r *Room) HasPlayer(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[name]
	return ok
}

// ConnOf returns the live connection of a player
func (r *Room) ConnOf(name string) (ConnID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.players[name]
	if !ok || m.status != StatusActive {
		return "", false
	}
	return m.conn, true
}

// WordFor returns the secret word assigned to name in the current round
func (r *Room) WordFor(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.assigned[name]
	return w, ok
}

// PlayerNames returns every member name in lexicographic order
func (r *Room) PlayerNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

// Players returns every member with its presence, sorted by name
func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playersLocked()
}

// SpectatorCount returns the number of spectators
func (r *Room) SpectatorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spectators)
}

// Clients returns every live connection: connected players, then spectators
func (r *Room) Clients() []ConnID {
	r.mu.Lock()
	defer r.mu.Unlock()

	recipients := r.recipientsLocked()
	conns := make([]ConnID, len(recipients))
	for i, rc := range recipients {
		conns[i] = rc.Conn
	}
	return conns
}

// Recipients pairs every live connection with its player name
func (r *Room) Recipients() []Recipient {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recipientsLocked()
}

// ShuffledWords returns the current round's words in a fresh random order
func (r *Room) ShuffledWords() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shuffledWordsLocked()
}

// Snapshot returns a consistent read of the room
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) namesLocked() []string {
	names := make([]string, 0, len(r.players))
	for name := range r.players {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Room) playersLocked() []Player {
	names := r.namesLocked()
	players := make([]Player, len(names))
	for i, name := range names {
		players[i] = Player{Name: name, Status: r.players[name].status}
	}
	return players
}

func (r *Room) recipientsLocked() []Recipient {
	recipients := make([]Recipient, 0, len(r.players)+len(r.spectators))
	for _, name := range r.namesLocked() {
		if m := r.players[name]; m.status == StatusActive {
			recipients = append(recipients, Recipient{Name: name, Conn: m.conn})
		}
	}

	spectators := make([]ConnID, 0, len(r.spectators))
	for conn := range r.spectators {
		spectators = append(spectators, conn)
	}
	sort.Slice(spectators, func(i, j int) bool { return spectators[i] < spectators[j] })
	for _, conn := range spectators {
		recipients = append(recipients, Recipient{Conn: conn})
	}

	return recipients
}

func (r *Room) shuffledWordsLocked() []string {
	words := make([]string, len(r.currentWords))
	copy(words, r.currentWords)
	r.rand.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
	return words
}

func (r *Room) viewLocked(rc Recipient) View {
	v := View{Recipient: rc, Words: r.shuffledWordsLocked()}
	if rc.Name != "" {
		v.Word = r.assigned[rc.Name]
	}
	return v
}

func (r *Room) snapshotLocked() Snapshot {
	inRound := make([]string, len(r.playersInRound))
	copy(inRound, r.playersInRound)

	return Snapshot{
		Name:           r.name,
		Round:          r.round,
		Starter:        r.starter,
		Players:        r.playersLocked(),
		Spectators:     len(r.spectators),
		PlayersInRound: inRound,
		WordCount:      len(r.currentWords),
		Autokick:       r.autokick,
		LastStart:      r.lastStart,
	}
}

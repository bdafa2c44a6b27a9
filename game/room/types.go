package room

import (
	"errors"
	"math/rand/v2"
	"time"
)

// ConnID is the opaque identifier of one live client connection
type ConnID string

// Status is the presence of a named player
type Status string

const (
	StatusActive       Status = "active"
	StatusDisconnected Status = "disconnected"
)

const (
	DefaultCooldown  = 2 * time.Second
	DefaultWordCount = 18

	// minWords is the smallest draw that still yields two team words
	minWords = 2
)

var (
	ErrOutOfSync       = errors.New("round out of sync")
	ErrTooSoon         = errors.New("too soon")
	ErrInvalidWordlist = errors.New("invalid wordlist")
	ErrNotFound        = errors.New("not found")
)

// Options holds the tunables of a room
type Options struct {
	// Cooldown is the minimum time between two successful round starts
	Cooldown time.Duration

	// DefaultWordCount is used when a start request names no usable count
	DefaultWordCount int

	// Autokick is the initial autokick policy
	Autokick bool

	Now func() time.Time

	// Rand drives team and word selection. It is only used under the room
	// lock, so it must not be shared between rooms.
	Rand *rand.Rand
}

// DefaultOptions returns the options a room gets when nothing is configured
func DefaultOptions() Options {
	return Options{
		Cooldown:         DefaultCooldown,
		DefaultWordCount: DefaultWordCount,
		Autokick:         true,
	}
}

// Player is a member of a room as shown in player lists
type Player struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// Recipient pairs a live connection with the player name it belongs to.
// Name is empty for spectators.
type Recipient struct {
	Name string
	Conn ConnID
}

// Spectator reports whether the recipient has no name
func (r Recipient) Spectator() bool {
	return r.Name == ""
}

// View is what one recipient is allowed to see of the current round
type View struct {
	Recipient
	Words []string
	Word  string
}

// StartRequest carries the client fields of a round start. Round and
// WordCount are loosely typed because clients send numbers or strings.
type StartRequest struct {
	Round     any
	Wordlist  string
	WordCount any
}

// Assignment is one player's secret word in a finished round
type Assignment struct {
	Name string `json:"name"`
	Word string `json:"word"`
}

// Spoiler reveals the assignments of a round once it has been superseded
type Spoiler struct {
	Number  int          `json:"number"`
	Players []Assignment `json:"players"`
}

// RoundResult is the state captured when a round starts
type RoundResult struct {
	Round          int
	Starter        string
	Wordlist       string
	PlayersInRound []string
	Words          []string
	Assigned       map[string]string
	Views          []View

	// Previous is set when a round was superseded by this one
	Previous *Spoiler
}

// JoinResult describes the effect of a join
type JoinResult struct {
	Spectator bool

	// Evicted is the connection that held the name before, if it was live
	Evicted ConnID

	// Rebound is true when a disconnected member reclaimed the name
	Rebound bool

	Snapshot Snapshot
	View     View
}

// LeaveResult describes the effect of a disconnect
type LeaveResult struct {
	Name      string
	Spectator bool

	// Retained is true when the player stays as a disconnected member
	Retained bool
}

// KickResult describes the effect of a kick
type KickResult struct {
	Name string

	// Conn is the target's live connection, empty if it was disconnected
	Conn ConnID
}

// Snapshot is a consistent read of a room
type Snapshot struct {
	Name           string
	Round          int
	Starter        string
	Players        []Player
	Spectators     int
	PlayersInRound []string
	WordCount      int
	Autokick       bool
	LastStart      time.Time
}

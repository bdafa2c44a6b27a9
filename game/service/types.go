package service

import (
	"encoding/json"
	"time"

	"github.com/wricardo/castlefall/game/room"
	"github.com/wricardo/castlefall/game/wordlist"
)

// Error notices sent to clients
const (
	NoticeNameTaken = "Disconnected: your name was taken."
	NoticeKicked    = "Disconnected: you were kicked."
	startFailPrefix = "Start fail: "
)

// inbound start payload; numbers may arrive as strings
type startPayload struct {
	Round     any `json:"round"`
	Wordlist  any `json:"wordlist"`
	Wordcount any `json:"wordcount"`
}

// PlayersMessage announces the player list of a room
type PlayersMessage struct {
	Players []room.Player `json:"players"`
}

// SpectatorsMessage announces the spectator count of a room
type SpectatorsMessage struct {
	Spectators int `json:"spectators"`
}

// PresenceMessage is broadcast when a connection leaves
type PresenceMessage struct {
	Players    []room.Player `json:"players"`
	Spectators int           `json:"spectators"`
}

// SnapshotMessage is the full room state sent to a connection that joins
type SnapshotMessage struct {
	Players        []room.Player   `json:"players"`
	Spectators     int             `json:"spectators"`
	Room           string          `json:"room"`
	Round          int             `json:"round"`
	Starter        *string         `json:"starter"`
	PlayersInRound []string        `json:"playersinround"`
	Words          []string        `json:"words"`
	Word           *string         `json:"word"`
	Wordlists      []WordlistEntry `json:"wordlists"`
	Version        string          `json:"version"`
	Autokick       AutokickPayload `json:"autokick"`
}

// RoundMessage is sent to every connection of a room when a round starts
type RoundMessage struct {
	Round          int      `json:"round"`
	Starter        *string  `json:"starter"`
	PlayersInRound []string `json:"playersinround"`
	Words          []string `json:"words"`
	Word           *string  `json:"word"`
}

// SpoilerMessage reveals the assignments of the round just superseded
type SpoilerMessage struct {
	Spoiler *room.Spoiler `json:"spoiler"`
}

type ChatPayload struct {
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

type ChatMessage struct {
	Chat ChatPayload `json:"chat"`
}

type TimerPayload struct {
	Name string `json:"name"`
}

type TimerMessage struct {
	Timer TimerPayload `json:"timer"`
}

// AutokickPayload carries the policy and who set it; Name is null in join
// snapshots
type AutokickPayload struct {
	Name  *string `json:"name"`
	Value bool    `json:"value"`
}

type AutokickMessage struct {
	Autokick AutokickPayload `json:"autokick"`
}

// ErrorMessage is a notice for a single connection
type ErrorMessage struct {
	Error string `json:"error"`
}

// WordlistEntry encodes as a [name, size] pair
type WordlistEntry wordlist.Info

// MarshalJSON implements json.Marshaler
func (e WordlistEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Name, e.Size})
}

// RoomSummary is the listing view of a room
type RoomSummary struct {
	Name       string `json:"name"`
	Players    int    `json:"players"`
	Spectators int    `json:"spectators"`
	Round      int    `json:"round"`
	Autokick   bool   `json:"autokick"`
}

// RoomDetail describes a room without revealing any secret word
type RoomDetail struct {
	Name           string        `json:"name"`
	Players        []room.Player `json:"players"`
	Spectators     int           `json:"spectators"`
	Round          int           `json:"round"`
	Starter        string        `json:"starter,omitempty"`
	PlayersInRound []string      `json:"players_in_round"`
	WordCount      int           `json:"word_count"`
	Autokick       bool          `json:"autokick"`
	LastStartedAt  *time.Time    `json:"last_started_at,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Package room implements the state machine of a single game room.
//
// A Room tracks its named players (active or disconnected), its
// spectators, the round counter and the secret word assignment of the
// current round. Each room owns one wordlist.Pool per wordlist it has
// drawn from, so words are not repeated until a pool is exhausted.
//
// Rooms perform no I/O. Every operation returns plain values (snapshots,
// per-recipient views, evicted connections) and the caller decides what to
// send to whom.
//
// Round start:
//
//	res, err := r.StartRound("alice", room.StartRequest{Round: 0, Wordlist: "basic"})
//	switch {
//	case errors.Is(err, room.ErrOutOfSync):
//	case errors.Is(err, room.ErrTooSoon):
//	case errors.Is(err, room.ErrInvalidWordlist):
//	}
package room

// Package session maps live connections to the rooms they play in.
//
// Manager owns every room. Rooms are created lazily the first time their
// name is referenced and live for the lifetime of the process. Each live
// connection has at most one Status: the room it joined and the player
// name it joined as, or no name for spectators.
//
// Resolve is used by every action other than join. It reports why a
// connection cannot act (ErrNotMapped, ErrSpectating, ErrStaleName) so
// callers can log the race and carry on.
//
// Usage:
//
//	manager := session.NewManager(catalog, room.DefaultOptions())
//	manager.Bind(conn, "#lobby", "alice")
//	r, name, err := manager.Resolve(conn)
package session

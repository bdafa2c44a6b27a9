// Package service connects the transport to the rooms.
//
// Service decodes each inbound client message, resolves the sender
// through the session registry and applies the message to its room. The
// results are encoded and fanned out by a Broadcaster, which writes to a
// Gateway (the websocket hub in production, a recorder in tests).
//
// Inbound fields are handled in a fixed order when several are present in
// one message: name/room, start, kick, chat, broadcastTimer, autokick.
//
// Only failed round starts are reported back to the client. Every other
// inconsistency (an unmapped connection, a spectator trying to act, a kick
// aimed at a name that left) is logged and otherwise ignored.
//
// Service also implements GameService, the read-only view used by the
// REST API.
package service

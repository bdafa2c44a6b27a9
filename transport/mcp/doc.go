// Package mcp exposes a read-only Model Context Protocol server for Castlefall.
//
// The Client proxies every tool call to the REST API, so it can run inside
// the game server (POST /mcp) or as a separate stdio process pointed at a
// running server.
//
// MCP Tools:
//   - list_rooms: rooms with player counts and current round
//   - get_room: one room's players, spectators and round state
//   - list_wordlists: available word lists and their sizes
//   - game_rules: static rules text
//
// Secret words never leave the game server through this package.
package mcp

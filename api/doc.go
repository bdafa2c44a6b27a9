// Package api exposes the game server over HTTP.
//
// Endpoints:
//
//   - GET /api/health - liveness and number of open connections
//   - GET /api/rooms - summary of every room
//   - GET /api/rooms/{name} - players, round and settings of one room
//   - GET /api/wordlists - available wordlists with their sizes
//   - GET /ws - websocket upgrade; all gameplay happens here
//   - GET / - static web client
//
// Room names usually start with '#', which must be escaped as %23 in the
// URL. Secret words are never exposed over HTTP.
//
// Errors are returned as JSON with an appropriate status code:
//
//	{"error": "room not found: #lobby"}
package api

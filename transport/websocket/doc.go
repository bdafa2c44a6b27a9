// Package websocket is the connection gateway of the game server.
//
// The Hub upgrades HTTP requests, gives every connection an opaque UUID
// and runs a read and a write pump per connection. Inbound text frames
// are passed whole to a service.MessageHandler; when the read pump ends,
// the handler's Disconnect is called exactly once for that connection.
//
// Outbound delivery goes through Deliver, which never blocks: a client
// whose send buffer is full is closed. Every queued payload is written as
// its own frame so message boundaries are preserved.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.Options{AllowedOrigins: []string{"*"}})
//	svc := service.NewGameService(sessions, catalog, hub, service.Options{})
//	hub.SetHandler(svc)
//	go hub.Run(ctx)
//	http.HandleFunc("/ws", hub.ServeWS)
package websocket

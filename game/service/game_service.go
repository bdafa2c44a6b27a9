package service

import (
	"context"

	"github.com/wricardo/castlefall/game/room"
	"github.com/wricardo/castlefall/game/wordlist"
)

// GameService is the read side of the server, used by the REST API
type GameService interface {
	ListRooms(ctx context.Context) ([]*RoomSummary, error)
	GetRoom(ctx context.Context, name string) (*RoomDetail, error)
	ListWordlists(ctx context.Context) ([]wordlist.Info, error)
}

// MessageHandler consumes connection events from the transport. Disconnect
// is called exactly once per connection.
type MessageHandler interface {
	HandleMessage(conn room.ConnID, payload []byte)
	Disconnect(conn room.ConnID)
}

// Gateway delivers encoded messages to live connections. Deliver must not
// block; it reports whether the message was queued.
type Gateway interface {
	Deliver(conn room.ConnID, payload []byte) bool
}

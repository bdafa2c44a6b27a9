package service

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/castlefall/game/room"
)

// Broadcaster encodes messages and hands them to the gateway
type Broadcaster struct {
	gateway Gateway
}

// NewBroadcaster creates a broadcaster on top of a gateway
func NewBroadcaster(gateway Gateway) *Broadcaster {
	return &Broadcaster{gateway: gateway}
}

// Broadcast encodes msg once and delivers the same bytes to every live
// connection of the room, spectators included.
func (b *Broadcaster) Broadcast(r *room.Room, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("room", r.Name()).Msg("failed to marshal broadcast message")
		return
	}

	b.BroadcastTo(r.Clients(), data)
}

// BroadcastTo delivers an encoded payload to each connection
func (b *Broadcaster) BroadcastTo(conns []room.ConnID, data []byte) {
	for _, conn := range conns {
		if !b.gateway.Deliver(conn, data) {
			log.Warn().Str("conn", string(conn)).Msg("dropped message for connection")
		}
	}
}

// Send delivers msg to exactly one connection
func (b *Broadcaster) Send(conn room.ConnID, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("conn", string(conn)).Msg("failed to marshal message")
		return
	}

	if !b.gateway.Deliver(conn, data) {
		log.Warn().Str("conn", string(conn)).Msg("dropped message for connection")
	}
}

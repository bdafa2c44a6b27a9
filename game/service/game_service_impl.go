package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/wricardo/castlefall/game/room"
	"github.com/wricardo/castlefall/game/session"
	"github.com/wricardo/castlefall/game/wordlist"
)

// DefaultVersion is the protocol version announced to clients
const DefaultVersion = "v0.6"

// Options configures a Service
type Options struct {
	Version string
}

// Service routes inbound client messages to rooms and fans the results
// out through the broadcaster. It implements both GameService and
// MessageHandler.
type Service struct {
	sessions *session.Manager
	catalog  *wordlist.Catalog
	out      *Broadcaster
	version  string
}

var (
	_ GameService    = (*Service)(nil)
	_ MessageHandler = (*Service)(nil)
)

// NewGameService creates the service
func NewGameService(sessions *session.Manager, catalog *wordlist.Catalog, gateway Gateway, opts Options) *Service {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}

	return &Service{
		sessions: sessions,
		catalog:  catalog,
		out:      NewBroadcaster(gateway),
		version:  opts.Version,
	}
}

// HandleMessage decodes one client message and acts on each recognised
// field in protocol order: join, start, kick, chat, timer, autokick.
func (s *Service) HandleMessage(conn room.ConnID, payload []byte) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		log.Warn().Err(err).Str("conn", string(conn)).Msg("ignoring malformed message")
		return
	}

	logger := log.With().Str("conn", string(conn)).Logger()
	logger.Debug().RawJSON("message", payload).Msg("received message")

	if raw, ok := fields["name"]; ok {
		s.join(conn, raw, fields["room"])
	}
	if raw, ok := fields["start"]; ok {
		s.startRound(conn, raw)
	}
	if raw, ok := fields["kick"]; ok {
		s.kick(conn, raw)
	}
	if raw, ok := fields["chat"]; ok {
		s.chat(conn, raw)
	}
	if _, ok := fields["broadcastTimer"]; ok {
		s.timer(conn)
	}
	if raw, ok := fields["autokick"]; ok {
		s.autokick(conn, raw)
	}
}

// Disconnect forgets conn and updates the room it was in
func (s *Service) Disconnect(conn room.ConnID) {
	status, ok := s.sessions.Unbind(conn)
	if !ok {
		log.Debug().Str("conn", string(conn)).Msg("disconnect of unmapped connection")
		return
	}

	s.leave(conn, status)
}

// leave removes conn from the room of status and tells the others
func (s *Service) leave(conn room.ConnID, status session.Status) {
	r, err := s.sessions.Get(status.Room)
	if err != nil {
		log.Warn().Err(err).Str("room", status.Room).Msg("leave from unknown room")
		return
	}

	res, err := r.Disconnect(conn)
	if err != nil {
		log.Warn().Err(err).Str("conn", string(conn)).Str("room", status.Room).Str("name", status.Name).
			Msg("connection was no longer in its room")
	} else {
		log.Info().Str("room", status.Room).Str("name", res.Name).Bool("retained", res.Retained).
			Bool("spectator", res.Spectator).Msg("left room")
	}

	s.out.Broadcast(r, PresenceMessage{
		Players:    r.Players(),
		Spectators: r.SpectatorCount(),
	})
}

func (s *Service) join(conn room.ConnID, rawName, rawRoom json.RawMessage) {
	name, err := decodeOptionalString(rawName)
	if err != nil {
		log.Warn().Err(err).Str("conn", string(conn)).Msg("ignoring join with invalid name")
		return
	}
	roomName, err := decodeOptionalString(rawRoom)
	if err != nil {
		log.Warn().Err(err).Str("conn", string(conn)).Msg("ignoring join with invalid room")
		return
	}

	want := session.Status{Room: roomName, Name: name}
	if prev, ok := s.sessions.Lookup(conn); ok && prev != want {
		s.sessions.Unbind(conn)
		s.leave(conn, prev)
	}

	r := s.sessions.Room(roomName)
	res := r.Join(name, conn)
	s.sessions.Bind(conn, roomName, name)

	if res.Evicted != "" {
		s.out.Send(res.Evicted, ErrorMessage{Error: NoticeNameTaken})
		s.sessions.Drop(res.Evicted, want)
		log.Info().Str("room", roomName).Str("name", name).Str("evicted", string(res.Evicted)).
			Msg("name taken over by new connection")
	}

	if res.Spectator {
		log.Info().Str("room", roomName).Str("conn", string(conn)).Msg("spectator joined")
		s.out.Broadcast(r, SpectatorsMessage{Spectators: res.Snapshot.Spectators})
	} else {
		log.Info().Str("room", roomName).Str("name", name).Bool("rebound", res.Rebound).Msg("player joined")
		s.out.Broadcast(r, PlayersMessage{Players: res.Snapshot.Players})
	}

	s.out.Send(conn, s.snapshotMessage(res))
}

func (s *Service) snapshotMessage(res room.JoinResult) SnapshotMessage {
	infos := s.catalog.Infos()
	lists := make([]WordlistEntry, len(infos))
	for i, info := range infos {
		lists[i] = WordlistEntry(info)
	}

	snap := res.Snapshot
	return SnapshotMessage{
		Players:        snap.Players,
		Spectators:     snap.Spectators,
		Room:           snap.Name,
		Round:          snap.Round,
		Starter:        optional(snap.Starter),
		PlayersInRound: snap.PlayersInRound,
		Words:          res.View.Words,
		Word:           optional(res.View.Word),
		Wordlists:      lists,
		Version:        s.version,
		Autokick:       AutokickPayload{Value: snap.Autokick},
	}
}

func (s *Service) startRound(conn room.ConnID, raw json.RawMessage) {
	r, name, ok := s.resolve(conn, "start")
	if !ok {
		return
	}

	var p startPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Debug().Err(err).Str("conn", string(conn)).Msg("start payload is not an object")
	}

	res, err := r.StartRound(name, room.StartRequest{
		Round:     p.Round,
		Wordlist:  cast.ToString(p.Wordlist),
		WordCount: p.Wordcount,
	})
	if err != nil {
		log.Info().Err(err).Str("room", r.Name()).Str("name", name).Msg("round start rejected")
		s.out.Send(conn, ErrorMessage{Error: startFailPrefix + err.Error()})
		return
	}

	log.Info().Str("room", r.Name()).Str("name", name).Int("round", res.Round).
		Str("wordlist", res.Wordlist).Int("words", len(res.Words)).Int("players", len(res.PlayersInRound)).
		Msg("round started")

	if res.Previous != nil {
		s.out.Broadcast(r, SpoilerMessage{Spoiler: res.Previous})
	}

	for _, v := range res.Views {
		s.out.Send(v.Conn, RoundMessage{
			Round:          res.Round,
			Starter:        optional(res.Starter),
			PlayersInRound: res.PlayersInRound,
			Words:          v.Words,
			Word:           optional(v.Word),
		})
	}
}

func (s *Service) kick(conn room.ConnID, raw json.RawMessage) {
	r, name, ok := s.resolve(conn, "kick")
	if !ok {
		return
	}

	var target string
	if err := json.Unmarshal(raw, &target); err != nil {
		log.Warn().Err(err).Str("conn", string(conn)).Msg("ignoring kick with invalid target")
		return
	}

	res, err := r.Kick(target)
	switch {
	case errors.Is(err, room.ErrNotFound):
		log.Warn().Str("room", r.Name()).Str("name", name).Str("target", target).Msg("kick of non-member")
	case err != nil:
		log.Error().Err(err).Str("room", r.Name()).Msg("kick failed")
	default:
		log.Info().Str("room", r.Name()).Str("name", name).Str("target", target).Msg("player kicked")
		if res.Conn != "" {
			s.out.Send(res.Conn, ErrorMessage{Error: NoticeKicked})
			s.sessions.Drop(res.Conn, session.Status{Room: r.Name(), Name: target})
		}
	}

	s.out.Broadcast(r, PlayersMessage{Players: r.Players()})
}

func (s *Service) chat(conn room.ConnID, raw json.RawMessage) {
	r, name, ok := s.resolve(conn, "chat")
	if !ok {
		return
	}

	msg, err := decodeText(raw)
	if err != nil {
		log.Warn().Err(err).Str("conn", string(conn)).Msg("ignoring invalid chat message")
		return
	}

	s.out.Broadcast(r, ChatMessage{Chat: ChatPayload{Name: name, Msg: msg}})
}

func (s *Service) timer(conn room.ConnID) {
	r, name, ok := s.resolve(conn, "broadcastTimer")
	if !ok {
		return
	}

	log.Debug().Str("room", r.Name()).Str("name", name).Msg("timer started")
	s.out.Broadcast(r, TimerMessage{Timer: TimerPayload{Name: name}})
}

func (s *Service) autokick(conn room.ConnID, raw json.RawMessage) {
	r, name, ok := s.resolve(conn, "autokick")
	if !ok {
		return
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn().Err(err).Str("conn", string(conn)).Msg("ignoring invalid autokick value")
		return
	}
	value, err := cast.ToBoolE(v)
	if err != nil {
		log.Warn().Err(err).Str("conn", string(conn)).Msg("ignoring invalid autokick value")
		return
	}

	r.SetAutokick(value)
	log.Info().Str("room", r.Name()).Str("name", name).Bool("autokick", value).Msg("autokick changed")
	s.out.Broadcast(r, AutokickMessage{Autokick: AutokickPayload{Name: &name, Value: value}})
}

// resolve finds the room and player name conn acts as, logging why not
func (s *Service) resolve(conn room.ConnID, action string) (*room.Room, string, bool) {
	r, name, err := s.sessions.Resolve(conn)
	if err != nil {
		log.Warn().Err(err).Str("conn", string(conn)).Str("action", action).Msg("ignoring action")
		return nil, "", false
	}
	return r, name, true
}

// ListRooms returns a summary of every room
func (s *Service) ListRooms(ctx context.Context) ([]*RoomSummary, error) {
	rooms := s.sessions.List()
	result := make([]*RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		snap := r.Snapshot()
		result = append(result, &RoomSummary{
			Name:       snap.Name,
			Players:    len(snap.Players),
			Spectators: snap.Spectators,
			Round:      snap.Round,
			Autokick:   snap.Autokick,
		})
	}
	return result, nil
}

// GetRoom describes one existing room
func (s *Service) GetRoom(ctx context.Context, name string) (*RoomDetail, error) {
	r, err := s.sessions.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}

	snap := r.Snapshot()
	detail := &RoomDetail{
		Name:           snap.Name,
		Players:        snap.Players,
		Spectators:     snap.Spectators,
		Round:          snap.Round,
		Starter:        snap.Starter,
		PlayersInRound: snap.PlayersInRound,
		WordCount:      snap.WordCount,
		Autokick:       snap.Autokick,
	}
	if !snap.LastStart.IsZero() {
		t := snap.LastStart
		detail.LastStartedAt = &t
	}
	return detail, nil
}

// ListWordlists returns every wordlist with its size
func (s *Service) ListWordlists(ctx context.Context) ([]wordlist.Info, error) {
	return s.catalog.Infos(), nil
}

// decodeOptionalString accepts a JSON string or null; a missing value
// decodes to the empty string
func decodeOptionalString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return *s, nil
}

// decodeText turns any JSON scalar into text
func decodeText(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	return cast.ToStringE(v)
}

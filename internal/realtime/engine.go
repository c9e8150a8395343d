package realtime

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/havenchat/haven-server/internal/proto"
	"github.com/havenchat/haven-server/internal/store"
)

// Store is the slice of the durable store the engine consumes.
type Store interface {
	ChannelFinder
	PresenceStore
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
	InsertChannelMessage(ctx context.Context, msg *store.ChannelMessage) (int64, error)
	RecentChannelMessages(ctx context.Context, channelID string, limit int) ([]*store.ChannelMessage, error)
	UpdateUserStatus(ctx context.Context, username, status string) error
}

// Engine owns the live registries and runs one session loop per connection.
type Engine struct {
	lobby    *Lobby
	dir      *Directory
	presence *Presence
	store    Store
	log      *zerolog.Logger

	historyLimit int
}

// NewEngine wires the registries, directory and presence broadcaster.
func NewEngine(st Store, seeds []SeedRoom, historyLimit int, logger *zerolog.Logger) *Engine {
	lobby := NewLobby()
	dir := NewDirectory(st, seeds, logger)
	return &Engine{
		lobby:        lobby,
		dir:          dir,
		presence:     NewPresence(lobby, dir, st, logger),
		store:        st,
		log:          logger,
		historyLimit: historyLimit,
	}
}

// Lobby exposes the lobby registry.
func (e *Engine) Lobby() *Lobby { return e.lobby }

// Directory exposes the room directory.
func (e *Engine) Directory() *Directory { return e.dir }

// Presence exposes the presence broadcaster so topology changes made over
// HTTP (channel create/rename/delete) can re-trigger the snapshot.
func (e *Engine) Presence() *Presence { return e.presence }

// RunLobbySession serves one lobby connection: register (evicting any
// previous connection for the identity), publish, then answer ping and
// status_update frames until the connection fails or closes.
func (e *Engine) RunLobbySession(ctx context.Context, identity string, conn Conn, src FrameSource) {
	e.lobby.Register(identity, conn)
	e.log.Info().Str("user", identity).Int("total", e.lobby.Len()).Msg("lobby connected")

	e.presence.Publish(ctx)

	defer func() {
		// teardown sends go to surviving peers; do not inherit cancellation
		ctx := context.WithoutCancel(ctx)
		e.lobby.Unregister(identity, conn)
		e.log.Info().Str("user", identity).Msg("lobby disconnected")
		e.presence.Publish(ctx)
	}()

	for {
		data, err := src.Next(ctx)
		if err != nil {
			return
		}

		env, err := proto.ParseEnvelope(data)
		if err != nil {
			e.log.Warn().Err(err).Str("user", identity).Msg("lobby: malformed frame skipped")
			continue
		}

		switch env.Type {
		case proto.TypePing:
			var ping proto.Ping
			if err := env.Decode(&ping); err != nil {
				e.log.Warn().Err(err).Str("user", identity).Msg("lobby: bad ping skipped")
				continue
			}
			if err := conn.SendJSON(ctx, proto.Pong{Type: proto.TypePong, Timestamp: ping.Timestamp}); err != nil {
				return
			}

		case proto.TypeStatusUpdate:
			var upd proto.StatusUpdate
			if err := env.Decode(&upd); err != nil {
				e.log.Warn().Err(err).Str("user", identity).Msg("lobby: bad status_update skipped")
				continue
			}
			if !store.ValidStatus(upd.Status) {
				continue
			}
			if err := e.store.UpdateUserStatus(ctx, identity, upd.Status); err != nil {
				e.log.Error().Err(err).Str("user", identity).Msg("lobby: status update failed")
				continue
			}
			e.presence.Publish(ctx)

		default:
			e.log.Debug().Str("user", identity).Str("frame", env.Type).Msg("lobby: frame ignored")
		}
	}
}

// RunRoomSession serves one room connection: resolve the room (refusing
// unknown ids), admit the member with ghost cleanup, publish, push the
// join directives and history, then relay frames until disconnect.
func (e *Engine) RunRoomSession(ctx context.Context, roomID, identity string, conn Conn, src FrameSource) error {
	room, err := e.dir.Resolve(ctx, roomID)
	if err != nil {
		return err
	}

	room.Join(identity, conn)
	e.log.Info().Str("user", identity).Str("room", room.Name).Msg("room connected")

	e.presence.Publish(ctx)
	room.PublishRoster(ctx)

	// the newest arrival always offers first
	if room.MemberCount() > 1 {
		if err := conn.SendJSON(ctx, proto.System{Type: proto.TypeSystem, Action: proto.ActionPleaseOffer}); err != nil {
			e.log.Warn().Err(err).Str("user", identity).Msg("room: please_offer send failed")
		}
	}

	e.sendHistory(ctx, room, conn)

	defer func() {
		ctx := context.WithoutCancel(ctx)
		room.Leave(conn)
		e.log.Info().Str("user", identity).Str("room", room.Name).Msg("room disconnected")
		e.presence.Publish(ctx)
		room.PublishRoster(ctx)
	}()

	for {
		data, err := src.Next(ctx)
		if err != nil {
			return nil
		}

		env, err := proto.ParseEnvelope(data)
		if err != nil {
			e.log.Warn().Err(err).Str("user", identity).Str("room", room.ID).Msg("room: malformed frame skipped")
			continue
		}

		switch env.Type {
		case proto.TypeChat:
			e.handleChat(ctx, room, identity, env)

		case proto.TypeTyping:
			room.Broadcast(ctx, env.Raw)

		case proto.TypeUserState:
			var st proto.UserState
			if err := env.Decode(&st); err != nil {
				e.log.Warn().Err(err).Str("user", identity).Msg("room: bad user_state skipped")
				continue
			}
			// never relay the raw frame: peers only see the roster view
			room.SetFlags(conn, st)
			room.PublishRoster(ctx)

		default:
			// offer/answer/ICE and anything unrecognized: verbatim to peers
			room.RelayExcept(ctx, conn, env.Raw)
		}
	}
}

// handleChat persists the message and broadcasts the original frame to the
// whole room, sender included. A failed save is logged and the frame is
// still delivered: the live fan-out is prioritized over durability.
func (e *Engine) handleChat(ctx context.Context, room *Room, identity string, env proto.Envelope) {
	var chat proto.Chat
	if err := env.Decode(&chat); err != nil {
		e.log.Warn().Err(err).Str("user", identity).Str("room", room.ID).Msg("room: bad chat skipped")
		return
	}

	sender := chat.Sender
	if sender == "" {
		sender = identity
	}

	user, err := e.store.GetUserByUsername(ctx, sender)
	if err != nil {
		e.log.Error().Err(err).Str("sender", sender).Str("room", room.ID).Msg("room: chat sender lookup failed")
	} else {
		msg := &store.ChannelMessage{
			ChannelID:      room.ID,
			SenderID:       user.ID,
			Text:           chat.Text,
			AttachmentURL:  chat.AttachmentURL,
			AttachmentType: chat.AttachmentType,
			AttachmentName: chat.AttachmentName,
			ReplyToID:      chat.ReplyToID,
		}
		if _, err := e.store.InsertChannelMessage(ctx, msg); err != nil {
			e.log.Error().Err(err).Str("sender", sender).Str("room", room.ID).Msg("room: chat save failed")
		}
	}

	room.Broadcast(ctx, env.Raw)
}

// sendHistory pushes the bounded recent-message window as one history
// frame before the live loop starts.
func (e *Engine) sendHistory(ctx context.Context, room *Room, conn Conn) {
	msgs, err := e.store.RecentChannelMessages(ctx, room.ID, e.historyLimit)
	if err != nil {
		e.log.Error().Err(err).Str("room", room.ID).Msg("room: history fetch failed")
		return
	}
	if len(msgs) == 0 {
		return
	}

	frame := proto.History{Type: proto.TypeHistory, Messages: make([]proto.HistoryMessage, 0, len(msgs))}
	for _, m := range msgs {
		frame.Messages = append(frame.Messages, proto.HistoryMessage{Sender: m.Sender, Text: m.Text})
	}
	if err := conn.SendJSON(ctx, frame); err != nil {
		e.log.Warn().Err(err).Str("room", room.ID).Msg("room: history send failed")
	}
}

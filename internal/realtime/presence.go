package realtime

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/havenchat/haven-server/internal/proto"
	"github.com/havenchat/haven-server/internal/store"
)

// PresenceStore is the durable-store slice the broadcaster needs.
type PresenceStore interface {
	FindUsersByUsernames(ctx context.Context, usernames []string) ([]store.UserPresence, error)
}

// Presence computes the global "who is online and where" snapshot and
// pushes it to every lobby connection.
type Presence struct {
	lobby *Lobby
	dir   *Directory
	store PresenceStore
	log   *zerolog.Logger
}

// NewPresence creates the presence broadcaster.
func NewPresence(lobby *Lobby, dir *Directory, st PresenceStore, logger *zerolog.Logger) *Presence {
	return &Presence{lobby: lobby, dir: dir, store: st, log: logger}
}

// Publish builds one immutable lobby_update snapshot and sends it to every
// registered lobby connection. Connections whose send fails are removed
// after the fan-out pass, never during it. Safe to call redundantly.
func (p *Presence) Publish(ctx context.Context) {
	identities := p.lobby.Identities()

	var online []proto.OnlineUser
	if len(identities) > 0 {
		users, err := p.store.FindUsersByUsernames(ctx, identities)
		if err != nil {
			// degrade to the count-and-rooms view rather than skipping the publish
			p.log.Error().Err(err).Msg("presence: user lookup failed")
		}
		online = make([]proto.OnlineUser, 0, len(users))
		for _, u := range users {
			online = append(online, proto.OnlineUser{
				Username:    u.Username,
				Status:      u.Status,
				DisplayName: u.DisplayName,
				AvatarURL:   u.AvatarURL,
				AvatarColor: u.AvatarColor,
				Tag:         u.Tag,
			})
		}
	}

	roomDetails := make(map[string][]string)
	for _, room := range p.dir.Rooms() {
		roomDetails[room.ID] = room.Identities()
	}

	frame := proto.LobbyUpdate{
		Type:        proto.TypeLobbyUpdate,
		TotalOnline: len(identities),
		OnlineUsers: online,
		RoomDetails: roomDetails,
	}

	type failure struct {
		identity string
		conn     Conn
	}
	var failed []failure
	for identity, conn := range p.lobby.snapshot() {
		if err := conn.SendJSON(ctx, frame); err != nil {
			failed = append(failed, failure{identity, conn})
		}
	}
	for _, f := range failed {
		p.lobby.Unregister(f.identity, f.conn)
		p.log.Debug().Str("user", f.identity).Msg("presence: dropped unreachable lobby connection")
	}
}

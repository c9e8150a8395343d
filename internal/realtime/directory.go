package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/havenchat/haven-server/internal/store"
)

// ErrRoomNotFound is returned when a room id matches neither a live room
// nor a durable channel. The caller must refuse the connection.
var ErrRoomNotFound = errors.New("room not found")

// ChannelFinder is the durable-store lookup the directory needs.
type ChannelFinder interface {
	GetChannelByID(ctx context.Context, id string) (*store.Channel, error)
}

// SeedRoom is a well-known room registered at startup.
type SeedRoom struct {
	ID   string
	Name string
}

// Directory maps room ids to live Rooms, creating them lazily from durable
// channel records. Rooms are never evicted here; channel deletion calls
// Forget explicitly.
type Directory struct {
	channels ChannelFinder
	log      *zerolog.Logger

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewDirectory creates a directory with the given seed rooms pre-inserted.
func NewDirectory(channels ChannelFinder, seeds []SeedRoom, logger *zerolog.Logger) *Directory {
	d := &Directory{
		channels: channels,
		log:      logger,
		rooms:    make(map[string]*Room, len(seeds)),
	}
	for _, s := range seeds {
		room := NewRoom(s.ID, s.Name)
		room.seed = true
		d.rooms[s.ID] = room
	}
	return d
}

// Resolve returns the live Room for roomID, materializing it from the
// durable channel store on first use. Returns ErrRoomNotFound when the id
// matches neither.
func (d *Directory) Resolve(ctx context.Context, roomID string) (*Room, error) {
	d.mu.Lock()
	if room, ok := d.rooms[roomID]; ok {
		d.mu.Unlock()
		return room, nil
	}
	d.mu.Unlock()

	channel, err := d.channels.GetChannelByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	// another resolver may have won the race
	if room, ok := d.rooms[roomID]; ok {
		return room, nil
	}
	room := NewRoom(channel.ID, channel.Name)
	d.rooms[roomID] = room
	d.log.Info().Str("room", roomID).Str("name", channel.Name).Msg("room created from channel")
	return room, nil
}

// Forget drops a lazily created room so it does not outlive its channel.
// Seed rooms are kept.
func (d *Directory) Forget(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok := d.rooms[roomID]; ok && !room.seed {
		delete(d.rooms, roomID)
	}
}

// Rooms returns all live rooms for the presence projection.
func (d *Directory) Rooms() []*Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, r)
	}
	return out
}

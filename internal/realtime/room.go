package realtime

import (
	"context"
	"sync"

	"github.com/havenchat/haven-server/internal/proto"
)

// Member is one identity's live participation record inside a Room.
// Flags are guarded by the owning room's mutex.
type Member struct {
	conn     Conn
	identity string

	muted         bool
	deafened      bool
	screenSharing bool
}

// Room is a fan-out group backed by a seed definition or a durable channel.
type Room struct {
	ID   string
	Name string
	seed bool

	mu      sync.Mutex
	members []*Member
}

// NewRoom creates an empty room.
func NewRoom(id, name string) *Room {
	return &Room{ID: id, Name: name}
}

// Join admits a new member with default flags. An existing member with the
// same identity is a ghost session: its connection is closed (best-effort)
// and the entry removed before the new one is appended.
func (r *Room) Join(identity string, conn Conn) *Member {
	var ghost Conn

	r.mu.Lock()
	for i, m := range r.members {
		if m.identity == identity {
			ghost = m.conn
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	member := &Member{conn: conn, identity: identity}
	r.members = append(r.members, member)
	r.mu.Unlock()

	if ghost != nil && ghost != conn {
		_ = ghost.Close()
	}
	return member
}

// Leave removes the member whose connection matches. Idempotent: racing
// disconnect paths may both call it.
func (r *Room) Leave(conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members {
		if m.conn == conn {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

// SetFlags updates the flags of the member owning conn.
func (r *Room) SetFlags(conn Conn, st proto.UserState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.conn == conn {
			m.muted = st.IsMuted
			m.deafened = st.IsDeafened
			m.screenSharing = st.IsScreenSharing
			return
		}
	}
}

// MemberCount reports the current number of members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Identities lists member identities for the presence projection.
func (r *Room) Identities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m.identity)
	}
	return out
}

// Roster builds the user_list view of the room.
func (r *Room) Roster() []proto.RosterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]proto.RosterEntry, 0, len(r.members))
	for _, m := range r.members {
		users = append(users, proto.RosterEntry{
			UUID:       m.identity,
			IsMuted:    m.muted,
			IsDeafened: m.deafened,
		})
	}
	return users
}

// PublishRoster sends the user_list frame to every member. Members whose
// send fails are removed after the fan-out pass.
func (r *Room) PublishRoster(ctx context.Context) {
	frame := proto.UserList{Type: proto.TypeUserList, Users: r.Roster()}

	var failed []Conn
	for _, m := range r.snapshot() {
		if err := m.conn.SendJSON(ctx, frame); err != nil {
			failed = append(failed, m.conn)
		}
	}
	r.prune(failed)
}

// Broadcast sends raw bytes to every member, including the sender.
func (r *Room) Broadcast(ctx context.Context, data []byte) {
	var failed []Conn
	for _, m := range r.snapshot() {
		if err := m.conn.SendRaw(ctx, data); err != nil {
			failed = append(failed, m.conn)
		}
	}
	r.prune(failed)
}

// RelayExcept sends raw bytes to every member except the sender's
// connection (point-to-point signalling fan-out).
func (r *Room) RelayExcept(ctx context.Context, sender Conn, data []byte) {
	var failed []Conn
	for _, m := range r.snapshot() {
		if m.conn == sender {
			continue
		}
		if err := m.conn.SendRaw(ctx, data); err != nil {
			failed = append(failed, m.conn)
		}
	}
	r.prune(failed)
}

func (r *Room) snapshot() []*Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Member, len(r.members))
	copy(out, r.members)
	return out
}

func (r *Room) prune(failed []Conn) {
	for _, c := range failed {
		r.Leave(c)
	}
}

package realtime

import (
	"context"
	"testing"

	"github.com/havenchat/haven-server/internal/proto"
)

func lastLobbyUpdate(t *testing.T, c *fakeConn) proto.LobbyUpdate {
	t.Helper()
	frames := c.jsonFrames()
	for i := len(frames) - 1; i >= 0; i-- {
		if upd, ok := frames[i].(proto.LobbyUpdate); ok {
			return upd
		}
	}
	t.Fatal("no lobby_update frame received")
	return proto.LobbyUpdate{}
}

func TestPresenceSnapshotCompleteness(t *testing.T) {
	st := newFakeStore()
	engine := testEngine(st, SeedRoom{ID: "lounge-1", Name: "General Lounge"})

	users := []string{"alice", "bob", "carol"}
	conns := make(map[string]*fakeConn, len(users))
	for _, name := range users {
		st.addUser(name)
		conns[name] = &fakeConn{}
		engine.Lobby().Register(name, conns[name])
	}

	room, err := engine.Directory().Resolve(context.Background(), "lounge-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	room.Join("alice", &fakeConn{})

	engine.Presence().Publish(context.Background())

	for name, conn := range conns {
		upd := lastLobbyUpdate(t, conn)
		if upd.TotalOnline != len(users) {
			t.Fatalf("%s: total_online = %d, want %d", name, upd.TotalOnline, len(users))
		}
		if len(upd.OnlineUsers) != len(users) {
			t.Fatalf("%s: online_users length = %d, want %d", name, len(upd.OnlineUsers), len(users))
		}
		members, ok := upd.RoomDetails["lounge-1"]
		if !ok {
			t.Fatalf("%s: room_details missing occupied room", name)
		}
		if len(members) != 1 || members[0] != "alice" {
			t.Fatalf("%s: unexpected room members %v", name, members)
		}
	}
}

func TestPresencePrunesUnreachableConnections(t *testing.T) {
	st := newFakeStore()
	st.addUser("alice")
	st.addUser("bob")
	engine := testEngine(st)

	healthy := &fakeConn{}
	dead := &fakeConn{}
	engine.Lobby().Register("alice", healthy)
	engine.Lobby().Register("bob", dead)
	dead.setFail(true)

	engine.Presence().Publish(context.Background())

	if got := engine.Lobby().Len(); got != 1 {
		t.Fatalf("unreachable connection should be removed, lobby size = %d", got)
	}
	if _, ok := engine.Lobby().Get("alice"); !ok {
		t.Fatal("healthy connection should remain registered")
	}

	// redundant publish stays safe
	engine.Presence().Publish(context.Background())
	upd := lastLobbyUpdate(t, healthy)
	if upd.TotalOnline != 1 {
		t.Fatalf("total_online after prune = %d, want 1", upd.TotalOnline)
	}
}

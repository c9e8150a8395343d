package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/havenchat/haven-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *SQLiteStore, username string) *store.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), username, "hash", "")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := seedUser(t, s, "alice")
	if created.DisplayName != "alice" {
		t.Errorf("empty display name should default to username, got %q", created.DisplayName)
	}
	if created.Status != store.StatusOnline {
		t.Errorf("new user status = %q, want online", created.Status)
	}
	if len(created.Tag) != 4 {
		t.Errorf("tag should be four digits, got %q", created.Tag)
	}

	byName, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != created.ID {
		t.Errorf("id mismatch: %d vs %d", byName.ID, created.ID)
	}

	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// duplicate username violates the unique constraint
	if _, err := s.CreateUser(ctx, "alice", "hash2", ""); err == nil {
		t.Error("duplicate username should fail")
	}
}

func TestUpdateUserStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")

	if err := s.UpdateUserStatus(ctx, "alice", store.StatusDND); err != nil {
		t.Fatalf("update status: %v", err)
	}
	u, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Status != store.StatusDND {
		t.Errorf("status = %q, want dnd", u.Status)
	}

	if err := s.UpdateUserStatus(ctx, "alice", "sleeping"); err == nil {
		t.Error("invalid status should be refused")
	}
}

func TestFindUsersByUsernames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		seedUser(t, s, name)
	}

	presence, err := s.FindUsersByUsernames(ctx, []string{"alice", "carol", "ghost"})
	if err != nil {
		t.Fatalf("find by usernames: %v", err)
	}
	if len(presence) != 2 {
		t.Fatalf("expected 2 presence rows, got %d", len(presence))
	}

	// empty input short-circuits without a query
	none, err := s.FindUsersByUsernames(ctx, nil)
	if err != nil || none != nil {
		t.Fatalf("empty input: %v, %v", none, err)
	}
}

func TestSearchUsersPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "alex", "alan", "bob"} {
		seedUser(t, s, name)
	}

	tests := []struct {
		query    string
		expected []string
	}{
		{"al", []string{"alan", "alex", "alice"}},
		{"bob", []string{"bob"}},
		{"z", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := s.SearchUsers(ctx, tt.query)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(results) != len(tt.expected) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.expected))
			}
			for i, u := range results {
				if u.Username != tt.expected[i] {
					t.Errorf("result[%d] = %s, want %s", i, u.Username, tt.expected[i])
				}
			}
		})
	}
}

func TestGuildLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "alice")
	joiner := seedUser(t, s, "bob")

	guild, err := s.CreateGuild(ctx, "Haven HQ", owner.ID)
	if err != nil {
		t.Fatalf("create guild: %v", err)
	}
	if guild.InviteCode == "" {
		t.Fatal("guild should get an invite code")
	}

	// the owner is a member from the start
	member, err := s.IsGuildMember(ctx, guild.ID, owner.ID)
	if err != nil || !member {
		t.Fatalf("owner membership: %v, %v", member, err)
	}

	byCode, err := s.GetGuildByInviteCode(ctx, guild.InviteCode)
	if err != nil || byCode.ID != guild.ID {
		t.Fatalf("get by invite code: %+v, %v", byCode, err)
	}

	if err := s.AddGuildMember(ctx, guild.ID, joiner.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	// joining twice is a no-op
	if err := s.AddGuildMember(ctx, guild.ID, joiner.ID); err != nil {
		t.Fatalf("re-add member: %v", err)
	}

	members, err := s.ListGuildMembers(ctx, guild.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	guilds, err := s.ListGuilds(ctx, joiner.ID)
	if err != nil {
		t.Fatalf("list guilds: %v", err)
	}
	if len(guilds) != 1 || guilds[0].ID != guild.ID {
		t.Fatalf("unexpected guild list: %+v", guilds)
	}
}

func TestChannelLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "alice")
	guild, err := s.CreateGuild(ctx, "Haven HQ", owner.ID)
	if err != nil {
		t.Fatalf("create guild: %v", err)
	}

	ch, err := s.CreateChannel(ctx, guild.ID, "general", "Text", store.ChannelTypeText)
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}

	if err := s.RenameChannel(ctx, ch.ID, "general-chat"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	renamed, err := s.GetChannelByID(ctx, ch.ID)
	if err != nil || renamed.Name != "general-chat" {
		t.Fatalf("rename not persisted: %+v, %v", renamed, err)
	}

	if err := s.RenameChannel(ctx, "no-such-id", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("rename missing channel: %v, want ErrNotFound", err)
	}

	// delete removes the channel and its messages
	if _, err := s.InsertChannelMessage(ctx, &store.ChannelMessage{
		ChannelID: ch.ID, SenderID: owner.ID, Text: "hello",
	}); err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if err := s.DeleteChannel(ctx, ch.ID); err != nil {
		t.Fatalf("delete channel: %v", err)
	}
	if _, err := s.GetChannelByID(ctx, ch.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted channel still resolves: %v", err)
	}
	msgs, err := s.RecentChannelMessages(ctx, ch.ID, 10)
	if err != nil {
		t.Fatalf("recent messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages should be gone with the channel, got %d", len(msgs))
	}
}

func TestRecentChannelMessagesWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sender := seedUser(t, s, "alice")
	guild, err := s.CreateGuild(ctx, "Haven HQ", sender.ID)
	if err != nil {
		t.Fatalf("create guild: %v", err)
	}
	ch, err := s.CreateChannel(ctx, guild.ID, "general", "", store.ChannelTypeText)
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}

	for i := 0; i < 60; i++ {
		if _, err := s.InsertChannelMessage(ctx, &store.ChannelMessage{
			ChannelID: ch.ID, SenderID: sender.ID, Text: fmt.Sprintf("msg-%d", i),
		}); err != nil {
			t.Fatalf("insert message %d: %v", i, err)
		}
	}

	msgs, err := s.RecentChannelMessages(ctx, ch.ID, 50)
	if err != nil {
		t.Fatalf("recent messages: %v", err)
	}
	if len(msgs) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(msgs))
	}
	// the window is the newest 50, oldest first
	if msgs[0].Text != "msg-10" || msgs[49].Text != "msg-59" {
		t.Fatalf("unexpected window: first=%s last=%s", msgs[0].Text, msgs[49].Text)
	}
	if msgs[0].Sender != "alice" {
		t.Errorf("sender username should be joined, got %q", msgs[0].Sender)
	}

	// paging backwards before the window start
	before := msgs[0].ID
	page, err := s.ListChannelMessages(ctx, ch.ID, 5, &before)
	if err != nil {
		t.Fatalf("page messages: %v", err)
	}
	if len(page) != 5 || page[0].Text != "msg-5" || page[4].Text != "msg-9" {
		t.Fatalf("unexpected page: %+v", pageTexts(page))
	}
}

func pageTexts(msgs []*store.ChannelMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

func TestFriendStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	req, err := s.CreateFriendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	// the same pair can't ask twice
	if _, err := s.CreateFriendRequest(ctx, alice.ID, bob.ID); err == nil {
		t.Error("duplicate request should violate the unique constraint")
	}

	incoming, err := s.ListFriendRequests(ctx, bob.ID)
	if err != nil || len(incoming) != 1 {
		t.Fatalf("incoming requests: %+v, %v", incoming, err)
	}

	if err := s.AddFriend(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("add friend: %v", err)
	}
	if err := s.DeleteFriendRequest(ctx, req.ID); err != nil {
		t.Fatalf("delete request: %v", err)
	}

	for _, pair := range [][2]int64{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		ok, err := s.AreFriends(ctx, pair[0], pair[1])
		if err != nil || !ok {
			t.Fatalf("friendship (%d,%d): %v, %v", pair[0], pair[1], ok, err)
		}
	}

	list, err := s.ListFriends(ctx, alice.ID)
	if err != nil || len(list) != 1 || list[0].Username != "bob" {
		t.Fatalf("friend list: %+v, %v", list, err)
	}

	if err := s.RemoveFriend(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("remove friend: %v", err)
	}
	ok, err := s.AreFriends(ctx, alice.ID, bob.ID)
	if err != nil || ok {
		t.Fatalf("friendship should be gone: %v, %v", ok, err)
	}
}

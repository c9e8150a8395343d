package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/havenchat/haven-server/internal/store"
)

var errConnDown = errors.New("connection down")

// fakeConn records everything sent to it and can be flipped into a failing
// state to simulate an unreachable peer.
type fakeConn struct {
	mu     sync.Mutex
	json   []any
	raw    [][]byte
	closed bool
	fail   bool
}

func (c *fakeConn) SendJSON(_ context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail || c.closed {
		return errConnDown
	}
	c.json = append(c.json, v)
	return nil
}

func (c *fakeConn) SendRaw(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail || c.closed {
		return errConnDown
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.raw = append(c.raw, buf)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) setFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

func (c *fakeConn) jsonFrames() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.json))
	copy(out, c.json)
	return out
}

func (c *fakeConn) rawFrames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.raw))
	for _, b := range c.raw {
		out = append(out, string(b))
	}
	return out
}

// fakeSource feeds frames to a session loop from a channel.
type fakeSource struct {
	ch        chan []byte
	closeOnce sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan []byte, 16)}
}

func (s *fakeSource) push(frame string) {
	s.ch <- []byte(frame)
}

func (s *fakeSource) close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

func (s *fakeSource) Next(ctx context.Context) ([]byte, error) {
	select {
	case data, ok := <-s.ch:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fakeStore is an in-memory realtime.Store.
type fakeStore struct {
	mu        sync.Mutex
	channels  map[string]*store.Channel
	users     map[string]*store.User
	messages  []*store.ChannelMessage
	statuses  map[string]string
	insertErr error
	lookupErr error
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		channels: make(map[string]*store.Channel),
		users:    make(map[string]*store.User),
		statuses: make(map[string]string),
	}
}

func (s *fakeStore) addChannel(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[id] = &store.Channel{ID: id, Name: name, Type: store.ChannelTypeVoice}
}

func (s *fakeStore) addUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.users[username] = &store.User{
		ID:          s.nextID,
		Username:    username,
		DisplayName: username,
		Status:      store.StatusOnline,
		Tag:         "0001",
	}
}

func (s *fakeStore) GetChannelByID(_ context.Context, id string) (*store.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return ch, nil
}

func (s *fakeStore) FindUsersByUsernames(_ context.Context, usernames []string) ([]store.UserPresence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	var out []store.UserPresence
	for _, name := range usernames {
		if u, ok := s.users[name]; ok {
			out = append(out, store.UserPresence{
				Username:    u.Username,
				Status:      u.Status,
				DisplayName: u.DisplayName,
				Tag:         u.Tag,
			})
		}
	}
	return out, nil
}

func (s *fakeStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) InsertChannelMessage(_ context.Context, msg *store.ChannelMessage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.nextID++
	stored := *msg
	stored.ID = s.nextID
	if u := s.userByID(msg.SenderID); u != nil {
		stored.Sender = u.Username
	}
	s.messages = append(s.messages, &stored)
	return stored.ID, nil
}

func (s *fakeStore) userByID(id int64) *store.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *fakeStore) RecentChannelMessages(_ context.Context, channelID string, limit int) ([]*store.ChannelMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*store.ChannelMessage
	for _, m := range s.messages {
		if m.ChannelID == channelID {
			all = append(all, m)
		}
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (s *fakeStore) UpdateUserStatus(_ context.Context, username, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[username] = status
	if u, ok := s.users[username]; ok {
		u.Status = status
	}
	return nil
}

func (s *fakeStore) status(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[username]
}

func (s *fakeStore) messageCount(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.ChannelID == channelID {
			n++
		}
	}
	return n
}

func (s *fakeStore) seedMessages(channelID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < count; i++ {
		s.nextID++
		s.messages = append(s.messages, &store.ChannelMessage{
			ID:        s.nextID,
			ChannelID: channelID,
			Sender:    "seed",
			Text:      fmt.Sprintf("msg-%d", i),
		})
	}
}

func testEngine(st *fakeStore, seeds ...SeedRoom) *Engine {
	logger := zerolog.Nop()
	return NewEngine(st, seeds, 50, &logger)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

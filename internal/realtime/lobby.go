package realtime

import "sync"

// Lobby tracks at most one live connection per user identity.
type Lobby struct {
	mu    sync.Mutex
	conns map[string]Conn
}

// NewLobby creates an empty lobby registry.
func NewLobby() *Lobby {
	return &Lobby{conns: make(map[string]Conn)}
}

// Register binds identity to conn. An existing connection for the same
// identity is closed first (best-effort) and replaced.
func (l *Lobby) Register(identity string, conn Conn) {
	l.mu.Lock()
	old, ok := l.conns[identity]
	l.conns[identity] = conn
	l.mu.Unlock()

	if ok && old != conn {
		_ = old.Close()
	}
}

// Unregister removes the mapping only if conn is still the registered
// connection for identity, so a late unregister cannot clobber a newer
// registration.
func (l *Lobby) Unregister(identity string, conn Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conns[identity] == conn {
		delete(l.conns, identity)
	}
}

// Identities returns the currently connected identities.
func (l *Lobby) Identities() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.conns))
	for id := range l.conns {
		out = append(out, id)
	}
	return out
}

// Get returns the live connection for identity, if any.
func (l *Lobby) Get(identity string) (Conn, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.conns[identity]
	return c, ok
}

// snapshot copies the registry so fan-out can iterate without holding the
// lock across sends.
func (l *Lobby) snapshot() map[string]Conn {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]Conn, len(l.conns))
	for id, c := range l.conns {
		out[id] = c
	}
	return out
}

// Len reports the number of registered connections.
func (l *Lobby) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

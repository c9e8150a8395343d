package realtime

import "context"

// Conn is the minimal duplex surface the engine needs from a transport
// connection. Implementations must be safe for concurrent sends: broadcasts
// run on other sessions' goroutines.
type Conn interface {
	// SendJSON marshals v and writes it as one text frame.
	SendJSON(ctx context.Context, v any) error
	// SendRaw writes data verbatim as one text frame.
	SendRaw(ctx context.Context, data []byte) error
	// Close tears the connection down. Best-effort; used for eviction.
	Close() error
}

// FrameSource yields inbound frames from a connection. Next blocks until a
// frame arrives or the connection fails; the returned error is terminal.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
}

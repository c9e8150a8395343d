package http

import (
	"context"
	"errors"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/havenchat/haven-server/internal/realtime"
)

// WSHandlers upgrades HTTP connections and hands them to the realtime
// engine's session loops.
type WSHandlers struct {
	engine *realtime.Engine
	log    *zerolog.Logger
}

// NewWSHandlers builds the WebSocket handlers.
func NewWSHandlers(engine *realtime.Engine, logger *zerolog.Logger) *WSHandlers {
	return &WSHandlers{engine: engine, log: logger}
}

// wsConn adapts *websocket.Conn to the engine's Conn and FrameSource.
// coder/websocket serializes concurrent writers internally, so broadcasts
// from other sessions' goroutines are safe.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) SendJSON(ctx context.Context, v any) error {
	return wsjson.Write(ctx, c.conn, v)
}

func (c *wsConn) SendRaw(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusPolicyViolation, "superseded by a newer connection")
}

func (c *wsConn) Next(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

// Lobby serves one lobby WebSocket connection.
// GET /ws/lobby/:username
func (h *WSHandlers) Lobby(c *gin.Context) {
	username := c.Param("username")

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Str("user", username).Msg("ws accept error")
		return
	}

	wc := &wsConn{conn: conn}
	h.engine.RunLobbySession(c.Request.Context(), username, wc, wc)

	conn.Close(websocket.StatusNormalClosure, "")
}

// Room serves one room WebSocket connection. Unknown room ids are refused
// after the upgrade with a policy-violation close.
// GET /ws/room/:roomId/:userId
func (h *WSHandlers) Room(c *gin.Context) {
	roomID := c.Param("roomId")
	userID := c.Param("userId")

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("ws accept error")
		return
	}

	wc := &wsConn{conn: conn}
	if err := h.engine.RunRoomSession(c.Request.Context(), roomID, userID, wc, wc); err != nil {
		if errors.Is(err, realtime.ErrRoomNotFound) {
			conn.Close(websocket.StatusPolicyViolation, "unknown room")
			return
		}
		h.log.Error().Err(err).Str("room", roomID).Str("user", userID).Msg("room session error")
		conn.Close(websocket.StatusInternalError, "internal error")
		return
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/havenchat/haven-server/internal/realtime"
	"github.com/havenchat/haven-server/internal/store"
)

// ChannelHandlers provides HTTP handlers for channel endpoints. Topology
// changes are pushed to connected clients: create and rename re-publish the
// lobby snapshot, delete additionally drops the live room.
type ChannelHandlers struct {
	store  store.Store
	engine *realtime.Engine
	log    *zerolog.Logger
}

// NewChannelHandlers creates a new channel handlers instance.
func NewChannelHandlers(st store.Store, engine *realtime.Engine, logger *zerolog.Logger) *ChannelHandlers {
	return &ChannelHandlers{
		store:  st,
		engine: engine,
		log:    logger,
	}
}

// ChannelResponse represents a channel in API responses.
type ChannelResponse struct {
	ID       string `json:"id"`
	GuildID  string `json:"guild_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

func channelToResponse(ch *store.Channel) ChannelResponse {
	return ChannelResponse{
		ID:       ch.ID,
		GuildID:  ch.GuildID,
		Name:     ch.Name,
		Category: ch.Category,
		Type:     string(ch.Type),
	}
}

// guildOwner loads a guild and answers the HTTP error itself when the
// caller is not its owner.
func (h *ChannelHandlers) guildOwner(c *gin.Context, guildID string, uid int64) bool {
	guild, err := h.store.GetGuildByID(c.Request.Context(), guildID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "guild not found"})
			return false
		}
		h.log.Error().Err(err).Str("guild_id", guildID).Msg("failed to load guild")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return false
	}
	if guild.OwnerID != uid {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the guild owner may manage channels"})
		return false
	}
	return true
}

// CreateChannelRequest represents the channel creation request body.
type CreateChannelRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=64"`
	Category string `json:"category"`
	Type     string `json:"type" binding:"required,oneof=text voice"`
}

// CreateChannel creates a channel under a guild. Owner only.
// POST /api/guilds/:guildId/channels
func (h *ChannelHandlers) CreateChannel(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	guildID := c.Param("guildId")
	if !h.guildOwner(c, guildID, uid) {
		return
	}

	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create channel request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ch, err := h.store.CreateChannel(c.Request.Context(), guildID, req.Name, req.Category, store.ChannelType(req.Type))
	if err != nil {
		h.log.Error().Err(err).Str("guild_id", guildID).Msg("failed to create channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.engine.Presence().Publish(c.Request.Context())

	h.log.Info().Str("channel_id", ch.ID).Str("guild_id", guildID).Msg("channel created")
	c.JSON(http.StatusCreated, channelToResponse(ch))
}

// ListChannels lists channels of a guild the caller belongs to.
// GET /api/guilds/:guildId/channels
func (h *ChannelHandlers) ListChannels(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	guildID := c.Param("guildId")
	member, err := h.store.IsGuildMember(c.Request.Context(), guildID, uid)
	if err != nil {
		h.log.Error().Err(err).Str("guild_id", guildID).Msg("failed to check membership")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a member of this guild"})
		return
	}

	channels, err := h.store.ListChannels(c.Request.Context(), guildID)
	if err != nil {
		h.log.Error().Err(err).Str("guild_id", guildID).Msg("failed to list channels")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		response = append(response, channelToResponse(ch))
	}
	c.JSON(http.StatusOK, response)
}

// RenameChannelRequest represents the rename request body.
type RenameChannelRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// RenameChannel updates a channel's display name. Owner only.
// PATCH /api/channels/:channelId
func (h *ChannelHandlers) RenameChannel(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	channelID := c.Param("channelId")
	ch, err := h.store.GetChannelByID(c.Request.Context(), channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found"})
			return
		}
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("failed to load channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !h.guildOwner(c, ch.GuildID, uid) {
		return
	}

	var req RenameChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid rename channel request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.RenameChannel(c.Request.Context(), channelID, req.Name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found"})
			return
		}
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("failed to rename channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.engine.Presence().Publish(c.Request.Context())

	h.log.Info().Str("channel_id", channelID).Str("name", req.Name).Msg("channel renamed")
	c.JSON(http.StatusOK, gin.H{"message": "channel renamed"})
}

// DeleteChannel removes a channel, its messages and its live room. Owner only.
// DELETE /api/channels/:channelId
func (h *ChannelHandlers) DeleteChannel(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	channelID := c.Param("channelId")
	ch, err := h.store.GetChannelByID(c.Request.Context(), channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found"})
			return
		}
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("failed to load channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !h.guildOwner(c, ch.GuildID, uid) {
		return
	}

	if err := h.store.DeleteChannel(c.Request.Context(), channelID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found"})
			return
		}
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("failed to delete channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// drop the live room so new joins stop resolving; current members are
	// disconnected as their sends fail
	h.engine.Directory().Forget(channelID)
	h.engine.Presence().Publish(c.Request.Context())

	h.log.Info().Str("channel_id", channelID).Msg("channel deleted")
	c.JSON(http.StatusOK, gin.H{"message": "channel deleted"})
}

// ListMessages pages backwards through a channel's message history.
// GET /api/channels/:channelId/messages?limit=50&before=<id>
func (h *ChannelHandlers) ListMessages(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	channelID := c.Param("channelId")
	ch, err := h.store.GetChannelByID(c.Request.Context(), channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found"})
			return
		}
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("failed to load channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	member, err := h.store.IsGuildMember(c.Request.Context(), ch.GuildID, uid)
	if err != nil {
		h.log.Error().Err(err).Str("guild_id", ch.GuildID).Msg("failed to check membership")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a member of this guild"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	var beforeID *int64
	if v := c.Query("before"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before id"})
			return
		}
		beforeID = &n
	}

	msgs, err := h.store.ListChannelMessages(c.Request.Context(), channelID, limit, beforeID)
	if err != nil {
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		response = append(response, messageToResponse(m))
	}
	c.JSON(http.StatusOK, response)
}

// MessageResponse represents a persisted chat message in API responses.
type MessageResponse struct {
	ID             int64  `json:"id"`
	ChannelID      string `json:"channel_id"`
	Sender         string `json:"sender"`
	Text           string `json:"text"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
	ReplyToID      *int64 `json:"reply_to_id,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func messageToResponse(m *store.ChannelMessage) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ChannelID:      m.ChannelID,
		Sender:         m.Sender,
		Text:           m.Text,
		AttachmentURL:  m.AttachmentURL,
		AttachmentType: m.AttachmentType,
		AttachmentName: m.AttachmentName,
		ReplyToID:      m.ReplyToID,
		CreatedAt:      m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/havenchat/haven-server/internal/store"
)

// GuildHandlers provides HTTP handlers for guild endpoints.
type GuildHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewGuildHandlers creates a new guild handlers instance.
func NewGuildHandlers(st store.Store, logger *zerolog.Logger) *GuildHandlers {
	return &GuildHandlers{
		store: st,
		log:   logger,
	}
}

// GuildResponse represents a guild in API responses.
type GuildResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OwnerID    int64  `json:"owner_id"`
	InviteCode string `json:"invite_code"`
}

func guildToResponse(g *store.Guild) GuildResponse {
	return GuildResponse{
		ID:         g.ID,
		Name:       g.Name,
		OwnerID:    g.OwnerID,
		InviteCode: g.InviteCode,
	}
}

// CreateGuildRequest represents the guild creation request body.
type CreateGuildRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// CreateGuild creates a guild with the caller as owner and first member.
// POST /api/guilds
func (h *GuildHandlers) CreateGuild(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateGuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create guild request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	guild, err := h.store.CreateGuild(c.Request.Context(), req.Name, uid)
	if err != nil {
		h.log.Error().Err(err).Int64("owner_id", uid).Msg("failed to create guild")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("guild_id", guild.ID).Int64("owner_id", uid).Msg("guild created")
	c.JSON(http.StatusCreated, guildToResponse(guild))
}

// ListGuilds lists guilds the caller belongs to.
// GET /api/guilds
func (h *GuildHandlers) ListGuilds(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	guilds, err := h.store.ListGuilds(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list guilds")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]GuildResponse, 0, len(guilds))
	for _, g := range guilds {
		response = append(response, guildToResponse(g))
	}
	c.JSON(http.StatusOK, response)
}

// GetGuild returns one guild the caller belongs to.
// GET /api/guilds/:guildId
func (h *GuildHandlers) GetGuild(c *gin.Context) {
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

	guild, err := h.store.GetGuildByID(c.Request.Context(), guildID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "guild not found"})
			return
		}
		h.log.Error().Err(err).Str("guild_id", guildID).Msg("failed to load guild")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, guildToResponse(guild))
}

// JoinGuildRequest represents the join-by-invite request body.
type JoinGuildRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

// JoinGuild adds the caller to the guild behind an invite code.
// POST /api/guilds/join
func (h *GuildHandlers) JoinGuild(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req JoinGuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid join guild request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	guild, err := h.store.GetGuildByInviteCode(c.Request.Context(), req.InviteCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "invalid invite code"})
			return
		}
		h.log.Error().Err(err).Msg("failed to resolve invite code")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.store.AddGuildMember(c.Request.Context(), guild.ID, uid); err != nil {
		h.log.Error().Err(err).Str("guild_id", guild.ID).Int64("user_id", uid).Msg("failed to join guild")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("guild_id", guild.ID).Int64("user_id", uid).Msg("guild joined")
	c.JSON(http.StatusOK, guildToResponse(guild))
}

// ListMembers lists users in a guild the caller belongs to.
// GET /api/guilds/:guildId/members
func (h *GuildHandlers) ListMembers(c *gin.Context) {
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

	users, err := h.store.ListGuildMembers(c.Request.Context(), guildID)
	if err != nil {
		h.log.Error().Err(err).Str("guild_id", guildID).Msg("failed to list members")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, userToResponse(u))
	}
	c.JSON(http.StatusOK, response)
}

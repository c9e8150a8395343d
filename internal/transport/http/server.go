package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/havenchat/haven-server/internal/auth"
	"github.com/havenchat/haven-server/internal/config"
	"github.com/havenchat/haven-server/internal/realtime"
	"github.com/havenchat/haven-server/internal/service/friends"
	"github.com/havenchat/haven-server/internal/store"
)

// Deps bundles everything the HTTP layer serves.
type Deps struct {
	Store       store.Store
	AuthService *auth.Service
	Friends     *friends.Service
	Engine      *realtime.Engine
}

// NewServer builds the HTTP server with all REST and WebSocket routes.
func NewServer(deps Deps, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the gin engine; separate from NewServer so tests can
// mount it on httptest.
func NewRouter(deps Deps, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	authHandlers := NewAuthHandlers(deps.AuthService, logger)
	userHandlers := NewUserHandlers(deps.Store, logger)
	guildHandlers := NewGuildHandlers(deps.Store, logger)
	channelHandlers := NewChannelHandlers(deps.Store, deps.Engine, logger)
	friendsHandlers := NewFriendsHandlers(deps.Friends, deps.Store, logger)
	wsHandlers := NewWSHandlers(deps.Engine, logger)

	api := router.Group("/api")
	api.POST("/register", authHandlers.Register)
	api.POST("/login", authHandlers.Login)

	authed := api.Group("")
	authed.Use(AuthMiddleware(deps.AuthService, logger))
	{
		authed.GET("/me", userHandlers.Me)
		authed.PUT("/me", userHandlers.UpdateProfile)
		authed.GET("/users/search", userHandlers.SearchUsers)

		authed.POST("/guilds", guildHandlers.CreateGuild)
		authed.GET("/guilds", guildHandlers.ListGuilds)
		authed.POST("/guilds/join", guildHandlers.JoinGuild)
		authed.GET("/guilds/:guildId", guildHandlers.GetGuild)
		authed.GET("/guilds/:guildId/members", guildHandlers.ListMembers)

		authed.POST("/guilds/:guildId/channels", channelHandlers.CreateChannel)
		authed.GET("/guilds/:guildId/channels", channelHandlers.ListChannels)
		authed.PATCH("/channels/:channelId", channelHandlers.RenameChannel)
		authed.DELETE("/channels/:channelId", channelHandlers.DeleteChannel)
		authed.GET("/channels/:channelId/messages", channelHandlers.ListMessages)

		authed.POST("/friends/requests", friendsHandlers.SendRequest)
		authed.GET("/friends", friendsHandlers.ListFriends)
		authed.GET("/friends/requests/incoming", friendsHandlers.ListPendingRequests)
		authed.POST("/friends/requests/:requestId/accept", friendsHandlers.AcceptRequest)
		authed.DELETE("/friends/requests/:requestId", friendsHandlers.RejectRequest)
		authed.DELETE("/friends/:userId", friendsHandlers.RemoveFriend)
	}

	ws := router.Group("/ws")
	ws.GET("/lobby/:username", wsHandlers.Lobby)
	ws.GET("/room/:roomId/:userId", wsHandlers.Room)

	return router
}

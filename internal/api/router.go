package api

import (
	a "go-cord/internal/auth"
	mw "go-cord/internal/middleware"
	m "go-cord/internal/message"
	"go-cord/internal/presence"
	"go-cord/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Router struct {
	ah      *AuthHandlers
	gh      *GuildHandlers
	mh      *MessageHandlers
	uh      *UserHandlers
	gateway *ws.Gateway
	am      *a.AuthMiddleware
	limiter *mw.IPRateLimiter
}

func NewRouter(db *gorm.DB, tracker *presence.Tracker, messages *m.MessageService, gateway *ws.Gateway) *Router {
	return &Router{
		ah:      NewAuthHandlers(db),
		gh:      NewGuildHandlers(db, tracker),
		mh:      NewMessageHandlers(messages),
		uh:      NewUserHandlers(db),
		gateway: gateway,
		am:      a.NewAuthMiddleware(),
		limiter: mw.NewIPRateLimiter(mw.AuthRateLimit),
	}
}

func (r *Router) RegisterRoutes(router *gin.Engine) {
	{
		unprotected := router.Group("/")
		unprotected.GET("/hc", HealthCheckHandler)
		unprotected.POST("/register", mw.RateLimit(r.limiter), r.ah.RegisterHandler)
		unprotected.POST("/login", mw.RateLimit(r.limiter), r.ah.LoginHandler)
		// The gate does its own token check; see Gateway.HandleWebSocket.
		unprotected.GET("/ws", r.gateway.HandleWebSocket)
	}

	{
		protected := router.Group("/api")
		protected.Use(r.am.RequireAuth())
		protected.POST("/logout", r.ah.LogoutHandler)
		protected.POST("/refresh_token", r.ah.RefreshTokenHandler)

		protected.POST("/servers", r.gh.CreateServerHandler)
		protected.POST("/servers/join", r.gh.JoinServerHandler)
		protected.GET("/servers/:id", r.gh.GetServerHandler)
		protected.GET("/servers/:id/members", r.gh.MembersHandler)
		protected.GET("/user/servers", r.gh.UserServersHandler)

		protected.GET("/servers/:id/channels/:channelId/messages", r.mh.ChannelMessagesHandler)

		protected.POST("/user/avatar", r.uh.UpdateAvatarHandler)
	}
}

func HealthCheckHandler(c *gin.Context) {
	c.String(200, "Running")
}

package routers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/learninverse/server/config"
	"github.com/learninverse/server/internal/handlers"
	"github.com/learninverse/server/internal/middlewares"
	"github.com/learninverse/server/internal/rbac"
	"github.com/learninverse/server/internal/services"
	"github.com/learninverse/server/internal/session"
	"github.com/learninverse/server/internal/ws"
	"github.com/learninverse/server/middleware/jwt"
	"github.com/learninverse/server/middleware/log"
	pkgmw "github.com/learninverse/server/pkg/middlewares"
	"github.com/learninverse/server/utils/ratelimit"
)

// Deps carries everything the router needs wired in.
type Deps struct {
	Config   *config.Config
	Logger   *log.Logger
	Tokens   *jwt.TokenManager
	Sessions *session.Store
	Limiter  ratelimit.Limiter

	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	GroupHandler   *handlers.GroupHandler
	MessageHandler *handlers.MessageHandler

	Hub        *ws.Hub
	MessageSvc *services.MessageService
	GroupSvc   *services.GroupService
}

// SetupRoutes registers all routes and middleware on the engine.
func SetupRoutes(r *gin.Engine, d *Deps) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Trace-ID"}
	r.Use(cors.New(corsConfig))

	r.Use(log.RequestLogger(d.Logger))

	if d.Limiter != nil && d.Config.RateLimit.QPS > 0 {
		r.Use(pkgmw.RateLimitMiddleware(d.Limiter, int(d.Config.RateLimit.QPS), time.Second))
	}
	if d.Config.RateLimit.MaxConcurrency > 0 {
		r.Use(pkgmw.MaxConcurrencyMiddleware(d.Config.RateLimit.MaxConcurrency))
	}

	// the websocket route must not go through the worker pool: the
	// handshake goroutine stays alive for the whole connection
	r.GET("/ws", middlewares.AuthMiddleware(d.Tokens, d.Sessions), func(c *gin.Context) {
		ws.ServeWs(d.Hub, d.MessageSvc, d.GroupSvc, d.Logger.Logger, c)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"connected": d.Hub.ConnectedUsers(),
		})
	})

	r.Use(middlewares.AsyncMiddleware())

	registerAuthRoutes(r, d)
	registerUserRoutes(r, d)
	registerGroupRoutes(r, d)
	registerMessageRoutes(r, d)
	registerPageRoutes(r, d)
}

func registerAuthRoutes(r *gin.Engine, d *Deps) {
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", d.AuthHandler.Register)
		auth.POST("/login", d.AuthHandler.Login)
		auth.POST("/refresh", d.AuthHandler.Refresh)
	}
	auth.Use(middlewares.AuthMiddleware(d.Tokens, d.Sessions))
	{
		auth.POST("/logout", d.AuthHandler.Logout)
	}
}

func registerUserRoutes(r *gin.Engine, d *Deps) {
	users := r.Group("/api/v1/users")
	users.Use(middlewares.AuthMiddleware(d.Tokens, d.Sessions))
	{
		users.GET("/me", d.UserHandler.Me)
		users.PUT("/me", d.UserHandler.UpdateMe)
		users.GET("/:id", d.UserHandler.GetUser)
	}

	admin := r.Group("/api/v1/admin/users")
	admin.Use(middlewares.AuthMiddleware(d.Tokens, d.Sessions))
	{
		admin.GET("", d.UserHandler.List)
		admin.POST("/:id/deactivate", d.UserHandler.Deactivate)
		admin.POST("/:id/activate", d.UserHandler.Activate)
		admin.PUT("/:id/role", d.UserHandler.ChangeRole)
	}
}

func registerGroupRoutes(r *gin.Engine, d *Deps) {
	groups := r.Group("/api/v1/groups")
	groups.Use(middlewares.AuthMiddleware(d.Tokens, d.Sessions))
	{
		groups.POST("", d.GroupHandler.Create)
		groups.GET("", d.GroupHandler.ListMine)
		groups.POST("/join", d.GroupHandler.Join)
		groups.GET("/:id", d.GroupHandler.Get)
		groups.PUT("/:id", d.GroupHandler.Update)
		groups.POST("/:id/leave", d.GroupHandler.Leave)

		groups.GET("/:id/members", d.GroupHandler.Members)
		groups.POST("/:id/members", d.GroupHandler.AddMember)
		groups.DELETE("/:id/members/:userID", d.GroupHandler.RemoveMember)
		groups.PUT("/:id/members/:userID/role", d.GroupHandler.UpdateMemberRole)
		groups.PUT("/:id/members/:userID/permissions", d.GroupHandler.UpdateMemberPermissions)

		groups.GET("/:id/messages", d.MessageHandler.GroupMessages)
	}
}

func registerMessageRoutes(r *gin.Engine, d *Deps) {
	messages := r.Group("/api/v1/messages")
	messages.Use(middlewares.AuthMiddleware(d.Tokens, d.Sessions))
	{
		messages.POST("", d.MessageHandler.Send)
		messages.GET("/unread", d.MessageHandler.UnreadCount)
		messages.GET("/search", d.MessageHandler.Search)
		messages.PUT("/:id", d.MessageHandler.Edit)
		messages.DELETE("/:id", d.MessageHandler.Delete)
		messages.POST("/:id/pin", d.MessageHandler.Pin)
		messages.DELETE("/:id/pin", d.MessageHandler.Unpin)
		messages.POST("/:id/read", d.MessageHandler.MarkRead)
		messages.POST("/:id/reactions", d.MessageHandler.React)
		messages.DELETE("/:id/reactions/:emoji", d.MessageHandler.Unreact)
	}

	chats := r.Group("/api/v1/chats")
	chats.Use(middlewares.AuthMiddleware(d.Tokens, d.Sessions))
	{
		chats.POST("", d.MessageHandler.StartChat)
		chats.GET("", d.MessageHandler.ListChats)
		chats.GET("/with/:userID/messages", d.MessageHandler.DirectMessages)
	}
}

// registerPageRoutes guards the role dashboards. Each dashboard requires
// its role floor; visitors below it land on their own dashboard, and
// logged-out visitors land on /login.
func registerPageRoutes(r *gin.Engine, d *Deps) {
	r.GET("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"page": "login"})
	})
	r.GET("/student/dashboard",
		middlewares.RequireRole(rbac.RoleStudent, d.Tokens, d.Sessions),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"page": "student_dashboard", "user_id": middlewares.UserID(c)})
		})
	r.GET("/teacher/dashboard",
		middlewares.RequireRole(rbac.RoleTeacher, d.Tokens, d.Sessions),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"page": "teacher_dashboard", "user_id": middlewares.UserID(c)})
		})
	r.GET("/admin/dashboard",
		middlewares.RequireRole(rbac.RoleAdmin, d.Tokens, d.Sessions),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"page": "admin_dashboard", "user_id": middlewares.UserID(c)})
		})
}

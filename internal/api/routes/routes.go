package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/api/handlers"
	"github.com/yoockh/bikeshop-agent/internal/api/middleware"
)

type Deps struct {
	Conversation *handlers.ConversationHandler
	Admin        *handlers.AdminHandler // nil disables /admin
	WS           *handlers.WSHandler    // nil without Redis

	Log         *logrus.Logger
	CORSOrigins []string
	AdminJWT    middleware.JWTConfig
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log), middleware.CORS(d.CORSOrigins))
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", handlers.Health)

	v1 := r.Group("/api/v1")
	v1.POST("/conversations", d.Conversation.Create)
	v1.POST("/conversations/:id/messages", d.Conversation.SendMessage)
	v1.GET("/conversations/:id", d.Conversation.Get)
	v1.DELETE("/conversations/:id", d.Conversation.Delete)

	// WebSocket
	if d.WS != nil {
		r.GET("/ws/conversations/:id", d.WS.Conversation)
	}

	if d.Admin != nil {
		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(d.AdminJWT), middleware.RequireAdmin())

		admin.GET("/stats", d.Admin.Stats)
		admin.POST("/sessions/cleanup", d.Admin.Cleanup)
		admin.POST("/leads/resync", d.Admin.ResyncLeads)
	}
}

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/klerio/helpdesk/internal/common"
	"github.com/klerio/helpdesk/internal/config"
	"github.com/klerio/helpdesk/internal/httpapi/handlers"
	"github.com/klerio/helpdesk/internal/httpapi/middleware"
	"github.com/klerio/helpdesk/internal/store/redisstore"
	"github.com/klerio/helpdesk/internal/ws"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, hub *ws.Hub) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, rds, hub)

	r.GET("/ping", h.Ping)

	// captcha + accounts
	r.POST("/captcha", h.SendCaptcha)
	r.POST("/users", h.CreateUser)
	r.POST("/clients", h.CreateClient)
	r.POST("/login", h.Login)

	// realtime channel (token checked in the handshake)
	r.GET("/ws", ws.Handler(hub, cfg.JWTSecret))

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)
	authGroup.GET("/users/:id", h.GetUserByID)

	instr := authGroup.Group("/instructions")
	{
		// creation/reply routes: support-group, support-private,
		// internal-team-chat, ticket/..., inquiry/..., reply
		instr.POST("/*route", h.PostInstruction)

		instr.GET("/by-type/:chatType", h.GetByType)
		instr.GET("/messages/:conversationId", h.GetConversationMessages)
		instr.GET("/sidebar/:clientId", h.GetSidebar)
		instr.GET("/tickets/all", middleware.AdminRequired(), h.AllTickets)
		instr.GET("/tickets/:id", h.TicketsForClient)
		instr.GET("/tickets/:id/details", h.TicketDetails)
		instr.GET("/inquiries/all", middleware.AdminRequired(), h.AllInquiries)
		instr.GET("/inquiries/:id", h.InquiriesForClient)
		instr.GET("/notifications/unread", h.UnreadInstructionNotifications)

		instr.PUT("/update/:ticketId", h.UpdateInstruction)
		instr.PUT("/tickets/:id/status", h.SetTicketStatus)
		instr.PUT("/inquiries/:id/status", h.SetInquiryStatus)
		instr.PUT("/:id/mark-seen-admin", h.MarkSeenAdmin)
		instr.PUT("/:id/mark-seen-client", h.MarkSeenClient)
		instr.PUT("/mark-all-seen-admin", h.MarkAllSeenAdmin)
		instr.PUT("/mark-all-seen-client", h.MarkAllSeenClient)
	}

	notif := authGroup.Group("/notification")
	{
		notif.GET("/user/:id", h.ListUserNotifications)
		notif.GET("/user/:id/count", h.UserNotificationCount)
		notif.GET("/admin/:id", h.ListAdminNotifications)
		notif.GET("/admin/:id/count", h.AdminNotificationCount)
		notif.PUT("/:id/read", h.MarkNotificationRead)
		notif.PUT("/user/:id/read-all", h.MarkAllUserNotificationsRead)
		notif.PUT("/admin/:id/read-all", h.MarkAllAdminNotificationsRead)
		notif.DELETE("/:id", h.DeleteNotification)
	}

	return r
}

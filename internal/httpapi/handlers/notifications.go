package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/klerio/helpdesk/internal/auth"
	"github.com/klerio/helpdesk/internal/common"
	"github.com/klerio/helpdesk/internal/httpapi/middleware"
	"github.com/klerio/helpdesk/internal/notifications"
)

// recipientFromContext derives the notification recipient from the caller's
// session: admins read the shared admin queue plus their own rows.
func recipientFromContext(c *gin.Context) (notifications.Recipient, bool) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return notifications.Recipient{}, false
	}
	if claims.Role == auth.RoleAdmin {
		return notifications.ForAdmin(claims.UserID), true
	}
	return notifications.ForUser(claims.UserID), true
}

// UnreadInstructionNotifications serves the bell dropdown. An explicit
// clientId query overrides the session (admin dashboards inspect client
// queues).
func (h *Handler) UnreadInstructionNotifications(c *gin.Context) {
	rec, ok := recipientFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	if v := c.Query("clientId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, 10011, "invalid client id")
			return
		}
		rec = notifications.ForUser(id)
	}

	rows, err := h.Notifications.List(c.Request.Context(), rec, false)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to list notifications")
		return
	}
	common.OK(c, rows)
}

func (h *Handler) markSeen(c *gin.Context) {
	rec, ok := recipientFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10014, "invalid notification id")
		return
	}
	changed, err := h.Notifications.MarkRead(c.Request.Context(), rec, id)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to mark read")
		return
	}
	common.OK(c, gin.H{"changed": changed})
}

// MarkSeenAdmin and MarkSeenClient are the same idempotent mark-read; the
// split mirrors the two dashboards.
func (h *Handler) MarkSeenAdmin(c *gin.Context)  { h.markSeen(c) }
func (h *Handler) MarkSeenClient(c *gin.Context) { h.markSeen(c) }

func (h *Handler) markAllSeen(c *gin.Context, audience string) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	var rec notifications.Recipient
	if audience == notifications.AudienceAdmin {
		rec = notifications.ForAdmin(claims.UserID)
	} else {
		rec = notifications.ForUser(claims.UserID)
	}
	changed, err := h.Notifications.MarkAllRead(c.Request.Context(), rec)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to mark all read")
		return
	}
	common.OK(c, gin.H{"changed": changed})
}

func (h *Handler) MarkAllSeenAdmin(c *gin.Context) {
	h.markAllSeen(c, notifications.AudienceAdmin)
}

func (h *Handler) MarkAllSeenClient(c *gin.Context) {
	h.markAllSeen(c, notifications.AudienceUser)
}

// --- generic /notification surface ---

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10014, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListUserNotifications(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	includeRead := c.Query("include_read") == "true"
	rows, err := h.Notifications.List(c.Request.Context(), notifications.ForUser(id), includeRead)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to list notifications")
		return
	}
	common.OK(c, rows)
}

func (h *Handler) ListAdminNotifications(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	includeRead := c.Query("include_read") == "true"
	rows, err := h.Notifications.List(c.Request.Context(), notifications.ForAdmin(id), includeRead)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to list notifications")
		return
	}
	common.OK(c, rows)
}

func (h *Handler) UserNotificationCount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.Notifications.UnreadCount(c.Request.Context(), notifications.ForUser(id))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to count")
		return
	}
	common.OK(c, gin.H{"count": n})
}

func (h *Handler) AdminNotificationCount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.Notifications.UnreadCount(c.Request.Context(), notifications.ForAdmin(id))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to count")
		return
	}
	common.OK(c, gin.H{"count": n})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	h.markSeen(c)
}

func (h *Handler) MarkAllUserNotificationsRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	changed, err := h.Notifications.MarkAllRead(c.Request.Context(), notifications.ForUser(id))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to mark all read")
		return
	}
	common.OK(c, gin.H{"changed": changed})
}

func (h *Handler) MarkAllAdminNotificationsRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	changed, err := h.Notifications.MarkAllRead(c.Request.Context(), notifications.ForAdmin(id))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to mark all read")
		return
	}
	common.OK(c, gin.H{"changed": changed})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	rec, ok := recipientFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	changed, err := h.Notifications.Delete(c.Request.Context(), rec, id)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to delete")
		return
	}
	if changed == 0 {
		common.Fail(c, http.StatusNotFound, 40405, "notification not found")
		return
	}
	common.OK(c, gin.H{"deleted": true})
}

package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/klerio/helpdesk/internal/auth"
	"github.com/klerio/helpdesk/internal/common"
	"github.com/klerio/helpdesk/internal/httpapi/middleware"
	"github.com/klerio/helpdesk/internal/instructions"
	"github.com/klerio/helpdesk/internal/notifications"
)

type postInstructionReq struct {
	Body           string `json:"body"`
	ConversationID *int64 `json:"conversation_id"`
	ClientID       *int64 `json:"client_id"`
	Remarks        string `json:"remarks"`
	Channel        string `json:"channel"`
}

// PostInstruction handles POST /instructions/{route}. The route segment
// picks the type code; "reply" inherits the type of the conversation root.
func (h *Handler) PostInstruction(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	route := strings.TrimPrefix(c.Param("route"), "/")

	var req postInstructionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	d := instructions.Draft{
		Body:           req.Body,
		ConversationID: req.ConversationID,
		Remarks:        req.Remarks,
		Channel:        req.Channel,
		OriginIP:       c.ClientIP(),
	}

	if route == "reply" {
		if req.ConversationID == nil {
			common.Fail(c, http.StatusBadRequest, 10006, "conversation_id required for reply")
			return
		}
		root, err := h.Messages.Details(c.Request.Context(), *req.ConversationID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				common.Fail(c, http.StatusNotFound, 40404, "conversation not found")
				return
			}
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
			return
		}
		d.TypeCode = root.TypeCode
		d.ClientID = root.ClientID
	} else {
		code := instructions.TypeCodeForRoute(route)
		if code == 0 {
			common.Fail(c, http.StatusBadRequest, 10007, "unknown route")
			return
		}
		d.TypeCode = code
	}

	if claims.Role == auth.RoleAdmin {
		uid := claims.UserID
		d.UserID = &uid
		if req.ClientID != nil {
			d.ClientID = req.ClientID
		}
	} else {
		uid := claims.UserID
		d.AuthUserID = &uid
		cid := claims.ClientID
		d.ClientID = &cid
	}

	saved, err := h.Messages.PostMessage(c.Request.Context(), d)
	if err != nil {
		if instructions.IsValidation(err) {
			common.Fail(c, http.StatusBadRequest, 10008, err.Error())
			return
		}
		log.Printf("post instruction failed route=%s err=%v", route, err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	h.Hub.BroadcastSaved(saved, nil)

	common.OK(c, saved)
}

func (h *Handler) GetByType(c *gin.Context) {
	code, err := strconv.Atoi(c.Param("chatType"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10009, "invalid chat type")
		return
	}
	rows, listErr := h.Messages.ListByType(c.Request.Context(), code)
	if listErr != nil {
		if instructions.IsValidation(listErr) {
			common.Fail(c, http.StatusBadRequest, 10009, listErr.Error())
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list")
		return
	}
	common.OK(c, rows)
}

func (h *Handler) GetConversationMessages(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("conversationId"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10010, "invalid conversation id")
		return
	}
	msgs, err := h.Messages.ListConversation(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list messages")
		return
	}
	common.OK(c, msgs)
}

func (h *Handler) GetSidebar(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	clientID, err := strconv.ParseInt(c.Param("clientId"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10011, "invalid client id")
		return
	}
	sb, err := h.Sidebar.GetSidebar(c.Request.Context(), clientID, claims.Role != auth.RoleAdmin)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to build sidebar")
		return
	}
	common.OK(c, sb)
}

func (h *Handler) AllTickets(c *gin.Context) {
	rows, err := h.Messages.AllTickets(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list tickets")
		return
	}
	common.OK(c, rows)
}

func (h *Handler) AllInquiries(c *gin.Context) {
	rows, err := h.Messages.AllInquiries(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list inquiries")
		return
	}
	common.OK(c, rows)
}

func (h *Handler) TicketsForClient(c *gin.Context) {
	clientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10011, "invalid client id")
		return
	}
	rows, listErr := h.Messages.TicketsForClient(c.Request.Context(), clientID)
	if listErr != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list tickets")
		return
	}
	common.OK(c, rows)
}

func (h *Handler) InquiriesForClient(c *gin.Context) {
	clientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10011, "invalid client id")
		return
	}
	rows, listErr := h.Messages.InquiriesForClient(c.Request.Context(), clientID)
	if listErr != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list inquiries")
		return
	}
	common.OK(c, rows)
}

func (h *Handler) TicketDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10012, "invalid ticket id")
		return
	}
	det, err := h.Messages.Details(c.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40404, "ticket not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, det)
}

type updateInstructionReq struct {
	Body string `json:"body" binding:"required"`
}

// UpdateInstruction edits the body of an unresolved ticket/inquiry.
// Resolved rows reject with 400 by existing convention, not 409.
func (h *Handler) UpdateInstruction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("ticketId"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10012, "invalid ticket id")
		return
	}

	var req updateInstructionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if err := h.Messages.EditBody(c.Request.Context(), id, req.Body); err != nil {
		switch {
		case err == instructions.ErrEditResolved:
			common.Fail(c, http.StatusBadRequest, 10013, "cannot edit resolved tickets")
		case err == gorm.ErrRecordNotFound:
			common.Fail(c, http.StatusNotFound, 40404, "ticket not found")
		case instructions.IsValidation(err):
			common.Fail(c, http.StatusBadRequest, 10008, err.Error())
		default:
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		}
		return
	}
	common.OK(c, gin.H{"updated": true})
}

type setStatusReq struct {
	IsCompleted bool    `json:"isCompleted"`
	Remarks     *string `json:"remarks"`
}

func (h *Handler) SetTicketStatus(c *gin.Context) {
	h.setStatus(c, "ticket")
}

func (h *Handler) SetInquiryStatus(c *gin.Context) {
	h.setStatus(c, "inquiry")
}

func (h *Handler) setStatus(c *gin.Context, entityKind string) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10012, "invalid id")
		return
	}

	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	uid := claims.UserID
	m, err := h.Messages.SetStatus(c.Request.Context(), id, req.IsCompleted, &uid, req.Remarks)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": entityKind + " not found"})
			return
		}
		log.Printf("set status failed kind=%s id=%d err=%v", entityKind, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}

	status := instructions.StatusName(m.IsCompleted)

	if m.ClientID != nil {
		h.Hub.BroadcastStatusChange(entityKind, m.ID, status, *m.ClientID)
	}
	h.publishStatusEvent(entityKind, m, status)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": entityKind + " marked " + status})
}

// publishStatusEvent hands the status-flip notification to the hub, which
// queues the durable row and pushes the bell update. Best-effort: the status
// operation already succeeded.
func (h *Handler) publishStatusEvent(entityKind string, m *instructions.Message, status string) {
	if m.ClientID == nil {
		return
	}
	kind := notifications.KindTicketUpdated
	if entityKind == "inquiry" {
		kind = notifications.KindInquiryUpdated
	}
	h.Hub.NotifyEvent(notifications.Event{
		Kind:       kind,
		Audience:   notifications.AudienceUser,
		UserID:     m.ClientID,
		Title:      instructions.DisplayNameFor(m.TypeCode) + " " + status,
		Message:    "Your " + entityKind + " #" + strconv.FormatInt(m.ID, 10) + " is now " + status,
		EntityID:   m.ID,
		EntityType: entityKind,
		Action:     instructions.RouteFor(m.TypeCode),
	})
}

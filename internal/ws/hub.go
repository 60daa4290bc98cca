package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/klerio/helpdesk/internal/instructions"
	"github.com/klerio/helpdesk/internal/notifications"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// JoinPolicy decides whether a connection may join a conversation room.
// Whether joins need authorization beyond the session token is deployment
// policy, so it is injected rather than fixed.
type JoinPolicy func(ctx context.Context, c *Client, conversationID int64) bool

// OpenJoinPolicy trusts the authenticated session and allows every join.
func OpenJoinPolicy(context.Context, *Client, int64) bool { return true }

// MemberJoinPolicy restricts clients to conversations owned by their own
// client id; admins may join anything.
func MemberJoinPolicy(repo *instructions.Repo) JoinPolicy {
	return func(ctx context.Context, c *Client, conversationID int64) bool {
		if c.isAdmin {
			return true
		}
		root, err := repo.GetByID(ctx, conversationID)
		if err != nil {
			return false
		}
		return root.ClientID != nil && *root.ClientID == c.clientID
	}
}

// EventPublisher queues a notification event. Failures are the caller's to
// ignore: pushing is best-effort.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev notifications.Event) error
}

// Hub relays events to subscribed connections. Rooms group connections per
// conversation; the client index groups them per client id for status
// fan-out; admin connections are tracked for dashboard-wide pushes.
// Membership is transient: a reconnecting socket must re-join its rooms.
type Hub struct {
	Messages      *instructions.Service
	Notifications *notifications.Service
	Events        EventPublisher
	Policy        JoinPolicy

	mu       sync.RWMutex
	rooms    map[string]map[*Client]bool
	byClient map[int64]map[*Client]bool
	admins   map[*Client]bool
}

func NewHub(messages *instructions.Service, notifs *notifications.Service, events EventPublisher, policy JoinPolicy) *Hub {
	if policy == nil {
		policy = OpenJoinPolicy
	}
	return &Hub{
		Messages:      messages,
		Notifications: notifs,
		Events:        events,
		Policy:        policy,
		rooms:         make(map[string]map[*Client]bool),
		byClient:      make(map[int64]map[*Client]bool),
		admins:        make(map[*Client]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.clientID != 0 {
		if h.byClient[c.clientID] == nil {
			h.byClient[c.clientID] = make(map[*Client]bool)
		}
		h.byClient[c.clientID][c] = true
	}
	if c.isAdmin {
		h.admins[c] = true
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range c.rooms {
		if m := h.rooms[room]; m != nil {
			delete(m, c)
			if len(m) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	if m := h.byClient[c.clientID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byClient, c.clientID)
		}
	}
	delete(h.admins, c)
	c.closed = true
}

// Join is idempotent; joining a room twice is a no-op.
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	c.rooms[room] = true
}

// send delivers one frame to a connection. Broadcasts snapshot their member
// list before sending, so the target may have disconnected in between; closed
// connections are skipped rather than written to.
func (h *Hub) send(c *Client, frame eventFrame) {
	b, err := json.Marshal(frame)
	if err != nil {
		return
	}
	h.mu.RLock()
	closed := c.closed
	h.mu.RUnlock()
	if closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// slow consumer, drop the connection
		go c.Close()
	}
}

// BroadcastToRoom delivers an event to every room subscriber except the
// given sender connection.
func (h *Hub) BroadcastToRoom(room, event string, data any, except *Client) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if c != except {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range conns {
		h.send(c, eventFrame{Event: event, Data: data})
	}
}

// SendToClient delivers an event to every connection of one client id,
// regardless of which rooms those connections joined.
func (h *Hub) SendToClient(clientID int64, event string, data any) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.byClient[clientID]))
	for c := range h.byClient[clientID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		h.send(c, eventFrame{Event: event, Data: data})
	}
}

// SendToAdmins delivers an event to every connected admin.
func (h *Hub) SendToAdmins(event string, data any) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.admins))
	for c := range h.admins {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		h.send(c, eventFrame{Event: event, Data: data})
	}
}

// RoomSize reports current subscriber count; used by tests and diagnostics.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) handleInbound(ctx context.Context, c *Client, raw []byte) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		h.send(c, eventFrame{Event: EventError, Data: "malformed frame"})
		return
	}

	switch f.Action {
	case ActionJoinConversationRoom, ActionJoinPrivateChat:
		if f.ConversationID <= 0 {
			h.send(c, eventFrame{Event: EventError, Data: "conversation_id required"})
			return
		}
		if !h.Policy(ctx, c, f.ConversationID) {
			h.send(c, eventFrame{Event: EventError, Data: "join refused"})
			return
		}
		h.Join(RoomName(f.ConversationID), c)

	case ActionSendMessage:
		h.handleSend(ctx, c, f, false)

	case ActionSendAdminMessage:
		if !c.isAdmin {
			h.send(c, eventFrame{Event: EventError, Data: "admin only"})
			return
		}
		h.handleSend(ctx, c, f, true)

	case ActionUserIsTyping:
		h.relayTyping(c, f, EventUserIsTyping)

	case ActionUserStoppedTyping:
		h.relayTyping(c, f, EventUserStoppedTyping)

	default:
		h.send(c, eventFrame{Event: EventError, Data: "unknown action"})
	}
}

func (h *Hub) handleSend(ctx context.Context, c *Client, f inboundFrame, asAdmin bool) {
	d := instructions.Draft{
		TypeCode: f.TypeCode,
		Body:     f.Body,
		Remarks:  f.Remarks,
		Channel:  "chat",
		OriginIP: c.remoteIP,
	}
	if f.ConversationID > 0 {
		cid := f.ConversationID
		d.ConversationID = &cid
	}
	if asAdmin {
		uid := c.userID
		d.UserID = &uid
	} else {
		uid := c.userID
		d.AuthUserID = &uid
	}
	if c.clientID != 0 {
		cl := c.clientID
		d.ClientID = &cl
	}

	saved, err := h.Messages.PostMessage(ctx, d)
	if err != nil {
		h.send(c, eventFrame{Event: EventError, Data: err.Error()})
		return
	}

	// sender already holds the message; join so later replies arrive
	h.Join(RoomName(*saved.ConversationID), c)
	h.BroadcastSaved(saved, c)
}

// relayTyping is fire and forget: no persistence, no delivery guarantee.
func (h *Hub) relayTyping(c *Client, f inboundFrame, event string) {
	if f.ConversationID <= 0 {
		return
	}
	h.BroadcastToRoom(RoomName(f.ConversationID), event, typingPayload{
		ConversationID: f.ConversationID,
		UserID:         c.userID,
		ClientID:       c.clientID,
	}, c)
}

// BroadcastSaved pushes a persisted message to its conversation room,
// excluding the sender's connection (the sender already has the message from
// the synchronous response), and queues the matching notification event.
func (h *Hub) BroadcastSaved(saved *instructions.SavedMessage, except *Client) {
	if saved.ConversationID == nil {
		return
	}
	event := EventReceiveMessage
	if saved.TypeCode == instructions.TypeSupportPrivate {
		event = EventReceivePrivateMessage
	}
	h.BroadcastToRoom(RoomName(*saved.ConversationID), event, saved, except)

	if *saved.ConversationID == saved.ID {
		switch instructions.CategoryOf(saved.TypeCode) {
		case instructions.CategoryTicket, instructions.CategoryInquiry:
			h.SendToAdmins(EventNewTicket, saved)
		}
	}

	h.queueMessageEvent(saved)
}

// BroadcastStatusChange notifies every connection of the owning client that
// a ticket or inquiry changed state. Client-keyed, not room-keyed: the owner
// may be viewing a different conversation.
func (h *Hub) BroadcastStatusChange(entityKind string, entityID int64, newStatus string, targetClientID int64) {
	event := EventTicketStatusUpdated
	if entityKind == "inquiry" {
		event = EventInquiryStatusUpdated
	}
	h.SendToClient(targetClientID, event, StatusPayload{EntityID: entityID, NewStatus: newStatus})
}

// PushNotification delivers a freshly recorded notification over the socket.
func (h *Hub) PushNotification(rec notifications.Recipient, n *notifications.Notification) {
	if rec.Audience == notifications.AudienceAdmin {
		h.SendToAdmins(EventReceiveNotification, n)
		return
	}
	if rec.UserID != nil {
		h.SendToClient(*rec.UserID, EventReceiveNotification, n)
	}
}

func (h *Hub) queueMessageEvent(saved *instructions.SavedMessage) {
	ev := notifications.Event{
		Kind:       notifications.KindNewMessage,
		Message:    saved.Body,
		EntityID:   saved.ID,
		EntityType: "message",
		Action:     instructions.RouteFor(saved.TypeCode),
	}
	isRoot := saved.ConversationID != nil && *saved.ConversationID == saved.ID
	switch instructions.CategoryOf(saved.TypeCode) {
	case instructions.CategoryTicket:
		if isRoot {
			ev.Kind = notifications.KindNewTicket
			ev.Title = "New ticket: " + instructions.DisplayNameFor(saved.TypeCode)
		} else {
			ev.Title = "New reply from " + saved.SenderName
		}
	case instructions.CategoryInquiry:
		if isRoot {
			ev.Kind = notifications.KindNewInquiry
			ev.Title = "New inquiry: " + instructions.DisplayNameFor(saved.TypeCode)
		} else {
			ev.Title = "New reply from " + saved.SenderName
		}
	default:
		ev.Title = "New message from " + saved.SenderName
	}

	// Admin-side senders notify the owning client; everything else lands in
	// the shared admin queue.
	if saved.UserID != nil && saved.AuthUserID == nil && saved.ClientID != nil {
		ev.Audience = notifications.AudienceUser
		ev.UserID = saved.ClientID
	} else {
		ev.Audience = notifications.AudienceAdmin
	}

	h.NotifyEvent(ev)
}

// NotifyEvent handles notification fan-out for one event: the durable row
// goes through the broker when one is configured (the worker inserts it),
// otherwise it is recorded in-process; either way the recipient's connected
// sessions get a ReceiveNotification push. Best-effort throughout, failures
// are logged and never surface to the triggering operation.
func (h *Hub) NotifyEvent(ev notifications.Event) {
	eid := ev.EntityID
	n := &notifications.Notification{
		Audience:   ev.Audience,
		UserID:     ev.UserID,
		AdminID:    ev.AdminID,
		Kind:       ev.Kind,
		Title:      ev.Title,
		Message:    ev.Message,
		EntityID:   &eid,
		EntityType: ev.EntityType,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if h.Events != nil {
		if err := h.Events.PublishEvent(ctx, ev); err != nil {
			log.Printf("notification publish failed kind=%s entity=%d err=%v", ev.Kind, ev.EntityID, err)
		}
	} else if h.Notifications != nil {
		rec, err := h.Notifications.RecordEvent(ctx, ev)
		if err != nil {
			log.Printf("notification record failed kind=%s entity=%d err=%v", ev.Kind, ev.EntityID, err)
		} else {
			n = rec
		}
	}

	h.PushNotification(ev.Recipient(), n)
}

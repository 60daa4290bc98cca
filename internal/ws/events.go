package ws

import "fmt"

// Client-invoked actions on the multiplexed socket.
const (
	ActionJoinConversationRoom = "JoinConversationRoom"
	ActionJoinPrivateChat      = "JoinPrivateChat"
	ActionSendMessage          = "SendMessage"
	ActionSendAdminMessage     = "SendAdminMessage"
	ActionUserIsTyping         = "UserIsTyping"
	ActionUserStoppedTyping    = "UserStoppedTyping"
)

// Server-pushed event names.
const (
	EventReceiveMessage        = "ReceiveMessage"
	EventReceivePrivateMessage = "ReceivePrivateMessage"
	EventTicketStatusUpdated   = "TicketStatusUpdated"
	EventInquiryStatusUpdated  = "InquiryStatusUpdated"
	EventNewTicket             = "NewTicket"
	EventReceiveNotification   = "ReceiveNotification"
	EventUserIsTyping          = "UserIsTyping"
	EventUserStoppedTyping     = "UserStoppedTyping"
	EventError                 = "Error"
)

// RoomName maps a conversation id to its room key.
func RoomName(conversationID int64) string {
	return fmt.Sprintf("conversation:%d", conversationID)
}

type inboundFrame struct {
	Action         string `json:"action"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	TypeCode       int    `json:"type_code,omitempty"`
	Body           string `json:"body,omitempty"`
	Remarks        string `json:"remarks,omitempty"`
}

type eventFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type typingPayload struct {
	ConversationID int64 `json:"conversation_id"`
	UserID         int64 `json:"user_id,omitempty"`
	ClientID       int64 `json:"client_id,omitempty"`
}

// StatusPayload is the body of Ticket/InquiryStatusUpdated events.
type StatusPayload struct {
	EntityID  int64  `json:"entity_id"`
	NewStatus string `json:"new_status"`
}

package instructions

import (
	"encoding/json"
	"strings"
	"time"
)

// Message is one persisted support message (chat line, ticket, or inquiry).
// A conversation is the set of messages sharing ConversationID; the first
// message of a conversation has ConversationID equal to its own ID.
type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Category int `gorm:"not null;index" json:"category"`
	TypeCode int `gorm:"not null;index" json:"type_code"`

	Body string `gorm:"type:text;not null" json:"body"`

	// ClientID is the owning customer; nil for pure internal/admin traffic.
	ClientID *int64 `gorm:"index" json:"client_id"`
	// Exactly one of UserID (admin sender) or AuthUserID (client-side actor)
	// identifies the sender.
	UserID     *int64 `gorm:"index" json:"user_id"`
	AuthUserID *int64 `gorm:"index" json:"auth_user_id"`

	ConversationID *int64 `gorm:"index" json:"conversation_id"`

	// Completion fields are meaningful for ticket/inquiry messages only.
	IsCompleted       bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedBy       *int64     `json:"completed_by"`
	CompletedAt       *time.Time `json:"completed_at"`
	CompletionRemarks *string    `gorm:"type:text" json:"completion_remarks"`

	// Remarks holds either plain text or, for support-private messages, the
	// JSON encoding of a structured {priority, userremarks} pair. Decode
	// with DecodeRemarks; never probe the string.
	Remarks string `gorm:"type:text" json:"remarks"`

	Channel  string `gorm:"type:varchar(16);not null;default:chat" json:"channel"`
	OriginIP string `gorm:"type:varchar(45)" json:"origin_ip"`
}

func (Message) TableName() string { return "instructions" }

// SavedMessage is a Message with the sender's full name resolved.
type SavedMessage struct {
	Message    `gorm:"embedded"`
	SenderName string `json:"sender_name"`
}

// ConversationHead is the newest message of a conversation plus the names
// the sidebar needs.
type ConversationHead struct {
	Message    `gorm:"embedded"`
	SenderName string `json:"sender_name"`
	ClientName string `json:"client_name"`
}

type RemarksKind int

const (
	RemarksPlain RemarksKind = iota
	RemarksStructured
)

// Remarks is a tagged variant: plain free text, or the structured pair
// required for support-private messages.
type Remarks struct {
	Kind        RemarksKind
	Text        string
	Priority    string
	UserRemarks string
}

type structuredRemarks struct {
	Priority    string `json:"priority"`
	UserRemarks string `json:"userremarks"`
}

// EncodeRemarks serializes a Remarks value for storage. The kind is decided
// by the message type at write time, not by probing the content.
func EncodeRemarks(r Remarks) (string, error) {
	switch r.Kind {
	case RemarksStructured:
		b, err := json.Marshal(structuredRemarks{Priority: r.Priority, UserRemarks: r.UserRemarks})
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return r.Text, nil
	}
}

// DecodeRemarks interprets a stored remarks string according to the message
// type code: support-private rows hold the structured encoding, everything
// else is plain text.
func DecodeRemarks(typeCode int, raw string) Remarks {
	if typeCode != TypeSupportPrivate {
		return Remarks{Kind: RemarksPlain, Text: raw}
	}
	var s structuredRemarks
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		// Legacy rows written before the structured encoding.
		return Remarks{Kind: RemarksPlain, Text: raw}
	}
	return Remarks{Kind: RemarksStructured, Priority: s.Priority, UserRemarks: s.UserRemarks}
}

// NormalizeDraftRemarks applies the support-private special case: plain
// remarks on a support-private draft are rewritten into the structured
// encoding with a default priority.
func NormalizeDraftRemarks(typeCode int, raw string) (string, error) {
	if typeCode != TypeSupportPrivate {
		return raw, nil
	}
	var s structuredRemarks
	if json.Unmarshal([]byte(raw), &s) == nil && (s.Priority != "" || s.UserRemarks != "") {
		// already structured
		return raw, nil
	}
	return EncodeRemarks(Remarks{
		Kind:        RemarksStructured,
		Priority:    "normal",
		UserRemarks: strings.TrimSpace(raw),
	})
}

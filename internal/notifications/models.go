package notifications

import "time"

const (
	KindNewTicket      = "new_ticket"
	KindNewInquiry     = "new_inquiry"
	KindNewMessage     = "new_message"
	KindTicketUpdated  = "ticket_updated"
	KindInquiryUpdated = "inquiry_updated"
)

const (
	AudienceUser  = "user"
	AudienceAdmin = "admin"
)

// Notification is one durable unread-queue entry. Admin-audience rows with a
// NULL admin id are broadcast: every admin sees them.
type Notification struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Audience string `gorm:"type:varchar(8);not null;index" json:"audience"`
	UserID   *int64 `gorm:"index" json:"user_id"`
	AdminID  *int64 `gorm:"index" json:"admin_id"`

	Kind    string `gorm:"type:varchar(32);not null" json:"kind"`
	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`

	// Payload carries {entity_id, action} for deep-linking, opaque to the
	// store.
	Payload string `gorm:"type:text" json:"payload"`

	EntityID   *int64 `gorm:"index" json:"entity_id"`
	EntityType string `gorm:"type:varchar(32)" json:"entity_type"`

	IsRead    bool       `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	ReadAt    *time.Time `json:"read_at"`
}

func (Notification) TableName() string { return "notifications" }

// Recipient selects whose queue an operation applies to.
type Recipient struct {
	Audience string
	UserID   *int64
	AdminID  *int64
}

func ForUser(id int64) Recipient {
	return Recipient{Audience: AudienceUser, UserID: &id}
}

func ForAdmin(id int64) Recipient {
	return Recipient{Audience: AudienceAdmin, AdminID: &id}
}

// AllAdmins is the broadcast recipient: the inserted row has a NULL admin id
// and every admin's queue includes it.
func AllAdmins() Recipient {
	return Recipient{Audience: AudienceAdmin}
}

// Event is the wire form published to the notification queue by the API and
// consumed by the worker. EventID is a ULID assigned by the publisher.
type Event struct {
	EventID    string `json:"event_id"`
	Kind       string `json:"kind"`
	Audience   string `json:"audience"`
	UserID     *int64 `json:"user_id,omitempty"`
	AdminID    *int64 `json:"admin_id,omitempty"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	EntityID   int64  `json:"entity_id"`
	EntityType string `json:"entity_type"`
	Action     string `json:"action"`
}

// Recipient derives whose queue the event targets.
func (e Event) Recipient() Recipient {
	if e.Audience == AudienceUser {
		return Recipient{Audience: AudienceUser, UserID: e.UserID}
	}
	return Recipient{Audience: AudienceAdmin, AdminID: e.AdminID}
}

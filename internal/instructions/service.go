package instructions

import (
	"context"
	"strings"
)

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

// Draft is an incoming message before persistence.
type Draft struct {
	TypeCode       int
	Body           string
	ClientID       *int64
	UserID         *int64
	AuthUserID     *int64
	ConversationID *int64
	Remarks        string
	Channel        string
	OriginIP       string
}

func (d *Draft) validate() error {
	if strings.TrimSpace(d.Body) == "" {
		return &ValidationError{Field: "body", Reason: "must not be empty"}
	}
	if d.UserID == nil && d.AuthUserID == nil {
		return &ValidationError{Field: "sender", Reason: "user_id or auth_user_id required"}
	}
	if CategoryOf(d.TypeCode) == CategoryUnknown {
		return &ValidationError{Field: "type_code", Reason: "unknown type code"}
	}
	if d.ConversationID != nil && *d.ConversationID <= 0 {
		return &ValidationError{Field: "conversation_id", Reason: "must be positive"}
	}
	return nil
}

// PostMessage persists a draft and returns the enriched saved record.
// A draft without a conversation id starts a new conversation whose id
// equals the new message id.
func (s *Service) PostMessage(ctx context.Context, d Draft) (*SavedMessage, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	remarks, err := NormalizeDraftRemarks(d.TypeCode, d.Remarks)
	if err != nil {
		return nil, err
	}

	channel := d.Channel
	if channel == "" {
		channel = "chat"
	}

	m := &Message{
		Category:       int(CategoryOf(d.TypeCode)),
		TypeCode:       d.TypeCode,
		Body:           d.Body,
		ClientID:       d.ClientID,
		UserID:         d.UserID,
		AuthUserID:     d.AuthUserID,
		ConversationID: d.ConversationID,
		Remarks:        remarks,
		Channel:        channel,
		OriginIP:       d.OriginIP,
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, err
	}

	if d.ConversationID == nil {
		if err := s.repo.BackfillConversationRoot(ctx, m.ID); err != nil {
			return nil, err
		}
	}

	return s.repo.GetSaved(ctx, m.ID)
}

func (s *Service) ListConversation(ctx context.Context, conversationID int64) ([]SavedMessage, error) {
	return s.repo.ListConversation(ctx, conversationID)
}

func (s *Service) ListByType(ctx context.Context, typeCode int) ([]SavedMessage, error) {
	if CategoryOf(typeCode) == CategoryUnknown {
		return nil, &ValidationError{Field: "type_code", Reason: "unknown type code"}
	}
	return s.repo.ListByType(ctx, typeCode)
}

func (s *Service) AllTickets(ctx context.Context) ([]SavedMessage, error) {
	return s.repo.ListRoots(ctx, TicketTypeCodes(), nil)
}

func (s *Service) AllInquiries(ctx context.Context) ([]SavedMessage, error) {
	return s.repo.ListRoots(ctx, InquiryTypeCodes(), nil)
}

func (s *Service) TicketsForClient(ctx context.Context, clientID int64) ([]SavedMessage, error) {
	return s.repo.ListRoots(ctx, TicketTypeCodes(), &clientID)
}

func (s *Service) InquiriesForClient(ctx context.Context, clientID int64) ([]SavedMessage, error) {
	return s.repo.ListRoots(ctx, InquiryTypeCodes(), &clientID)
}

// EditBody rewrites the body of an unresolved ticket/inquiry.
func (s *Service) EditBody(ctx context.Context, id int64, body string) error {
	if strings.TrimSpace(body) == "" {
		return &ValidationError{Field: "body", Reason: "must not be empty"}
	}
	return s.repo.UpdateBody(ctx, id, body)
}

// StatusName renders the completion flag for display and push events.
func StatusName(completed bool) string {
	if completed {
		return "Resolved"
	}
	return "Open"
}

// SetStatus flips completion on a ticket or inquiry root and returns the
// updated row.
func (s *Service) SetStatus(ctx context.Context, id int64, completed bool, byUser *int64, remarks *string) (*Message, error) {
	return s.repo.SetCompletion(ctx, id, completed, byUser, remarks)
}

// TicketDetails is the detail projection for one ticket/inquiry root.
type TicketDetails struct {
	SavedMessage
	TypeName string `json:"type_name"`
	Status   string `json:"status"`
}

func (s *Service) Details(ctx context.Context, id int64) (*TicketDetails, error) {
	sm, err := s.repo.GetSaved(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TicketDetails{
		SavedMessage: *sm,
		TypeName:     DisplayNameFor(sm.TypeCode),
		Status:       StatusName(sm.IsCompleted),
	}, nil
}

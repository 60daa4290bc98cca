package instructions

import (
	"context"
	"fmt"
	"time"
)

// SidebarEntry is the one-line projection of a conversation for a viewer.
// Route is "" for unknown type codes and the entry is then non-actionable.
type SidebarEntry struct {
	ConversationID int64     `json:"conversation_id"`
	TypeCode       int       `json:"type_code"`
	DisplayName    string    `json:"display_name"`
	Subtitle       string    `json:"subtitle"`
	AvatarClass    string    `json:"avatar_class"`
	Route          string    `json:"route"`
	IsCompleted    bool      `json:"is_completed"`
	LastActivity   time.Time `json:"last_activity"`
}

type Sidebar struct {
	PrivateChats  []SidebarEntry `json:"private_chats"`
	InternalChats []SidebarEntry `json:"internal_chats"`
	TicketChats   []SidebarEntry `json:"ticket_chats"`
	InquiryChats  []SidebarEntry `json:"inquiry_chats"`
	GroupChats    []SidebarEntry `json:"group_chats"`
}

const (
	internalChatLabel = "Internal Team"
	groupChatLabel    = "Support Group"
	subtitleMax       = 80
)

// Aggregator computes the per-viewer sidebar. Internal chats hang off the
// fixed operator client id and the open group off the shared group id, so
// those two kinds ignore the viewer.
type Aggregator struct {
	repo             *Repo
	operatorClientID int64
	groupClientID    int64
}

func NewAggregator(repo *Repo, operatorClientID, groupClientID int64) *Aggregator {
	return &Aggregator{repo: repo, operatorClientID: operatorClientID, groupClientID: groupClientID}
}

// GetSidebar computes the sidebar for one viewer. viewerIsClient switches
// the private-chat naming rule: the entry shows the counterpart, which is the
// client's name on the admin dashboard and the staff side for the client.
func (a *Aggregator) GetSidebar(ctx context.Context, viewerClientID int64, viewerIsClient bool) (*Sidebar, error) {
	sb := &Sidebar{
		PrivateChats:  []SidebarEntry{},
		InternalChats: []SidebarEntry{},
		TicketChats:   []SidebarEntry{},
		InquiryChats:  []SidebarEntry{},
		GroupChats:    []SidebarEntry{},
	}

	private, err := a.repo.LatestPerConversation(ctx, []int{TypeSupportPrivate}, viewerClientID)
	if err != nil {
		return nil, err
	}
	for _, h := range private {
		name := h.ClientName
		if viewerIsClient {
			// staff names resolve only when the latest message came from
			// the admin side; otherwise fall back to the type label
			if h.UserID != nil && h.AuthUserID == nil {
				name = h.SenderName
			} else {
				name = DisplayNameFor(TypeSupportPrivate)
			}
		} else if name == "" {
			name = h.SenderName
		}
		sb.PrivateChats = append(sb.PrivateChats, entryFor(h, name))
	}

	internal, err := a.repo.LatestPerConversation(ctx, []int{TypeInternalTeamChat}, a.operatorClientID)
	if err != nil {
		return nil, err
	}
	for _, h := range internal {
		sb.InternalChats = append(sb.InternalChats, entryFor(h, internalChatLabel))
	}

	tickets, err := a.repo.LatestPerConversation(ctx, TicketTypeCodes(), viewerClientID)
	if err != nil {
		return nil, err
	}
	for _, h := range tickets {
		sb.TicketChats = append(sb.TicketChats, entryFor(h, ticketLabel(h)))
	}

	inquiries, err := a.repo.LatestPerConversation(ctx, InquiryTypeCodes(), viewerClientID)
	if err != nil {
		return nil, err
	}
	for _, h := range inquiries {
		sb.InquiryChats = append(sb.InquiryChats, entryFor(h, ticketLabel(h)))
	}

	group, err := a.repo.LatestPerConversation(ctx, []int{TypeSupportGroup}, a.groupClientID)
	if err != nil {
		return nil, err
	}
	for _, h := range group {
		sb.GroupChats = append(sb.GroupChats, entryFor(h, groupChatLabel))
	}

	return sb, nil
}

// ticketLabel prefixes the conversation id so staff can quote it verbatim.
func ticketLabel(h ConversationHead) string {
	id := h.ID
	if h.ConversationID != nil {
		id = *h.ConversationID
	}
	return fmt.Sprintf("#%d - %s", id, DisplayNameFor(h.TypeCode))
}

func entryFor(h ConversationHead, displayName string) SidebarEntry {
	convID := h.ID
	if h.ConversationID != nil {
		convID = *h.ConversationID
	}
	return SidebarEntry{
		ConversationID: convID,
		TypeCode:       h.TypeCode,
		DisplayName:    displayName,
		Subtitle:       preview(h.Body),
		AvatarClass:    AvatarClassFor(h.TypeCode),
		Route:          RouteFor(h.TypeCode),
		IsCompleted:    h.IsCompleted,
		LastActivity:   h.CreatedAt,
	}
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= subtitleMax {
		return body
	}
	return string(runes[:subtitleMax-1]) + "…"
}

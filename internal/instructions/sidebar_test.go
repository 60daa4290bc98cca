package instructions

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

const (
	testOperatorID = int64(77)
	testGroupID    = int64(88)
)

func TestGetSidebar_OneEntryPerConversationWithLatestPreview(t *testing.T) {
	db := openTestDB(t)
	clientID, adminID := seedAccounts(t, db)
	repo := NewRepo(db)
	svc := NewService(repo)
	agg := NewAggregator(repo, testOperatorID, testGroupID)

	// two private conversations, the first with a newer reply
	first, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeSupportPrivate, Body: "older", ClientID: &clientID, AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeSupportPrivate, Body: "newest reply", ClientID: &clientID, UserID: &adminID,
		ConversationID: first.ConversationID,
	}); err != nil {
		t.Fatalf("reply: %v", err)
	}
	second, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeSupportPrivate, Body: "second thread", ClientID: &clientID, AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	sb, err := agg.GetSidebar(context.Background(), clientID, false)
	if err != nil {
		t.Fatalf("sidebar: %v", err)
	}

	if len(sb.PrivateChats) != 2 {
		t.Fatalf("expected 2 private entries, got %d", len(sb.PrivateChats))
	}
	seen := map[int64]string{}
	for _, e := range sb.PrivateChats {
		if _, dup := seen[e.ConversationID]; dup {
			t.Fatalf("duplicate conversation id %d", e.ConversationID)
		}
		seen[e.ConversationID] = e.Subtitle
	}
	if seen[first.ID] != "newest reply" {
		t.Fatalf("subtitle must be the newest body, got %q", seen[first.ID])
	}
	if seen[second.ID] != "second thread" {
		t.Fatalf("subtitle for second thread: %q", seen[second.ID])
	}
	for _, e := range sb.PrivateChats {
		if e.DisplayName != "Acme Ltd" {
			t.Fatalf("private display name: %q", e.DisplayName)
		}
		if e.Route != "support-private" {
			t.Fatalf("private route: %q", e.Route)
		}
	}
}

func TestGetSidebar_ClientViewNamesTheCounterpart(t *testing.T) {
	db := openTestDB(t)
	clientID, adminID := seedAccounts(t, db)
	repo := NewRepo(db)
	svc := NewService(repo)
	agg := NewAggregator(repo, testOperatorID, testGroupID)

	root, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeSupportPrivate, Body: "hello", ClientID: &clientID, AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	// latest message is the client's own, so there is no staff name yet
	sb, err := agg.GetSidebar(context.Background(), clientID, true)
	if err != nil {
		t.Fatalf("sidebar: %v", err)
	}
	if len(sb.PrivateChats) != 1 || sb.PrivateChats[0].DisplayName != "Private Support" {
		t.Fatalf("client view before staff reply: %+v", sb.PrivateChats)
	}

	if _, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeSupportPrivate, Body: "on it", ClientID: &clientID, UserID: &adminID,
		ConversationID: root.ConversationID,
	}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	// now the head is a staff message and the entry carries the staff name
	sb, err = agg.GetSidebar(context.Background(), clientID, true)
	if err != nil {
		t.Fatalf("sidebar: %v", err)
	}
	if len(sb.PrivateChats) != 1 || sb.PrivateChats[0].DisplayName != "Dana Reyes" {
		t.Fatalf("client view after staff reply: %+v", sb.PrivateChats)
	}

	// the admin dashboard keeps naming the entry after the client
	sb, err = agg.GetSidebar(context.Background(), clientID, false)
	if err != nil {
		t.Fatalf("sidebar: %v", err)
	}
	if sb.PrivateChats[0].DisplayName != "Acme Ltd" {
		t.Fatalf("admin view: %q", sb.PrivateChats[0].DisplayName)
	}
}

func TestGetSidebar_TicketLabelsAndRoutes(t *testing.T) {
	db := openTestDB(t)
	clientID, _ := seedAccounts(t, db)
	repo := NewRepo(db)
	svc := NewService(repo)
	agg := NewAggregator(repo, testOperatorID, testGroupID)

	tk, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeTicketMigration, Body: "move us", ClientID: &clientID, AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post ticket: %v", err)
	}
	if _, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeInquiryAccounts, Body: "invoice?", ClientID: &clientID, AuthUserID: &clientID,
	}); err != nil {
		t.Fatalf("post inquiry: %v", err)
	}

	sb, err := agg.GetSidebar(context.Background(), clientID, false)
	if err != nil {
		t.Fatalf("sidebar: %v", err)
	}

	if len(sb.TicketChats) != 1 || len(sb.InquiryChats) != 1 {
		t.Fatalf("expected 1 ticket + 1 inquiry, got %d/%d", len(sb.TicketChats), len(sb.InquiryChats))
	}

	want := fmt.Sprintf("#%d - Migration", tk.ID)
	if sb.TicketChats[0].DisplayName != want {
		t.Fatalf("ticket label = %q, want %q", sb.TicketChats[0].DisplayName, want)
	}
	if sb.TicketChats[0].Route != "ticket/migration" {
		t.Fatalf("ticket route: %q", sb.TicketChats[0].Route)
	}
	if sb.InquiryChats[0].Route != "inquiry/accounts" {
		t.Fatalf("inquiry route: %q", sb.InquiryChats[0].Route)
	}
	if sb.TicketChats[0].AvatarClass != "avatar-ticket" {
		t.Fatalf("avatar class: %q", sb.TicketChats[0].AvatarClass)
	}
}

func TestGetSidebar_FixedAnchorsAndEmptyKinds(t *testing.T) {
	db := openTestDB(t)
	clientID, adminID := seedAccounts(t, db)
	repo := NewRepo(db)
	svc := NewService(repo)
	agg := NewAggregator(repo, testOperatorID, testGroupID)

	opID := testOperatorID
	grID := testGroupID
	if _, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeInternalTeamChat, Body: "standup?", ClientID: &opID, UserID: &adminID,
	}); err != nil {
		t.Fatalf("post internal: %v", err)
	}
	if _, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeSupportGroup, Body: "welcome all", ClientID: &grID, UserID: &adminID,
	}); err != nil {
		t.Fatalf("post group: %v", err)
	}

	sb, err := agg.GetSidebar(context.Background(), clientID, false)
	if err != nil {
		t.Fatalf("sidebar: %v", err)
	}

	if len(sb.InternalChats) != 1 || sb.InternalChats[0].DisplayName != "Internal Team" {
		t.Fatalf("internal chats: %+v", sb.InternalChats)
	}
	if len(sb.GroupChats) != 1 || sb.GroupChats[0].DisplayName != "Support Group" {
		t.Fatalf("group chats: %+v", sb.GroupChats)
	}
	// viewer has no private/ticket/inquiry traffic: empty, not nil, not error
	if sb.PrivateChats == nil || len(sb.PrivateChats) != 0 {
		t.Fatalf("expected empty private chats, got %+v", sb.PrivateChats)
	}
	if len(sb.TicketChats) != 0 || len(sb.InquiryChats) != 0 {
		t.Fatalf("expected no tickets/inquiries")
	}
}

func TestPreviewTruncation(t *testing.T) {
	long := strings.Repeat("x", 200)
	p := preview(long)
	if len([]rune(p)) != subtitleMax {
		t.Fatalf("preview length = %d", len([]rune(p)))
	}
	if !strings.HasSuffix(p, "…") {
		t.Fatalf("preview should end with ellipsis")
	}
	if preview("short") != "short" {
		t.Fatalf("short bodies pass through")
	}
}

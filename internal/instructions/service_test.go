package instructions

import (
	"context"
	"errors"
	"fmt"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/klerio/helpdesk/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Client{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedAccounts(t *testing.T, db *gorm.DB) (clientID, adminID int64) {
	t.Helper()
	client := models.Client{Email: "acme@example.com", FullName: "Acme Ltd", PasswordHash: "x"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	admin := models.User{Email: "dana@example.com", Username: "dana", FullName: "Dana Reyes", PasswordHash: "x"}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return client.ID, admin.ID
}

func TestPostMessage_NewConversationIsSelfRooted(t *testing.T) {
	db := openTestDB(t)
	clientID, _ := seedAccounts(t, db)
	svc := NewService(NewRepo(db))

	saved, err := svc.PostMessage(context.Background(), Draft{
		TypeCode:   TypeSupportPrivate,
		Body:       "Hello",
		ClientID:   &clientID,
		AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if saved.ConversationID == nil || *saved.ConversationID != saved.ID {
		t.Fatalf("expected conversation id to equal message id, got %v vs %d", saved.ConversationID, saved.ID)
	}
	if saved.SenderName != "Acme Ltd" {
		t.Fatalf("expected sender name resolved to client, got %q", saved.SenderName)
	}
}

func TestPostMessage_ReplyKeepsConversation(t *testing.T) {
	db := openTestDB(t)
	clientID, adminID := seedAccounts(t, db)
	svc := NewService(NewRepo(db))

	root, err := svc.PostMessage(context.Background(), Draft{
		TypeCode:   TypeSupportPrivate,
		Body:       "Hello",
		ClientID:   &clientID,
		AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post root: %v", err)
	}

	reply, err := svc.PostMessage(context.Background(), Draft{
		TypeCode:       TypeSupportPrivate,
		Body:           "Hi back",
		ClientID:       &clientID,
		UserID:         &adminID,
		ConversationID: root.ConversationID,
	})
	if err != nil {
		t.Fatalf("post reply: %v", err)
	}
	if *reply.ConversationID != root.ID {
		t.Fatalf("reply joined wrong conversation: %d", *reply.ConversationID)
	}
	if reply.SenderName != "Dana Reyes" {
		t.Fatalf("expected admin sender name, got %q", reply.SenderName)
	}

	msgs, err := svc.ListConversation(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Body != "Hello" || msgs[1].Body != "Hi back" {
		t.Fatalf("wrong order: %q then %q", msgs[0].Body, msgs[1].Body)
	}
	if msgs[1].SenderName != "Dana Reyes" {
		t.Fatalf("second message attribution: %q", msgs[1].SenderName)
	}
	// the root row itself must be untouched by the reply
	if *msgs[0].ConversationID != msgs[0].ID {
		t.Fatalf("root lost self-reference")
	}
}

func TestPostMessage_Validation(t *testing.T) {
	db := openTestDB(t)
	clientID, _ := seedAccounts(t, db)
	svc := NewService(NewRepo(db))

	cases := []struct {
		name  string
		draft Draft
	}{
		{"empty body", Draft{TypeCode: TypeSupportPrivate, Body: "   ", AuthUserID: &clientID}},
		{"no sender", Draft{TypeCode: TypeSupportPrivate, Body: "hi"}},
		{"unknown type", Draft{TypeCode: 999, Body: "hi", AuthUserID: &clientID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.PostMessage(context.Background(), tc.draft); !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPostMessage_SupportPrivateRemarksStructured(t *testing.T) {
	db := openTestDB(t)
	clientID, _ := seedAccounts(t, db)
	svc := NewService(NewRepo(db))

	saved, err := svc.PostMessage(context.Background(), Draft{
		TypeCode:   TypeSupportPrivate,
		Body:       "help",
		Remarks:    "please expedite",
		ClientID:   &clientID,
		AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	r := DecodeRemarks(saved.TypeCode, saved.Remarks)
	if r.Kind != RemarksStructured {
		t.Fatalf("expected structured remarks, got kind %d raw=%q", r.Kind, saved.Remarks)
	}
	if r.Priority != "normal" || r.UserRemarks != "please expedite" {
		t.Fatalf("unexpected remarks: %+v", r)
	}
}

func TestEditBody_RejectsResolved(t *testing.T) {
	db := openTestDB(t)
	clientID, adminID := seedAccounts(t, db)
	svc := NewService(NewRepo(db))

	saved, err := svc.PostMessage(context.Background(), Draft{
		TypeCode:   TypeTicketBugFix,
		Body:       "it crashes",
		ClientID:   &clientID,
		AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if _, err := svc.SetStatus(context.Background(), saved.ID, true, &adminID, nil); err != nil {
		t.Fatalf("set status: %v", err)
	}

	err = svc.EditBody(context.Background(), saved.ID, "changed")
	if !errors.Is(err, ErrEditResolved) {
		t.Fatalf("expected ErrEditResolved, got %v", err)
	}

	var m Message
	if err := db.First(&m, saved.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m.Body != "it crashes" {
		t.Fatalf("resolved row was modified: %q", m.Body)
	}
}

func TestEditBody_IdenticalBodySucceeds(t *testing.T) {
	db := openTestDB(t)
	clientID, _ := seedAccounts(t, db)
	svc := NewService(NewRepo(db))

	saved, err := svc.PostMessage(context.Background(), Draft{
		TypeCode:   TypeTicketBugFix,
		Body:       "it crashes",
		ClientID:   &clientID,
		AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	// mysql reports zero affected rows when the new body equals the old one;
	// that must not be mistaken for a missing or resolved ticket
	if err := svc.EditBody(context.Background(), saved.ID, "it crashes"); err != nil {
		t.Fatalf("identical-body edit on open ticket: %v", err)
	}
}

func TestSetStatus_ReassertingCurrentStateSucceeds(t *testing.T) {
	db := openTestDB(t)
	clientID, adminID := seedAccounts(t, db)
	svc := NewService(NewRepo(db))

	saved, err := svc.PostMessage(context.Background(), Draft{
		TypeCode:   TypeTicketSetup,
		Body:       "install help",
		ClientID:   &clientID,
		AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	// setting an open ticket to open is a no-op flip, which mysql counts as
	// zero affected rows; it must still return the row, not a 404
	m, err := svc.SetStatus(context.Background(), saved.ID, false, nil, nil)
	if err != nil {
		t.Fatalf("reassert open: %v", err)
	}
	if m.ID != saved.ID || m.IsCompleted {
		t.Fatalf("reassert open returned: %+v", m)
	}

	if _, err := svc.SetStatus(context.Background(), saved.ID, true, &adminID, nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	m, err = svc.SetStatus(context.Background(), saved.ID, true, &adminID, nil)
	if err != nil {
		t.Fatalf("reassert resolved: %v", err)
	}
	if !m.IsCompleted {
		t.Fatalf("reassert resolved returned: %+v", m)
	}
}

func TestSetStatus_FlipsAndReports(t *testing.T) {
	db := openTestDB(t)
	clientID, adminID := seedAccounts(t, db)
	svc := NewService(NewRepo(db))

	saved, err := svc.PostMessage(context.Background(), Draft{
		TypeCode:   TypeTicketSetup,
		Body:       "install help",
		ClientID:   &clientID,
		AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	remarks := "done over call"
	m, err := svc.SetStatus(context.Background(), saved.ID, true, &adminID, &remarks)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if !m.IsCompleted || m.CompletedBy == nil || *m.CompletedBy != adminID || m.CompletedAt == nil {
		t.Fatalf("completion metadata missing: %+v", m)
	}

	det, err := svc.Details(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if det.Status != "Resolved" {
		t.Fatalf("expected Resolved, got %q", det.Status)
	}

	// reopening clears the metadata
	m, err = svc.SetStatus(context.Background(), saved.ID, false, &adminID, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if m.IsCompleted || m.CompletedBy != nil || m.CompletedAt != nil {
		t.Fatalf("reopen left metadata: %+v", m)
	}
}

func TestSetStatus_NotFound(t *testing.T) {
	db := openTestDB(t)
	seedAccounts(t, db)
	svc := NewService(NewRepo(db))

	_, err := svc.SetStatus(context.Background(), 9999, true, nil, nil)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListRoots_FiltersRootsAndClient(t *testing.T) {
	db := openTestDB(t)
	clientID, adminID := seedAccounts(t, db)
	svc := NewService(NewRepo(db))

	other := models.Client{Email: "other@example.com", FullName: "Other Co", PasswordHash: "x"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	root, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeTicketTraining, Body: "train us", ClientID: &clientID, AuthUserID: &clientID,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	// reply must not show up as a ticket row
	if _, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeTicketTraining, Body: "sure", ClientID: &clientID, UserID: &adminID,
		ConversationID: root.ConversationID,
	}); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if _, err := svc.PostMessage(context.Background(), Draft{
		TypeCode: TypeInquirySales, Body: "pricing?", ClientID: &other.ID, AuthUserID: &other.ID,
	}); err != nil {
		t.Fatalf("post inquiry: %v", err)
	}

	tickets, err := svc.AllTickets(context.Background())
	if err != nil {
		t.Fatalf("all tickets: %v", err)
	}
	if len(tickets) != 1 || tickets[0].ID != root.ID {
		t.Fatalf("expected the one ticket root, got %d rows", len(tickets))
	}

	mine, err := svc.TicketsForClient(context.Background(), other.ID)
	if err != nil {
		t.Fatalf("tickets for client: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("other client has no tickets, got %d", len(mine))
	}

	inqs, err := svc.InquiriesForClient(context.Background(), other.ID)
	if err != nil {
		t.Fatalf("inquiries for client: %v", err)
	}
	if len(inqs) != 1 {
		t.Fatalf("expected 1 inquiry, got %d", len(inqs))
	}
}

func TestListByType_UnknownCode(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	if _, err := svc.ListByType(context.Background(), 42); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

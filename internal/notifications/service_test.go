package notifications

import (
	"context"
	"fmt"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Notification{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func record(t *testing.T, svc *Service, rec Recipient, kind, title string) *Notification {
	t.Helper()
	ev := Event{
		Kind:       kind,
		Audience:   rec.Audience,
		UserID:     rec.UserID,
		AdminID:    rec.AdminID,
		Title:      title,
		Message:    "m",
		EntityID:   1,
		EntityType: "ticket",
		Action:     "ticket/bug-fix",
	}
	n, err := svc.RecordEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return n
}

func TestMarkRead_Idempotent(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))
	n := record(t, svc, ForUser(7), KindNewMessage, "hello")

	changed, err := svc.MarkRead(context.Background(), ForUser(7), n.ID)
	if err != nil || changed != 1 {
		t.Fatalf("first mark: changed=%d err=%v", changed, err)
	}
	changed, err = svc.MarkRead(context.Background(), ForUser(7), n.ID)
	if err != nil || changed != 0 {
		t.Fatalf("second mark must be a zero-row success: changed=%d err=%v", changed, err)
	}
}

func TestMarkReadAndDelete_ScopedToRecipient(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))
	n := record(t, svc, ForUser(7), KindNewMessage, "mine")

	// other principals cannot touch the row
	for _, rec := range []Recipient{ForUser(8), ForAdmin(1)} {
		changed, err := svc.MarkRead(context.Background(), rec, n.ID)
		if err != nil || changed != 0 {
			t.Fatalf("%+v marked foreign row: changed=%d err=%v", rec, changed, err)
		}
		changed, err = svc.Delete(context.Background(), rec, n.ID)
		if err != nil || changed != 0 {
			t.Fatalf("%+v deleted foreign row: changed=%d err=%v", rec, changed, err)
		}
	}

	// the row is still there and still unread for its owner
	unread, err := svc.UnreadCount(context.Background(), ForUser(7))
	if err != nil || unread != 1 {
		t.Fatalf("owner count after foreign attempts: %d err=%v", unread, err)
	}
}

func TestMarkAllRead_ThenCountZero(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))
	rec := ForUser(7)
	record(t, svc, rec, KindNewMessage, "a")
	record(t, svc, rec, KindNewMessage, "b")
	record(t, svc, ForUser(8), KindNewMessage, "someone else")

	changed, err := svc.MarkAllRead(context.Background(), rec)
	if err != nil || changed != 2 {
		t.Fatalf("mark all: changed=%d err=%v", changed, err)
	}
	n, err := svc.UnreadCount(context.Background(), rec)
	if err != nil || n != 0 {
		t.Fatalf("count after mark all: %d err=%v", n, err)
	}

	// none unread: still success, zero rows
	changed, err = svc.MarkAllRead(context.Background(), rec)
	if err != nil || changed != 0 {
		t.Fatalf("mark all on empty: changed=%d err=%v", changed, err)
	}

	// the other user's queue is untouched
	other, err := svc.UnreadCount(context.Background(), ForUser(8))
	if err != nil || other != 1 {
		t.Fatalf("other user count: %d err=%v", other, err)
	}

	// a fresh event makes the count non-zero again
	record(t, svc, rec, KindTicketUpdated, "c")
	n, err = svc.UnreadCount(context.Background(), rec)
	if err != nil || n != 1 {
		t.Fatalf("count after new event: %d err=%v", n, err)
	}
}

func TestAdminBroadcastSemantics(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))

	record(t, svc, AllAdmins(), KindNewTicket, "broadcast")
	record(t, svc, ForAdmin(5), KindNewMessage, "for five")
	record(t, svc, ForAdmin(6), KindNewMessage, "for six")
	record(t, svc, ForUser(5), KindNewMessage, "user five, not admin five")

	rows, err := svc.List(context.Background(), ForAdmin(5), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("admin 5 sees own + broadcast, got %d rows", len(rows))
	}
	titles := map[string]bool{}
	for _, r := range rows {
		titles[r.Title] = true
	}
	if !titles["broadcast"] || !titles["for five"] {
		t.Fatalf("wrong rows: %v", titles)
	}

	n, err := svc.UnreadCount(context.Background(), ForAdmin(6))
	if err != nil || n != 2 {
		t.Fatalf("admin 6 count: %d err=%v", n, err)
	}
}

func TestList_CapsAtFiftyNewestFirst(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))
	rec := ForUser(3)
	for i := 0; i < 60; i++ {
		record(t, svc, rec, KindNewMessage, fmt.Sprintf("n%02d", i))
	}

	rows, err := svc.List(context.Background(), rec, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 50 {
		t.Fatalf("expected 50 rows, got %d", len(rows))
	}
	if rows[0].Title != "n59" {
		t.Fatalf("newest first, got %q", rows[0].Title)
	}
	if rows[49].Title != "n10" {
		t.Fatalf("oldest kept should be n10, got %q", rows[49].Title)
	}
}

func TestDelete(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))
	n := record(t, svc, ForUser(1), KindNewMessage, "bye")

	changed, err := svc.Delete(context.Background(), ForUser(1), n.ID)
	if err != nil || changed != 1 {
		t.Fatalf("delete: changed=%d err=%v", changed, err)
	}
	changed, err = svc.Delete(context.Background(), ForUser(1), n.ID)
	if err != nil || changed != 0 {
		t.Fatalf("double delete: changed=%d err=%v", changed, err)
	}
}

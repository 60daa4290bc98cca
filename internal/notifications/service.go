package notifications

import (
	"context"
	"encoding/json"
)

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

type payload struct {
	EntityID int64  `json:"entity_id"`
	Action   string `json:"action"`
}

// RecordEvent inserts one unread notification from a queue event. Callers on
// the hot path publish events instead of calling this directly, so a failure
// here never fails a message or status operation.
func (s *Service) RecordEvent(ctx context.Context, ev Event) (*Notification, error) {
	b, err := json.Marshal(payload{EntityID: ev.EntityID, Action: ev.Action})
	if err != nil {
		return nil, err
	}
	n := &Notification{
		Audience:   ev.Audience,
		UserID:     ev.UserID,
		AdminID:    ev.AdminID,
		Kind:       ev.Kind,
		Title:      ev.Title,
		Message:    ev.Message,
		Payload:    string(b),
		EntityID:   &ev.EntityID,
		EntityType: ev.EntityType,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, rec Recipient, includeRead bool) ([]Notification, error) {
	return s.repo.List(ctx, rec, includeRead)
}

func (s *Service) MarkRead(ctx context.Context, rec Recipient, id int64) (int64, error) {
	return s.repo.MarkRead(ctx, rec, id)
}

func (s *Service) MarkAllRead(ctx context.Context, rec Recipient) (int64, error) {
	return s.repo.MarkAllRead(ctx, rec)
}

func (s *Service) UnreadCount(ctx context.Context, rec Recipient) (int64, error) {
	return s.repo.UnreadCount(ctx, rec)
}

func (s *Service) Delete(ctx context.Context, rec Recipient, id int64) (int64, error) {
	return s.repo.Delete(ctx, rec, id)
}

package notifications

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const listCap = 50

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Insert(ctx context.Context, n *Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Notification, error) {
	var n Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repo) recipientScope(q *gorm.DB, rec Recipient) *gorm.DB {
	if rec.Audience == AudienceUser {
		return q.Where("audience = ? AND user_id = ?", AudienceUser, rec.UserID)
	}
	if rec.AdminID != nil {
		// explicit rows plus admin broadcasts
		return q.Where("audience = ? AND (admin_id = ? OR admin_id IS NULL)", AudienceAdmin, *rec.AdminID)
	}
	return q.Where("audience = ? AND admin_id IS NULL", AudienceAdmin)
}

// List returns up to 50 most recent notifications for a recipient, newest
// first. includeRead widens the result beyond the unread queue.
func (r *Repo) List(ctx context.Context, rec Recipient, includeRead bool) ([]Notification, error) {
	q := r.recipientScope(r.db.WithContext(ctx), rec)
	if !includeRead {
		q = q.Where("is_read = ?", false)
	}
	var out []Notification
	if err := q.Order("id DESC").Limit(listCap).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead flips one of the recipient's notifications to read. Idempotent: an
// already-read row changes nothing and that is still success (count 0). Rows
// outside the recipient's scope are untouchable and also report 0.
func (r *Repo) MarkRead(ctx context.Context, rec Recipient, id int64) (int64, error) {
	now := time.Now()
	res := r.recipientScope(r.db.WithContext(ctx).Model(&Notification{}), rec).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]any{"is_read": true, "read_at": &now})
	return res.RowsAffected, res.Error
}

// MarkAllRead marks every unread notification of a recipient. Returns the
// number of rows actually changed; 0 is a valid result.
func (r *Repo) MarkAllRead(ctx context.Context, rec Recipient) (int64, error) {
	now := time.Now()
	res := r.recipientScope(r.db.WithContext(ctx).Model(&Notification{}), rec).
		Where("is_read = ?", false).
		Updates(map[string]any{"is_read": true, "read_at": &now})
	return res.RowsAffected, res.Error
}

// UnreadCount is the fast path for badge rendering.
func (r *Repo) UnreadCount(ctx context.Context, rec Recipient) (int64, error) {
	var n int64
	err := r.recipientScope(r.db.WithContext(ctx).Model(&Notification{}), rec).
		Where("is_read = ?", false).
		Count(&n).Error
	return n, err
}

func (r *Repo) Delete(ctx context.Context, rec Recipient, id int64) (int64, error) {
	res := r.recipientScope(r.db.WithContext(ctx).Where("id = ?", id), rec).
		Delete(&Notification{})
	return res.RowsAffected, res.Error
}

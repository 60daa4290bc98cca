package instructions

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

const savedSelect = `
SELECT i.*, COALESCE(c.full_name, u.full_name, '') AS sender_name
FROM instructions i
LEFT JOIN users u ON u.id = i.user_id
LEFT JOIN clients c ON c.id = i.auth_user_id`

func (r *Repo) Insert(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// BackfillConversationRoot makes a freshly inserted message the root of its
// own conversation. A no-op when the draft already carried a conversation id.
func (r *Repo) BackfillConversationRoot(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND conversation_id IS NULL", id).
		Update("conversation_id", id).Error
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetSaved returns the message with its sender name resolved. The
// client-side actor's name wins when both joins match.
func (r *Repo) GetSaved(ctx context.Context, id int64) (*SavedMessage, error) {
	var sm SavedMessage
	err := r.db.WithContext(ctx).
		Raw(savedSelect+" WHERE i.id = ?", id).
		Scan(&sm).Error
	if err != nil {
		return nil, err
	}
	if sm.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &sm, nil
}

// ListConversation returns every message of a conversation in ascending
// timestamp order.
func (r *Repo) ListConversation(ctx context.Context, conversationID int64) ([]SavedMessage, error) {
	var msgs []SavedMessage
	err := r.db.WithContext(ctx).
		Raw(savedSelect+" WHERE i.conversation_id = ? ORDER BY i.created_at ASC, i.id ASC", conversationID).
		Scan(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// LatestPerConversation selects the newest message of each distinct
// conversation matching the type-code set and client id. At most one row
// per conversation id.
func (r *Repo) LatestPerConversation(ctx context.Context, typeCodes []int, clientID int64) ([]ConversationHead, error) {
	var heads []ConversationHead
	err := r.db.WithContext(ctx).
		Raw(`
SELECT i.*,
       COALESCE(c.full_name, u.full_name, '') AS sender_name,
       COALESCE(cl.full_name, '') AS client_name
FROM instructions i
JOIN (
    SELECT conversation_id AS cid, MAX(id) AS mid
    FROM instructions
    WHERE type_code IN ? AND client_id = ? AND conversation_id IS NOT NULL
    GROUP BY conversation_id
) last ON last.mid = i.id
LEFT JOIN users u ON u.id = i.user_id
LEFT JOIN clients c ON c.id = i.auth_user_id
LEFT JOIN clients cl ON cl.id = i.client_id
ORDER BY i.conversation_id DESC`, typeCodes, clientID).
		Scan(&heads).Error
	if err != nil {
		return nil, err
	}
	return heads, nil
}

// ListByType returns all rows of one type code, newest first.
func (r *Repo) ListByType(ctx context.Context, typeCode int) ([]SavedMessage, error) {
	var msgs []SavedMessage
	err := r.db.WithContext(ctx).
		Raw(savedSelect+" WHERE i.type_code = ? ORDER BY i.id DESC", typeCode).
		Scan(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListRoots returns conversation roots (first messages) for a type-code set,
// optionally restricted to one client. Used for the ticket/inquiry tables.
func (r *Repo) ListRoots(ctx context.Context, typeCodes []int, clientID *int64) ([]SavedMessage, error) {
	q := savedSelect + " WHERE i.type_code IN ? AND i.conversation_id = i.id"
	args := []any{typeCodes}
	if clientID != nil {
		q += " AND i.client_id = ?"
		args = append(args, *clientID)
	}
	q += " ORDER BY i.id DESC"

	var msgs []SavedMessage
	if err := r.db.WithContext(ctx).Raw(q, args...).Scan(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// UpdateBody edits an unresolved ticket/inquiry body. Resolved rows are
// immutable and report ErrEditResolved.
func (r *Repo) UpdateBody(ctx context.Context, id int64, body string) error {
	res := r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND is_completed = ?", id, false).
		Update("body", body)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// mysql reports changed rows, not matched rows, so a zero here is
		// ambiguous: missing row, resolved row, or an identical body. Refetch
		// to tell them apart.
		var m Message
		if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
			return err
		}
		if m.IsCompleted {
			return ErrEditResolved
		}
	}
	return nil
}

// SetCompletion flips the completion flag and metadata on a conversation
// root and returns the updated row.
func (r *Repo) SetCompletion(ctx context.Context, id int64, completed bool, byUser *int64, remarks *string) (*Message, error) {
	updates := map[string]any{
		"is_completed":       completed,
		"completed_by":       nil,
		"completed_at":       nil,
		"completion_remarks": nil,
	}
	if completed {
		now := time.Now()
		updates["completed_by"] = byUser
		updates["completed_at"] = &now
		updates["completion_remarks"] = remarks
	}
	res := r.db.WithContext(ctx).Model(&Message{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	// zero affected rows is either a missing row or a no-op flip (mysql only
	// counts changed rows); the refetch answers both
	return r.GetByID(ctx, id)
}

func (r *Repo) ClientName(ctx context.Context, clientID int64) (string, error) {
	var name string
	err := r.db.WithContext(ctx).
		Raw("SELECT full_name FROM clients WHERE id = ?", clientID).
		Scan(&name).Error
	return name, err
}

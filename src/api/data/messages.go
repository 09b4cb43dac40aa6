package data

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Sam-Sparxz/Portfolio/src/api/types"
)

// MessageStore persists contact messages in the contact_messages table.
type MessageStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db, now: time.Now}
}

// Insert stores msg as a new row. The server-assigned ID and created_at are
// written back into msg.
func (s *MessageStore) Insert(ctx context.Context, msg *types.ContactMessage) error {
	msg.ID = 0
	msg.CreatedAt = types.FormatTimestamp(s.now())
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

// List returns up to limit messages, newest first.
func (s *MessageStore) List(ctx context.Context, limit int) ([]types.ContactMessage, error) {
	msgs := []types.ContactMessage{}
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return msgs, nil
}

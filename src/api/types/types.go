package types

import (
	"strings"
	"time"
)

// TimestampLayout is how created_at is stored: ISO-8601 UTC with microseconds
// and an explicit +00:00 offset.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// ContactMessage is a stored contact-form submission.
type ContactMessage struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"size:120;not null" json:"name"`
	Email     string `gorm:"size:320;not null" json:"email"`
	Subject   string `gorm:"size:200;not null" json:"subject"`
	Message   string `gorm:"type:text;not null" json:"message"`
	CreatedAt string `gorm:"size:64;not null" json:"created_at"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}

// FormatTimestamp renders t in the stored created_at format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ContactRequest is the body of POST /api/contact. Honeypot is never stored.
type ContactRequest struct {
	Name     string `json:"name" validate:"min=2,max=80"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Subject  string `json:"subject" validate:"min=3,max=200"`
	Message  string `json:"message" validate:"min=10,max=2500"`
	Honeypot string `json:"honeypot,omitempty" validate:"-"`
}

// Normalize trims surrounding whitespace from every field.
func (r *ContactRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)
	r.Honeypot = strings.TrimSpace(r.Honeypot)
}

// IsSpam reports whether the hidden honeypot field was filled in.
func (r ContactRequest) IsSpam() bool {
	return strings.TrimSpace(r.Honeypot) != ""
}

func (r ContactRequest) ToMessage() ContactMessage {
	return ContactMessage{
		Name:    r.Name,
		Email:   r.Email,
		Subject: r.Subject,
		Message: r.Message,
	}
}

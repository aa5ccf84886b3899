package models

import (
	"time"

	"gorm.io/gorm"
)

// Invitation statuses
const (
	InvitationQueued = "queued"
	InvitationSent   = "sent"
	InvitationFailed = "failed"
)

// InvitationTemplate represents an email template for event invitations.
// Subject and body support {{first_name}}, {{last_name}}, {{event_name}} and
// {{rsvp_link}} placeholders substituted at send time.
type InvitationTemplate struct {
	gorm.Model
	OrganizationID uint `gorm:"not null;index" json:"organization_id"`

	Name        string `gorm:"not null" json:"name"`
	Subject     string `gorm:"not null" json:"subject"`
	HTMLContent string `gorm:"type:text" json:"html_content"`
	TextContent string `gorm:"type:text" json:"text_content"`

	// Relations
	Organization Organization `json:"-"`
}

// Invitation represents one queued/sent invitation email for a guest.
// Rows are created by the send-invitations endpoint and drained by the
// invitation worker.
type Invitation struct {
	gorm.Model
	EventID    uint `gorm:"not null;index" json:"event_id"`
	GuestID    uint `gorm:"not null;index" json:"guest_id"`
	TemplateID uint `gorm:"not null" json:"template_id"`
	QueuedByID uint `gorm:"not null" json:"queued_by_id"`

	Recipient string     `gorm:"not null" json:"recipient"`
	Status    string     `gorm:"not null;default:'queued';index" json:"status"` // queued, sent, failed
	SentAt    *time.Time `json:"sent_at,omitempty"`
	LastError *string    `json:"last_error,omitempty"`
	Attempts  int        `gorm:"default:0" json:"attempts"`

	// Relations
	Event    Event              `json:"-"`
	Guest    Guest              `json:"-"`
	Template InvitationTemplate `gorm:"foreignKey:TemplateID" json:"-"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// RSVP statuses
const (
	RSVPPending  = "pending"
	RSVPAccepted = "accepted"
	RSVPDeclined = "declined"
	RSVPMaybe    = "maybe"
)

// Event represents a single event owned by an organization. Deleting an
// event is a soft delete (gorm.Model.DeletedAt); soft-deleted events are
// invisible to every query in the API layer.
type Event struct {
	gorm.Model
	OrganizationID uint `gorm:"not null;index" json:"organization_id"`
	CreatedByID    uint `gorm:"not null" json:"created_by_id"`

	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Status      string     `gorm:"default:'draft'" json:"status"` // draft, published, completed, canceled

	// Statistics (denormalized for dashboards)
	GuestCount int `gorm:"default:0" json:"guest_count"`

	// Relations
	Organization   Organization    `json:"-"`
	Guests         []Guest         `gorm:"foreignKey:EventID" json:"guests,omitempty"`
	Suppliers      []Supplier      `gorm:"foreignKey:EventID" json:"suppliers,omitempty"`
	BudgetItems    []BudgetItem    `gorm:"foreignKey:EventID" json:"budget_items,omitempty"`
	LogisticsItems []LogisticsItem `gorm:"foreignKey:EventID" json:"logistics_items,omitempty"`
}

// Guest represents a single invited person on an event's guest list.
// LastName is non-null: the bulk import path persists an empty string when
// the column is absent, while direct guest creation requires a value.
type Guest struct {
	gorm.Model
	EventID uint `gorm:"not null;index" json:"event_id"`

	Title       *string `json:"title,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    string  `gorm:"not null" json:"last_name"`
	Email       *string `gorm:"index" json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	GuestRole   *string `json:"guest_role,omitempty"` // e.g. speaker, vip, plus_one

	Source string `json:"source"` // manual, csv, xlsx

	// Relations
	Event Event  `json:"-"`
	RSVPs []RSVP `gorm:"foreignKey:GuestID" json:"rsvps,omitempty"`
}

// RSVP tracks a guest's response to an event invitation. One placeholder row
// with status "pending" is created alongside every persisted guest.
type RSVP struct {
	gorm.Model
	EventID uint `gorm:"not null;index" json:"event_id"`
	GuestID uint `gorm:"not null;index" json:"guest_id"`

	Status        string     `gorm:"not null;default:'pending'" json:"status"` // pending, accepted, declined, maybe
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	PlusOnes      int        `gorm:"default:0" json:"plus_ones"`
	Note          string     `json:"note"`
	ResponseToken string     `gorm:"uniqueIndex" json:"-"` // for the public respond-by-link flow

	// Relations
	Event Event `json:"-"`
	Guest Guest `json:"-"`
}

// Supplier represents a vendor engaged for an event
type Supplier struct {
	gorm.Model
	EventID        uint `gorm:"not null;index" json:"event_id"`
	OrganizationID uint `gorm:"not null;index" json:"organization_id"`

	Name         string `gorm:"not null" json:"name"`
	Category     string `json:"category"` // catering, venue, av, decor, ...
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Status       string `gorm:"default:'prospect'" json:"status"` // prospect, contacted, booked, canceled
	Notes        string `gorm:"type:text" json:"notes"`

	// Relations
	Event Event `json:"-"`
}

// BudgetItem represents a single budget line for an event
type BudgetItem struct {
	gorm.Model
	EventID uint `gorm:"not null;index" json:"event_id"`

	Name         string `gorm:"not null" json:"name"`
	Category     string `json:"category"`
	PlannedCents int    `gorm:"default:0" json:"planned_cents"`
	ActualCents  int    `gorm:"default:0" json:"actual_cents"`
	Currency     string `gorm:"default:'usd'" json:"currency"`
	SupplierID   *uint  `json:"supplier_id,omitempty"`

	// Relations
	Event    Event     `json:"-"`
	Supplier *Supplier `json:"supplier,omitempty"`
}

// LogisticsItem represents a logistics task for an event
type LogisticsItem struct {
	gorm.Model
	EventID uint `gorm:"not null;index" json:"event_id"`

	Name         string     `gorm:"not null" json:"name"`
	Description  string     `json:"description"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	AssignedToID *uint      `json:"assigned_to_id,omitempty"`
	Status       string     `gorm:"default:'open'" json:"status"` // open, in_progress, done

	// Relations
	Event      Event `json:"-"`
	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}

// ImportHistory is an audit record written once per guest import run.
// Never mutated or deleted by the import pipeline.
type ImportHistory struct {
	gorm.Model
	EventID    uint `gorm:"not null;index" json:"event_id"`
	ImportedBy uint `gorm:"not null" json:"imported_by"`

	FileName      string `json:"file_name"`
	RowsSubmitted int    `gorm:"not null" json:"rows_submitted"`
	FailedBatches int    `gorm:"default:0" json:"failed_batches"`

	// Relations
	Event Event `json:"-"`
	User  User  `gorm:"foreignKey:ImportedBy" json:"-"`
}

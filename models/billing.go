package models

import "gorm.io/gorm"

// Plan represents a subscription tier. GuestLimit is the per-event ceiling
// enforced by the guest import pipeline and direct guest creation.
type Plan struct {
	gorm.Model
	Name        string `gorm:"not null;uniqueIndex" json:"name"` // starter, starter_plus, pro, enterprise
	Description string `json:"description"`

	// Limits
	GuestLimit     int `gorm:"not null" json:"guest_limit"`  // per event
	MaxEvents      int `gorm:"default:0" json:"max_events"` // 0 = unlimited
	MaxMembers     int `gorm:"default:0" json:"max_members"`
	MonthlyInvites int `gorm:"default:0" json:"monthly_invites"`

	// Pricing
	PriceCents int `gorm:"not null" json:"price_cents"` // in cents

	// For display purposes
	DisplayPrice string `gorm:"-" json:"display_price"` // e.g. "$29"
	IsPopular    bool   `gorm:"default:false" json:"is_popular"`

	StripePriceID   string `json:"stripe_price_id"`
	BillingInterval string `json:"billing_interval" gorm:"default:'monthly'"` // monthly, yearly
}

// SubscriptionTransaction records plan purchases and upgrades
type SubscriptionTransaction struct {
	gorm.Model
	OrganizationID uint  `gorm:"not null;index" json:"organization_id"`
	PlanID         *uint `json:"plan_id,omitempty"`

	Amount        int    `json:"amount"` // in cents
	Currency      string `gorm:"default:'usd'" json:"currency"`
	PaymentStatus string `gorm:"default:'pending'" json:"payment_status"` // pending, completed, failed, refunded

	StripePaymentIntentID string `json:"stripe_payment_intent_id"`
	StripeInvoiceID       string `json:"stripe_invoice_id,omitempty"`
	ReceiptURL            string `json:"receipt_url,omitempty"`

	// Relations
	Organization Organization `json:"-"`
	Plan         *Plan        `json:"plan,omitempty"`
}

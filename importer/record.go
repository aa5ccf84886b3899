package importer

import "strings"

// Recognized column headers. Matching is case-insensitive and tolerant of
// surrounding whitespace; anything else in the file is ignored.
const (
	colTitle     = "title"
	colFirstName = "first_name"
	colLastName  = "last_name"
	colEmail     = "email"
	colPhone     = "phone_number"
	colRole      = "role"
)

// GuestRecord is one parsed, not-yet-persisted row from an import file.
// Optional columns map to nil when absent or blank; LastName defaults to the
// empty string, which the downstream guest table accepts for imported rows.
type GuestRecord struct {
	Title       *string `json:"title,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    string  `json:"last_name"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Role        *string `json:"role,omitempty"`
}

// recordFromRow maps a header-keyed row onto the fixed GuestRecord shape.
func recordFromRow(data map[string]string) GuestRecord {
	return GuestRecord{
		Title:       optional(data[colTitle]),
		FirstName:   optional(data[colFirstName]),
		LastName:    strings.TrimSpace(data[colLastName]),
		Email:       optional(data[colEmail]),
		PhoneNumber: optional(data[colPhone]),
		Role:        optional(data[colRole]),
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	return h
}

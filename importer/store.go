package importer

import (
	"context"

	"planvite/models"

	"gorm.io/gorm"
)

// Store is the persistence surface the pipeline writes through. The
// production implementation is GORM-backed; tests substitute fakes.
type Store interface {
	// GuestCount returns the current number of guests on the event.
	GuestCount(ctx context.Context, eventID uint) (int64, error)

	// CreateGuests inserts one batch of guests, filling generated IDs.
	CreateGuests(ctx context.Context, guests []models.Guest) error

	// CreateRSVPs inserts the paired placeholder RSVP rows for a batch.
	CreateRSVPs(ctx context.Context, rsvps []models.RSVP) error

	// RecordHistory writes the audit record for a completed run.
	RecordHistory(ctx context.Context, entry *models.ImportHistory) error
}

// NewGormStore returns a Store backed by the database.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) GuestCount(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Guest{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

func (s *gormStore) CreateGuests(ctx context.Context, guests []models.Guest) error {
	return s.db.WithContext(ctx).Create(&guests).Error
}

func (s *gormStore) CreateRSVPs(ctx context.Context, rsvps []models.RSVP) error {
	return s.db.WithContext(ctx).Create(&rsvps).Error
}

func (s *gormStore) RecordHistory(ctx context.Context, entry *models.ImportHistory) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

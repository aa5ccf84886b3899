package importer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"planvite/models"
	"planvite/utils"

	"github.com/badoux/checkmail"
)

// BatchSize is the fixed chunk size for guest writes. The last batch of a
// run may be smaller.
const BatchSize = 100

// ErrNoRows rejects a file whose header parsed but carried no data rows.
var ErrNoRows = errors.New("file has no data rows")

// CapacityError rejects an entire run that would exceed the event's
// remaining guest capacity. Nothing is persisted.
type CapacityError struct {
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	shortfall := e.Requested - e.Remaining
	spots := "spots"
	if shortfall == 1 {
		spots = "spot"
	}
	return fmt.Sprintf("guest limit exceeded: importing %d rows needs %d more %s (only %d remaining)",
		e.Requested, shortfall, spots, e.Remaining)
}

// ProgressFunc receives (processedRows, totalRows) after every batch.
type ProgressFunc func(processed, total int)

// RunInput carries one import invocation. The caller has already verified
// MANAGE_GUESTS; the pipeline does not re-check permissions.
type RunInput struct {
	EventID    uint
	UserID     uint
	FileName   string
	GuestLimit int // per-event ceiling for the organization's tier
	Records    []GuestRecord
	OnProgress ProgressFunc // optional
}

// Result summarizes one run. A run can partially succeed: failed batches are
// dropped while the others persist.
type Result struct {
	Submitted     int `json:"submitted"`
	Persisted     int `json:"persisted"`
	FailedBatches int `json:"failed_batches"`
	InvalidEmails int `json:"invalid_emails"`
}

// Pipeline converts parsed guest records into persisted Guest + RSVP rows.
type Pipeline struct {
	store  Store
	logger *log.Logger
	source string // recorded on each guest row: csv or xlsx
}

func NewPipeline(store Store, logger *log.Logger) *Pipeline {
	return &Pipeline{store: store, logger: logger, source: "import"}
}

// Run executes one import: capacity check, then sequential 100-row batches,
// then one history record. Batches are independent write units; a failed
// batch is logged and skipped without touching the ones before or after it.
// There is no dedup key: re-running the same file duplicates guests.
func (p *Pipeline) Run(ctx context.Context, in RunInput) (*Result, error) {
	total := len(in.Records)
	if total == 0 {
		return nil, ErrNoRows
	}

	// Capacity is checked once against the pre-run count. Two concurrent
	// imports can together exceed the ceiling; the limit is best-effort.
	current, err := p.store.GuestCount(ctx, in.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count existing guests: %w", err)
	}
	remaining := in.GuestLimit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	if total > remaining {
		return nil, &CapacityError{Requested: total, Remaining: remaining}
	}

	result := &Result{Submitted: total}
	processed := 0

	for start := 0; start < total; start += BatchSize {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("import canceled after %d rows: %w", processed, err)
		}

		end := start + BatchSize
		if end > total {
			end = total
		}
		batch := in.Records[start:end]

		guests := make([]models.Guest, 0, len(batch))
		for _, rec := range batch {
			email := rec.Email
			if email != nil {
				if err := checkmail.ValidateFormat(*email); err != nil {
					result.InvalidEmails++
					email = nil
				}
			}
			guests = append(guests, models.Guest{
				EventID:     in.EventID,
				Title:       rec.Title,
				FirstName:   rec.FirstName,
				LastName:    rec.LastName,
				Email:       email,
				PhoneNumber: rec.PhoneNumber,
				GuestRole:   rec.Role,
				Source:      p.source,
			})
		}

		if err := p.store.CreateGuests(ctx, guests); err != nil {
			p.logger.Printf("failed to import batch %d-%d for event %d: %v", start, end, in.EventID, err)
			result.FailedBatches++
			processed += len(batch)
			p.reportProgress(in, processed, total)
			continue
		}

		rsvps := make([]models.RSVP, 0, len(guests))
		for _, g := range guests {
			token, err := utils.GenerateSecureToken()
			if err != nil {
				return result, fmt.Errorf("failed to generate RSVP token: %w", err)
			}
			rsvps = append(rsvps, models.RSVP{
				EventID:       in.EventID,
				GuestID:       g.ID,
				Status:        models.RSVPPending,
				ResponseToken: token,
			})
		}
		if err := p.store.CreateRSVPs(ctx, rsvps); err != nil {
			p.logger.Printf("failed to create RSVPs for batch %d-%d on event %d: %v", start, end, in.EventID, err)
			result.FailedBatches++
			processed += len(batch)
			p.reportProgress(in, processed, total)
			continue
		}

		result.Persisted += len(guests)
		processed += len(batch)
		p.reportProgress(in, processed, total)
	}

	// The history record carries the submitted count, not the persisted one;
	// partial failures surface through FailedBatches.
	history := &models.ImportHistory{
		EventID:       in.EventID,
		ImportedBy:    in.UserID,
		FileName:      in.FileName,
		RowsSubmitted: total,
		FailedBatches: result.FailedBatches,
	}
	if err := p.store.RecordHistory(ctx, history); err != nil {
		p.logger.Printf("failed to record import history for event %d: %v", in.EventID, err)
	}

	return result, nil
}

func (p *Pipeline) reportProgress(in RunInput, processed, total int) {
	if in.OnProgress != nil {
		in.OnProgress(processed, total)
	}
}

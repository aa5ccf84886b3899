package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"

	"planvite/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	existing int64
	countErr error

	guests  []models.Guest
	rsvps   []models.RSVP
	history []*models.ImportHistory

	nextID uint

	// 1-based index of guest batches that fail on write
	failGuestBatches map[int]bool
	guestBatchCalls  int

	failRSVPBatches map[int]bool
	rsvpBatchCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		failGuestBatches: make(map[int]bool),
		failRSVPBatches:  make(map[int]bool),
	}
}

func (f *fakeStore) GuestCount(ctx context.Context, eventID uint) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.existing, nil
}

func (f *fakeStore) CreateGuests(ctx context.Context, guests []models.Guest) error {
	f.guestBatchCalls++
	if f.failGuestBatches[f.guestBatchCalls] {
		return errors.New("insert failed")
	}
	for i := range guests {
		f.nextID++
		guests[i].ID = f.nextID
	}
	f.guests = append(f.guests, guests...)
	return nil
}

func (f *fakeStore) CreateRSVPs(ctx context.Context, rsvps []models.RSVP) error {
	f.rsvpBatchCalls++
	if f.failRSVPBatches[f.rsvpBatchCalls] {
		return errors.New("insert failed")
	}
	f.rsvps = append(f.rsvps, rsvps...)
	return nil
}

func (f *fakeStore) RecordHistory(ctx context.Context, entry *models.ImportHistory) error {
	f.history = append(f.history, entry)
	return nil
}

func testPipeline(store Store) *Pipeline {
	return NewPipeline(store, log.New(io.Discard, "", 0))
}

func makeRecords(n int) []GuestRecord {
	records := make([]GuestRecord, n)
	for i := range records {
		email := fmt.Sprintf("guest%d@example.com", i)
		records[i] = GuestRecord{
			LastName: fmt.Sprintf("Guest%d", i),
			Email:    &email,
		}
	}
	return records
}

func TestRunRejectsEmptyFile(t *testing.T) {
	store := newFakeStore()
	_, err := testPipeline(store).Run(context.Background(), RunInput{
		EventID:    1,
		GuestLimit: 100,
	})
	require.ErrorIs(t, err, ErrNoRows)
	assert.Empty(t, store.guests)
	assert.Empty(t, store.history, "a rejected run writes no history")
}

func TestRunPersistsGuestsAndPendingRSVPs(t *testing.T) {
	store := newFakeStore()
	result, err := testPipeline(store).Run(context.Background(), RunInput{
		EventID:    7,
		UserID:     3,
		FileName:   "guests.csv",
		GuestLimit: 500,
		Records:    makeRecords(250),
	})
	require.NoError(t, err)

	assert.Equal(t, 250, result.Submitted)
	assert.Equal(t, 250, result.Persisted)
	assert.Zero(t, result.FailedBatches)
	assert.Len(t, store.guests, 250)
	assert.Len(t, store.rsvps, 250)

	// 100 + 100 + 50
	assert.Equal(t, 3, store.guestBatchCalls)

	seen := make(map[string]bool)
	for i, r := range store.rsvps {
		assert.Equal(t, models.RSVPPending, r.Status)
		assert.Equal(t, uint(7), r.EventID)
		assert.Equal(t, store.guests[i].ID, r.GuestID)
		assert.NotEmpty(t, r.ResponseToken)
		assert.False(t, seen[r.ResponseToken], "response tokens must be unique")
		seen[r.ResponseToken] = true
	}

	require.Len(t, store.history, 1)
	assert.Equal(t, 250, store.history[0].RowsSubmitted)
	assert.Equal(t, 0, store.history[0].FailedBatches)
	assert.Equal(t, uint(3), store.history[0].ImportedBy)
	assert.Equal(t, "guests.csv", store.history[0].FileName)
}

func TestRunRejectsOverCapacityWithoutWriting(t *testing.T) {
	store := newFakeStore()
	store.existing = 498

	// Pro tier: 500 guests, 2 spots left, 3 rows submitted
	_, err := testPipeline(store).Run(context.Background(), RunInput{
		EventID:    7,
		GuestLimit: 500,
		Records:    makeRecords(3),
	})
	require.Error(t, err)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 3, capErr.Requested)
	assert.Equal(t, 2, capErr.Remaining)
	assert.Contains(t, capErr.Error(), "1 more spot")

	// All-or-nothing: an over-capacity run persists no rows at all
	assert.Empty(t, store.guests)
	assert.Empty(t, store.rsvps)
	assert.Empty(t, store.history)
}

func TestRunAcceptsExactlyRemainingCapacity(t *testing.T) {
	store := newFakeStore()
	store.existing = 498

	result, err := testPipeline(store).Run(context.Background(), RunInput{
		EventID:    7,
		GuestLimit: 500,
		Records:    makeRecords(2),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Persisted)
}

func TestRunTreatsOverfullEventAsZeroRemaining(t *testing.T) {
	store := newFakeStore()
	store.existing = 120 // above the ceiling already, e.g. after a downgrade

	_, err := testPipeline(store).Run(context.Background(), RunInput{
		EventID:    7,
		GuestLimit: 100,
		Records:    makeRecords(1),
	})
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 0, capErr.Remaining)
}

func TestRunSkipsFailedBatchAndContinues(t *testing.T) {
	store := newFakeStore()
	store.failGuestBatches[2] = true

	result, err := testPipeline(store).Run(context.Background(), RunInput{
		EventID:    7,
		GuestLimit: 1000,
		Records:    makeRecords(250),
	})
	require.NoError(t, err, "a failed batch does not fail the run")

	assert.Equal(t, 250, result.Submitted)
	assert.Equal(t, 150, result.Persisted)
	assert.Equal(t, 1, result.FailedBatches)

	// Batches 1 and 3 landed untouched
	assert.Len(t, store.guests, 150)
	assert.Len(t, store.rsvps, 150)

	require.Len(t, store.history, 1)
	assert.Equal(t, 250, store.history[0].RowsSubmitted)
	assert.Equal(t, 1, store.history[0].FailedBatches)
}

func TestRunCountsRSVPFailureAsFailedBatch(t *testing.T) {
	store := newFakeStore()
	store.failRSVPBatches[1] = true

	result, err := testPipeline(store).Run(context.Background(), RunInput{
		EventID:    7,
		GuestLimit: 1000,
		Records:    makeRecords(150),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.FailedBatches)
	assert.Equal(t, 50, result.Persisted)
}

func TestRunDropsInvalidEmails(t *testing.T) {
	bad := "not-an-email"
	good := "valid@example.com"
	records := []GuestRecord{
		{LastName: "One", Email: &bad},
		{LastName: "Two", Email: &good},
		{LastName: "Three"},
	}

	store := newFakeStore()
	result, err := testPipeline(store).Run(context.Background(), RunInput{
		EventID:    7,
		GuestLimit: 100,
		Records:    records,
	})
	require.NoError(t, err)

	// The row still imports; only its email is discarded
	assert.Equal(t, 3, result.Persisted)
	assert.Equal(t, 1, result.InvalidEmails)

	require.Len(t, store.guests, 3)
	assert.Nil(t, store.guests[0].Email)
	require.NotNil(t, store.guests[1].Email)
	assert.Equal(t, good, *store.guests[1].Email)
}

func TestRunReportsProgressPerBatch(t *testing.T) {
	store := newFakeStore()

	var processed []int
	var totals []int
	_, err := testPipeline(store).Run(context.Background(), RunInput{
		EventID:    7,
		GuestLimit: 1000,
		Records:    makeRecords(250),
		OnProgress: func(p, total int) {
			processed = append(processed, p)
			totals = append(totals, total)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{100, 200, 250}, processed)
	assert.Equal(t, []int{250, 250, 250}, totals)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	store := newFakeStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := testPipeline(store).Run(ctx, RunInput{
		EventID:    7,
		GuestLimit: 1000,
		Records:    makeRecords(250),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Persisted)
	assert.Empty(t, store.guests)
}

func TestRunHasNoDedupAcrossRuns(t *testing.T) {
	store := newFakeStore()
	pipeline := testPipeline(store)
	records := makeRecords(10)

	_, err := pipeline.Run(context.Background(), RunInput{EventID: 7, GuestLimit: 100, Records: records})
	require.NoError(t, err)
	store.existing = 10

	// Re-running the same file creates a second copy of every guest
	_, err = pipeline.Run(context.Background(), RunInput{EventID: 7, GuestLimit: 100, Records: records})
	require.NoError(t, err)

	assert.Len(t, store.guests, 20)
	assert.Len(t, store.history, 2)
}

func TestRunFailsWhenCountUnavailable(t *testing.T) {
	store := newFakeStore()
	store.countErr = errors.New("db down")

	_, err := testPipeline(store).Run(context.Background(), RunInput{
		EventID:    7,
		GuestLimit: 100,
		Records:    makeRecords(1),
	})
	require.Error(t, err)
	assert.Empty(t, store.guests)
}

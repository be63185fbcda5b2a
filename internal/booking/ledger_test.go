package booking_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-marketplace/internal/booking"
	"github.com/iliyamo/campus-marketplace/internal/booking/bookingtest"
	"github.com/iliyamo/campus-marketplace/internal/model"
)

type fixture struct {
	ledger   *booking.Ledger
	store    *bookingtest.Store
	listings *bookingtest.Listings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := bookingtest.NewStore()
	listings := bookingtest.NewListings()
	listings.Put(model.ListingSnapshot{ID: "h1", OwnerID: "owner-1", Type: model.ServiceHostel, Name: "North Hall", Price: 5000})
	listings.Put(model.ListingSnapshot{ID: "m1", OwnerID: "owner-1", Type: model.ServiceMess, Name: "Green Mess", Price: 2000})
	listings.Put(model.ListingSnapshot{ID: "g1", OwnerID: "owner-2", Type: model.ServiceGym, Name: "Iron Gym", Price: 1500})
	users := bookingtest.Users{
		"student-1": {ID: "student-1", Username: "asha", Email: "asha@campus.test"},
		"student-2": {ID: "student-2", Username: "ben", Email: "ben@campus.test"},
	}

	var clockMu sync.Mutex
	clock := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	seq := 0
	logger := zerolog.New(io.Discard)
	f := &fixture{store: store, listings: listings}
	f.ledger = booking.NewLedger(store, listings, users, &logger,
		booking.WithClock(func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			clock = clock.Add(time.Minute)
			return clock
		}),
		booking.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("b%d", seq)
		}),
	)
	return f
}

func dateP(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (f *fixture) hostelBooking(t *testing.T, student string) *model.Booking {
	t.Helper()
	b, err := f.ledger.Create(context.Background(), booking.CreateRequest{
		StudentID:   student,
		ServiceType: "hostel",
		ServiceID:   "h1",
		Details:     model.BookingDetails{CheckInDate: dateP(2025, 2, 1), Duration: "3 months"},
	})
	require.NoError(t, err)
	return b
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("hostel booking starts pending and unpaid", func(t *testing.T) {
		f := newFixture(t)
		b := f.hostelBooking(t, "student-1")
		assert.Equal(t, model.StatusPending, b.Status)
		assert.Equal(t, model.PaymentUnpaid, b.PaymentStatus)
		assert.Equal(t, "owner-1", b.OwnerID)
		assert.Equal(t, "student-1", b.StudentID)
		assert.Equal(t, b.CreatedAt, b.UpdatedAt)

		stored, err := f.store.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, *b, *stored)
	})

	t.Run("gym needs only duration", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.ledger.Create(ctx, booking.CreateRequest{
			StudentID: "student-1", ServiceType: "gym", ServiceID: "g1",
			Details: model.BookingDetails{Duration: "1 month"},
		})
		require.NoError(t, err)
		assert.Equal(t, "owner-2", b.OwnerID)
	})

	t.Run("unknown service type", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Create(ctx, booking.CreateRequest{StudentID: "student-1", ServiceType: "library", ServiceID: "h1"})
		assert.ErrorIs(t, err, booking.ErrInvalidServiceType)
	})

	t.Run("missing listing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Create(ctx, booking.CreateRequest{
			StudentID: "student-1", ServiceType: "mess", ServiceID: "nope",
			Details: model.BookingDetails{StartDate: dateP(2025, 2, 1), Duration: "1 month"},
		})
		assert.ErrorIs(t, err, booking.ErrListingNotFound)
	})

	t.Run("listing checked before details", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Create(ctx, booking.CreateRequest{StudentID: "student-1", ServiceType: "hostel", ServiceID: "nope"})
		assert.ErrorIs(t, err, booking.ErrListingNotFound)
	})

	t.Run("mess without start date", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Create(ctx, booking.CreateRequest{
			StudentID: "student-1", ServiceType: "mess", ServiceID: "m1",
			Details: model.BookingDetails{Duration: "1 month"},
		})
		var verr *booking.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "bookingDetails.startDate", verr.Field)
		assert.ErrorIs(t, err, booking.ErrValidation)
	})

	t.Run("hostel with blank duration", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Create(ctx, booking.CreateRequest{
			StudentID: "student-1", ServiceType: "hostel", ServiceID: "h1",
			Details: model.BookingDetails{CheckInDate: dateP(2025, 2, 1), Duration: "  "},
		})
		var verr *booking.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "bookingDetails.duration", verr.Field)
	})

	t.Run("overlong details are rejected before storage", func(t *testing.T) {
		cases := []struct {
			field   string
			details model.BookingDetails
		}{
			{"bookingDetails.duration", model.BookingDetails{Duration: "1 month " + strings.Repeat("x", booking.MaxDurationLen)}},
			{"bookingDetails.additionalRequirements", model.BookingDetails{Duration: "1 month", AdditionalRequirements: strings.Repeat("é", booking.MaxRequirementsLen+1)}},
		}
		for _, tc := range cases {
			f := newFixture(t)
			_, err := f.ledger.Create(ctx, booking.CreateRequest{
				StudentID: "student-1", ServiceType: "gym", ServiceID: "g1", Details: tc.details,
			})
			var verr *booking.ValidationError
			require.ErrorAs(t, err, &verr, tc.field)
			assert.Equal(t, tc.field, verr.Field)
			rows, err := f.store.ListByStudent(ctx, "student-1")
			require.NoError(t, err)
			assert.Empty(t, rows)
		}
	})

	t.Run("duration at the column limit is accepted", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Create(ctx, booking.CreateRequest{
			StudentID: "student-1", ServiceType: "gym", ServiceID: "g1",
			Details: model.BookingDetails{Duration: strings.Repeat("9", booking.MaxDurationLen)},
		})
		require.NoError(t, err)
	})

	t.Run("raw dates are parsed after the listing resolves", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Create(ctx, booking.CreateRequest{
			StudentID: "student-1", ServiceType: "hostel", ServiceID: "nope",
			Details: model.BookingDetails{Duration: "1 month"},
			Dates:   booking.RawDates{CheckInDate: "next week"},
		})
		assert.ErrorIs(t, err, booking.ErrListingNotFound)

		_, err = f.ledger.Create(ctx, booking.CreateRequest{
			StudentID: "student-1", ServiceType: "hostel", ServiceID: "h1",
			Details: model.BookingDetails{Duration: "1 month"},
			Dates:   booking.RawDates{CheckInDate: "next week"},
		})
		var verr *booking.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "bookingDetails.checkInDate", verr.Field)

		b, err := f.ledger.Create(ctx, booking.CreateRequest{
			StudentID: "student-1", ServiceType: "mess", ServiceID: "m1",
			Details: model.BookingDetails{Duration: "1 month"},
			Dates:   booking.RawDates{StartDate: "2025-02-01T08:00:00+05:30"},
		})
		require.NoError(t, err)
		require.NotNil(t, b.Details.StartDate)
		assert.Equal(t, time.Date(2025, 2, 1, 2, 30, 0, 0, time.UTC), *b.Details.StartDate)
	})

	t.Run("dates a type does not use are ignored", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.ledger.Create(ctx, booking.CreateRequest{
			StudentID: "student-1", ServiceType: "gym", ServiceID: "g1",
			Details: model.BookingDetails{Duration: "1 month"},
			Dates:   booking.RawDates{CheckInDate: "garbage", StartDate: "also garbage"},
		})
		require.NoError(t, err)
		assert.Nil(t, b.Details.CheckInDate)
		assert.Nil(t, b.Details.StartDate)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		f := newFixture(t)
		f.store.Err = errors.New("disk full")
		_, err := f.ledger.Create(ctx, booking.CreateRequest{
			StudentID: "student-1", ServiceType: "gym", ServiceID: "g1",
			Details: model.BookingDetails{Duration: "1 month"},
		})
		assert.ErrorIs(t, err, booking.ErrStorage)
		assert.Equal(t, "StorageError", booking.Kind(err))
	})
}

func TestOwnerCapturedAtCreation(t *testing.T) {
	f := newFixture(t)
	b := f.hostelBooking(t, "student-1")

	f.listings.Put(model.ListingSnapshot{ID: "h1", OwnerID: "owner-9", Type: model.ServiceHostel, Name: "North Hall", Price: 5000})

	views, err := f.ledger.ListForOwner(context.Background(), "owner-1", nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, b.ID, views[0].ID)

	_, err = f.ledger.UpdateStatus(context.Background(), "owner-9", b.ID, model.StatusAccepted)
	assert.ErrorIs(t, err, booking.ErrForbidden)
}

func TestListForOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.hostelBooking(t, "student-1")
	second := f.hostelBooking(t, "student-2")
	_, err := f.ledger.UpdateStatus(ctx, "owner-1", first.ID, model.StatusAccepted)
	require.NoError(t, err)

	before := f.listings.Lookups()
	all, err := f.ledger.ListForOwner(ctx, "owner-1", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	require.NotNil(t, all[0].Listing)
	assert.Equal(t, "North Hall", all[0].Listing.Name)
	require.NotNil(t, all[0].Student)
	assert.Equal(t, "ben", all[0].Student.Username)
	assert.Equal(t, 1, f.listings.Lookups()-before, "one lookup per distinct listing")

	pending := model.StatusPending
	onlyPending, err := f.ledger.ListForOwner(ctx, "owner-1", &pending)
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, second.ID, onlyPending[0].ID)

	customers, err := f.ledger.ListAcceptedCustomers(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, first.ID, customers[0].ID)

	none, err := f.ledger.ListForOwner(ctx, "owner-2", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)

	bogus := model.BookingStatus("archived")
	_, err = f.ledger.ListForOwner(ctx, "owner-1", &bogus)
	assert.ErrorIs(t, err, booking.ErrValidation)
}

func TestListForStudentWithDeletedListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.hostelBooking(t, "student-1")
	f.listings.Delete(b.Ref())

	views, err := f.ledger.ListForStudent(ctx, "student-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].Listing)
	assert.Nil(t, views[0].Student)

	views, err = f.ledger.ListForStudent(ctx, "student-2")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("owner accepts", func(t *testing.T) {
		f := newFixture(t)
		b := f.hostelBooking(t, "student-1")
		got, err := f.ledger.UpdateStatus(ctx, "owner-1", b.ID, model.StatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, model.StatusAccepted, got.Status)
		assert.True(t, got.UpdatedAt.After(b.CreatedAt))
	})

	t.Run("terminal status is final", func(t *testing.T) {
		f := newFixture(t)
		b := f.hostelBooking(t, "student-1")
		_, err := f.ledger.UpdateStatus(ctx, "owner-1", b.ID, model.StatusRejected)
		require.NoError(t, err)
		_, err = f.ledger.UpdateStatus(ctx, "owner-1", b.ID, model.StatusAccepted)
		assert.ErrorIs(t, err, booking.ErrInvalidTransition)
		stored, _ := f.store.GetByID(ctx, b.ID)
		assert.Equal(t, model.StatusRejected, stored.Status)
	})

	t.Run("other owner is forbidden", func(t *testing.T) {
		f := newFixture(t)
		b := f.hostelBooking(t, "student-1")
		_, err := f.ledger.UpdateStatus(ctx, "owner-2", b.ID, model.StatusAccepted)
		assert.ErrorIs(t, err, booking.ErrForbidden)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.UpdateStatus(ctx, "owner-1", "missing", model.StatusAccepted)
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})

	t.Run("owner cannot cancel or reset", func(t *testing.T) {
		f := newFixture(t)
		b := f.hostelBooking(t, "student-1")
		for _, s := range []model.BookingStatus{model.StatusCancelled, model.StatusPending, "archived"} {
			_, err := f.ledger.UpdateStatus(ctx, "owner-1", b.ID, s)
			assert.ErrorIs(t, err, booking.ErrValidation, string(s))
		}
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("student cancels a pending booking", func(t *testing.T) {
		f := newFixture(t)
		b := f.hostelBooking(t, "student-1")

		_, err := f.ledger.Cancel(ctx, "student-2", b.ID)
		assert.ErrorIs(t, err, booking.ErrForbidden)

		got, err := f.ledger.Cancel(ctx, "student-1", b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)

		_, err = f.ledger.UpdateStatus(ctx, "owner-1", b.ID, model.StatusAccepted)
		assert.ErrorIs(t, err, booking.ErrInvalidTransition)
	})

	terminal := []struct {
		name  string
		reach func(f *fixture, id string) error
		want  model.BookingStatus
	}{
		{"accepted", func(f *fixture, id string) error {
			_, err := f.ledger.UpdateStatus(ctx, "owner-1", id, model.StatusAccepted)
			return err
		}, model.StatusAccepted},
		{"rejected", func(f *fixture, id string) error {
			_, err := f.ledger.UpdateStatus(ctx, "owner-1", id, model.StatusRejected)
			return err
		}, model.StatusRejected},
		{"cancelled", func(f *fixture, id string) error {
			_, err := f.ledger.Cancel(ctx, "student-1", id)
			return err
		}, model.StatusCancelled},
	}
	for _, tc := range terminal {
		t.Run("fails once "+tc.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.hostelBooking(t, "student-1")
			require.NoError(t, tc.reach(f, b.ID))

			_, err := f.ledger.Cancel(ctx, "student-1", b.ID)
			assert.ErrorIs(t, err, booking.ErrInvalidTransition)
			assert.Equal(t, "InvalidTransition", booking.Kind(err))

			stored, err := f.store.GetByID(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, stored.Status)
		})
	}
}

func TestConcurrentTransitionsApplyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.hostelBooking(t, "student-1")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.ledger.UpdateStatus(ctx, "owner-1", b.ID, model.StatusAccepted)
			} else {
				_, err = f.ledger.Cancel(ctx, "student-1", b.ID)
			}
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, booking.ErrInvalidTransition) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}

func TestPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.hostelBooking(t, "student-1")

	_, err := f.ledger.RecordPayment(ctx, "owner-2", b.ID)
	assert.ErrorIs(t, err, booking.ErrForbidden)

	got, err := f.ledger.RecordPayment(ctx, "owner-1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, model.StatusPending, got.Status, "payment leaves status alone")

	_, err = f.ledger.SettlePayment(ctx, b.ID)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)

	_, err = f.ledger.SettlePayment(ctx, "missing")
	assert.ErrorIs(t, err, booking.ErrNotFound)

	other := f.hostelBooking(t, "student-2")
	got, err = f.ledger.SettlePayment(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", booking.Kind(nil))
	assert.Equal(t, "", booking.Kind(errors.New("boom")))
	assert.Equal(t, "NotFound", booking.Kind(fmt.Errorf("%w: x", booking.ErrNotFound)))
	assert.Equal(t, "ValidationError", booking.Kind(&booking.ValidationError{Field: "status"}))
	assert.Equal(t, "InvalidTransition", booking.Kind(booking.ErrInvalidTransition))
}

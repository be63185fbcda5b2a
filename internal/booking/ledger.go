// Package booking owns the booking lifecycle: creation against a hostel,
// mess or gym listing, owner and student views, and the guarded
// pending -> accepted/rejected/cancelled transitions.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/campus-marketplace/internal/metrics"
	"github.com/iliyamo/campus-marketplace/internal/model"
	"github.com/iliyamo/campus-marketplace/internal/repository"
)

// Store persists bookings. UpdateStatusIf and UpdatePaymentIf must apply
// only while the stored value equals `from` and return
// repository.ErrConflict otherwise; GetByID returns repository.ErrNotFound
// for unknown ids.
type Store interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByOwner(ctx context.Context, ownerID string, status *model.BookingStatus) ([]model.Booking, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Booking, error)
	UpdateStatusIf(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) error
	UpdatePaymentIf(ctx context.Context, id string, from, to model.PaymentStatus, at time.Time) error
}

// ListingResolver resolves a polymorphic listing reference. Missing
// listings are reported as repository.ErrNotFound.
type ListingResolver interface {
	Get(ctx context.Context, ref model.ListingRef) (*model.ListingSnapshot, error)
}

// UserDirectory returns user summaries keyed by id.
type UserDirectory interface {
	Summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error)
}

// CreateRequest is a student's booking request.
type CreateRequest struct {
	StudentID   string
	ServiceType string
	ServiceID   string
	Details     model.BookingDetails
	// Dates, when set, are parsed into Details after the listing resolves.
	Dates RawDates
}

// Ledger applies booking operations on top of a Store. It holds no
// booking state of its own, so any number of ledgers may share a database.
type Ledger struct {
	store    Store
	listings ListingResolver
	users    UserDirectory
	logger   *zerolog.Logger

	now   func() time.Time
	newID func() string
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

// WithIDGenerator overrides booking id generation.
func WithIDGenerator(gen func() string) Option { return func(l *Ledger) { l.newID = gen } }

func NewLedger(store Store, listings ListingResolver, users UserDirectory, logger *zerolog.Logger, opts ...Option) *Ledger {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := &Ledger{
		store:    store,
		listings: listings,
		users:    users,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Create validates and persists a new pending, unpaid booking. Checks run
// in a fixed order: service type, listing existence, then the type's
// dates and required details. The owner is copied from the listing at this moment
// and never re-derived.
func (l *Ledger) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	st, err := ParseServiceType(req.ServiceType)
	if err != nil {
		return nil, err
	}
	if req.ServiceID == "" {
		return nil, fmt.Errorf("%w: empty service id", ErrListingNotFound)
	}
	ref := model.ListingRef{Type: st, ID: req.ServiceID}
	listing, err := l.listings.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrListingNotFound, st, req.ServiceID)
		}
		return nil, l.storageErr("resolve listing", err)
	}
	details := req.Details
	if err := ApplyDates(st, req.Dates, &details); err != nil {
		return nil, err
	}
	if err := ValidateDetails(st, details); err != nil {
		return nil, err
	}

	now := l.now()
	b := &model.Booking{
		ID:            l.newID(),
		StudentID:     req.StudentID,
		OwnerID:       listing.OwnerID,
		ServiceType:   st,
		ServiceID:     req.ServiceID,
		Details:       details,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := l.store.Create(ctx, b); err != nil {
		return nil, l.storageErr("create booking", err)
	}
	metrics.IncBookingCreated(string(st))
	l.logger.Info().
		Str("booking_id", b.ID).
		Str("student_id", b.StudentID).
		Str("owner_id", b.OwnerID).
		Str("service_type", string(st)).
		Msg("booking created")
	return b, nil
}

// ListForOwner returns the owner's bookings newest first, each decorated
// with its listing snapshot and the requesting student's summary. A nil
// status returns every status.
func (l *Ledger) ListForOwner(ctx context.Context, ownerID string, status *model.BookingStatus) ([]model.BookingView, error) {
	if status != nil && !status.Valid() {
		return nil, &ValidationError{Field: "status", Msg: fmt.Sprintf("unknown status %q", *status)}
	}
	rows, err := l.store.ListByOwner(ctx, ownerID, status)
	if err != nil {
		return nil, l.storageErr("list owner bookings", err)
	}
	return l.decorate(ctx, rows, true)
}

// ListAcceptedCustomers returns the owner's accepted bookings with student
// details, i.e. the owner's current customers.
func (l *Ledger) ListAcceptedCustomers(ctx context.Context, ownerID string) ([]model.BookingView, error) {
	accepted := model.StatusAccepted
	return l.ListForOwner(ctx, ownerID, &accepted)
}

// ListForStudent returns the student's bookings newest first with listing
// snapshots attached.
func (l *Ledger) ListForStudent(ctx context.Context, studentID string) ([]model.BookingView, error) {
	rows, err := l.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, l.storageErr("list student bookings", err)
	}
	return l.decorate(ctx, rows, false)
}

// UpdateStatus lets the booking's owner accept or reject a pending
// booking.
func (l *Ledger) UpdateStatus(ctx context.Context, actorID, bookingID string, target model.BookingStatus) (*model.Booking, error) {
	if target != model.StatusAccepted && target != model.StatusRejected {
		return nil, &ValidationError{Field: "status", Msg: "must be accepted or rejected"}
	}
	b, err := l.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != actorID {
		return nil, fmt.Errorf("%w: booking belongs to another owner", ErrForbidden)
	}
	return l.transition(ctx, b, target)
}

// Cancel lets the requesting student withdraw a pending booking.
func (l *Ledger) Cancel(ctx context.Context, actorID, bookingID string) (*model.Booking, error) {
	b, err := l.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.StudentID != actorID {
		return nil, fmt.Errorf("%w: booking belongs to another student", ErrForbidden)
	}
	return l.transition(ctx, b, model.StatusCancelled)
}

// RecordPayment marks a booking paid on behalf of its owner. Payment is
// tracked independently of the lifecycle status.
func (l *Ledger) RecordPayment(ctx context.Context, actorID, bookingID string) (*model.Booking, error) {
	b, err := l.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != actorID {
		return nil, fmt.Errorf("%w: booking belongs to another owner", ErrForbidden)
	}
	return l.markPaid(ctx, b, "owner")
}

// SettlePayment marks a booking paid from a trusted settlement event,
// without an actor check.
func (l *Ledger) SettlePayment(ctx context.Context, bookingID string) (*model.Booking, error) {
	b, err := l.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return l.markPaid(ctx, b, "settlement")
}

func (l *Ledger) get(ctx context.Context, id string) (*model.Booking, error) {
	b, err := l.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, l.storageErr("load booking", err)
	}
	return b, nil
}

func (l *Ledger) transition(ctx context.Context, b *model.Booking, target model.BookingStatus) (*model.Booking, error) {
	if !b.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
	}
	now := l.now()
	err := l.store.UpdateStatusIf(ctx, b.ID, b.Status, target, now)
	switch {
	case errors.Is(err, repository.ErrConflict):
		metrics.IncTransitionConflict()
		return nil, l.lostRace(ctx, b.ID, func(cur *model.Booking) string { return string(cur.Status) })
	case err != nil:
		return nil, l.storageErr("update booking status", err)
	}
	from := b.Status
	b.Status = target
	b.UpdatedAt = now
	metrics.IncBookingTransition(string(target))
	l.logger.Info().
		Str("booking_id", b.ID).
		Str("from", string(from)).
		Str("to", string(target)).
		Msg("booking status changed")
	return b, nil
}

func (l *Ledger) markPaid(ctx context.Context, b *model.Booking, source string) (*model.Booking, error) {
	if b.PaymentStatus == model.PaymentPaid {
		return nil, fmt.Errorf("%w: booking already paid", ErrInvalidTransition)
	}
	now := l.now()
	err := l.store.UpdatePaymentIf(ctx, b.ID, model.PaymentUnpaid, model.PaymentPaid, now)
	switch {
	case errors.Is(err, repository.ErrConflict):
		metrics.IncTransitionConflict()
		return nil, l.lostRace(ctx, b.ID, func(cur *model.Booking) string { return string(cur.PaymentStatus) })
	case err != nil:
		return nil, l.storageErr("update payment status", err)
	}
	b.PaymentStatus = model.PaymentPaid
	b.UpdatedAt = now
	metrics.IncPaymentRecorded(source)
	l.logger.Info().Str("booking_id", b.ID).Str("source", source).Msg("booking paid")
	return b, nil
}

// lostRace builds the error for a conditional update that matched no row.
// The booking is re-read so a concurrent delete surfaces as NotFound.
func (l *Ledger) lostRace(ctx context.Context, id string, state func(*model.Booking) string) error {
	cur, err := l.get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: booking changed concurrently, now %s", ErrInvalidTransition, state(cur))
}

// decorate attaches listing snapshots (and student summaries when
// withStudent is set). Each distinct listing is resolved once per call.
func (l *Ledger) decorate(ctx context.Context, rows []model.Booking, withStudent bool) ([]model.BookingView, error) {
	out := make([]model.BookingView, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	snapshots := make(map[model.ListingRef]*model.ListingSnapshot)
	for _, b := range rows {
		ref := b.Ref()
		if _, ok := snapshots[ref]; ok {
			continue
		}
		s, err := l.listings.Get(ctx, ref)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, l.storageErr("resolve listing", err)
		}
		snapshots[ref] = s
	}
	var students map[string]model.UserSummary
	if withStudent && l.users != nil {
		ids := make([]string, 0, len(rows))
		for _, b := range rows {
			ids = append(ids, b.StudentID)
		}
		var err error
		students, err = l.users.Summaries(ctx, ids)
		if err != nil {
			return nil, l.storageErr("load students", err)
		}
	}
	for _, b := range rows {
		v := model.BookingView{Booking: b, Listing: snapshots[b.Ref()]}
		if u, ok := students[b.StudentID]; ok {
			u := u
			v.Student = &u
		}
		out = append(out, v)
	}
	return out, nil
}

func (l *Ledger) storageErr(op string, err error) error {
	l.logger.Error().Err(err).Str("op", op).Msg("booking storage failure")
	return &StorageError{Op: op, Err: err}
}

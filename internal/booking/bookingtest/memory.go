// Package bookingtest provides in-memory implementations of the booking
// ledger's storage interfaces for tests.
package bookingtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/campus-marketplace/internal/model"
	"github.com/iliyamo/campus-marketplace/internal/repository"
)

// Store is a mutex guarded booking store with the same conditional update
// semantics as repository.BookingRepo.
type Store struct {
	mu       sync.Mutex
	bookings map[string]model.Booking

	// Err, when set, is returned by every method.
	Err error
}

func NewStore() *Store { return &Store{bookings: make(map[string]model.Booking)} }

func (s *Store) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.bookings[b.ID] = *b
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (s *Store) ListByOwner(_ context.Context, ownerID string, status *model.BookingStatus) ([]model.Booking, error) {
	return s.filter(func(b model.Booking) bool {
		return b.OwnerID == ownerID && (status == nil || b.Status == *status)
	})
}

func (s *Store) ListByStudent(_ context.Context, studentID string) ([]model.Booking, error) {
	return s.filter(func(b model.Booking) bool { return b.StudentID == studentID })
}

func (s *Store) ListSettledByOwner(_ context.Context, ownerID string) ([]model.Booking, error) {
	return s.filter(func(b model.Booking) bool {
		return b.OwnerID == ownerID && b.Status == model.StatusAccepted && b.PaymentStatus == model.PaymentPaid
	})
}

func (s *Store) UpdateStatusIf(_ context.Context, id string, from, to model.BookingStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return repository.ErrConflict
	}
	b.Status = to
	b.UpdatedAt = at
	s.bookings[id] = b
	return nil
}

func (s *Store) UpdatePaymentIf(_ context.Context, id string, from, to model.PaymentStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	b, ok := s.bookings[id]
	if !ok || b.PaymentStatus != from {
		return repository.ErrConflict
	}
	b.PaymentStatus = to
	b.UpdatedAt = at
	s.bookings[id] = b
	return nil
}

// Put stores b as is, bypassing the ledger. Tests use it to seed states.
func (s *Store) Put(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b
}

// Delete removes a booking row.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookings, id)
}

func (s *Store) filter(keep func(model.Booking) bool) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]model.Booking, 0)
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Listings is an in-memory listing resolver. It counts lookups so tests
// can assert how often a listing was resolved.
type Listings struct {
	mu       sync.Mutex
	listings map[model.ListingRef]model.ListingSnapshot
	lookups  int

	Err error
}

func NewListings() *Listings {
	return &Listings{listings: make(map[model.ListingRef]model.ListingSnapshot)}
}

// Put adds or replaces a listing.
func (l *Listings) Put(s model.ListingSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s.TypeLabel == "" {
		s.TypeLabel = s.Type.Label()
	}
	l.listings[model.ListingRef{Type: s.Type, ID: s.ID}] = s
}

// SetPrice changes the current price of an existing listing.
func (l *Listings) SetPrice(ref model.ListingRef, price int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.listings[ref]
	s.Price = price
	l.listings[ref] = s
}

// Delete removes a listing.
func (l *Listings) Delete(ref model.ListingRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.listings, ref)
}

// Lookups returns how many Get calls were made.
func (l *Listings) Lookups() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lookups
}

func (l *Listings) Get(_ context.Context, ref model.ListingRef) (*model.ListingSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lookups++
	if l.Err != nil {
		return nil, l.Err
	}
	s, ok := l.listings[ref]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

// Users is an in-memory user directory.
type Users map[string]model.UserSummary

func (u Users) Summaries(_ context.Context, ids []string) (map[string]model.UserSummary, error) {
	out := make(map[string]model.UserSummary, len(ids))
	for _, id := range ids {
		if s, ok := u[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

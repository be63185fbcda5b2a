// Package revenue derives owner revenue reports from accepted and paid
// bookings. Reports are recomputed on every call and never stored.
package revenue

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/campus-marketplace/internal/booking"
	"github.com/iliyamo/campus-marketplace/internal/metrics"
	"github.com/iliyamo/campus-marketplace/internal/model"
	"github.com/iliyamo/campus-marketplace/internal/repository"
)

// SettledSource lists an owner's accepted and paid bookings, newest first.
type SettledSource interface {
	ListSettledByOwner(ctx context.Context, ownerID string) ([]model.Booking, error)
}

// Aggregator computes revenue snapshots. Prices are read from the listing
// at report time, so a price change applies to past bookings as well.
type Aggregator struct {
	bookings SettledSource
	listings booking.ListingResolver
	users    booking.UserDirectory
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewAggregator(bookings SettledSource, listings booking.ListingResolver, users booking.UserDirectory, logger *zerolog.Logger) *Aggregator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Aggregator{
		bookings: bookings,
		listings: listings,
		users:    users,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Summary builds the revenue snapshot of one owner. An owner without paid
// bookings gets zeroed aggregates with every service type present.
func (a *Aggregator) Summary(ctx context.Context, ownerID string) (*model.RevenueSnapshot, error) {
	start := time.Now()
	defer func() { metrics.ObserveRevenueSummary(time.Since(start)) }()

	rows, err := a.bookings.ListSettledByOwner(ctx, ownerID)
	if err != nil {
		return nil, a.storageErr("list settled bookings", err)
	}

	snap := &model.RevenueSnapshot{
		OwnerID:            ownerID,
		ServiceTypeRevenue: make(map[model.ServiceType]int64, len(model.ServiceTypes)),
		MonthlyData:        []model.MonthlyRevenue{},
		RecentTransactions: make([]model.RevenueTransaction, 0, len(rows)),
		GeneratedAt:        a.now(),
	}
	for _, t := range model.ServiceTypes {
		snap.ServiceTypeRevenue[t] = 0
	}
	if len(rows) == 0 {
		return snap, nil
	}

	students, err := a.studentSummaries(ctx, rows)
	if err != nil {
		return nil, err
	}

	listings := make(map[model.ListingRef]*model.ListingSnapshot)
	monthly := make(map[string]*model.MonthlyRevenue)
	for _, b := range rows {
		ref := b.Ref()
		l, seen := listings[ref]
		if !seen {
			l, err = a.listings.Get(ctx, ref)
			if err != nil {
				if !errors.Is(err, repository.ErrNotFound) {
					return nil, a.storageErr("resolve listing", err)
				}
				a.logger.Warn().Str("booking_id", b.ID).Str("service_type", string(ref.Type)).
					Str("service_id", ref.ID).Msg("listing gone, booking counted at zero")
			}
			listings[ref] = l
		}

		tx := model.RevenueTransaction{
			ID:               b.ID,
			Duration:         ParseMonths(b.Details.Duration),
			OriginalDuration: b.Details.Duration,
			ServiceType:      b.ServiceType,
			Date:             b.CreatedAt,
		}
		if l != nil {
			tx.MonthlyPrice = l.Price
			tx.ServiceName = l.Name
		}
		var exact bool
		tx.Amount, exact = mulCapped(tx.MonthlyPrice, int64(tx.Duration))
		if !exact {
			a.logger.Warn().Str("booking_id", b.ID).Int64("monthly_price", tx.MonthlyPrice).
				Int("months", tx.Duration).Msg("booking amount capped")
		}
		if u, ok := students[b.StudentID]; ok {
			u := u
			tx.Student = &u
		}

		snap.TotalRevenue = addCapped(snap.TotalRevenue, tx.Amount)
		snap.PaidBookingsCount++
		snap.ServiceTypeRevenue[b.ServiceType] = addCapped(snap.ServiceTypeRevenue[b.ServiceType], tx.Amount)

		key := b.CreatedAt.UTC().Format("2006-01")
		m, ok := monthly[key]
		if !ok {
			m = &model.MonthlyRevenue{Month: key, Label: b.CreatedAt.UTC().Format("Jan 2006")}
			monthly[key] = m
		}
		m.Revenue = addCapped(m.Revenue, tx.Amount)

		snap.RecentTransactions = append(snap.RecentTransactions, tx)
	}

	for _, m := range monthly {
		snap.MonthlyData = append(snap.MonthlyData, *m)
	}
	sort.Slice(snap.MonthlyData, func(i, j int) bool { return snap.MonthlyData[i].Month < snap.MonthlyData[j].Month })
	sort.SliceStable(snap.RecentTransactions, func(i, j int) bool {
		return snap.RecentTransactions[i].Date.After(snap.RecentTransactions[j].Date)
	})
	return snap, nil
}

func (a *Aggregator) studentSummaries(ctx context.Context, rows []model.Booking) (map[string]model.UserSummary, error) {
	if a.users == nil {
		return nil, nil
	}
	ids := make([]string, 0, len(rows))
	for _, b := range rows {
		ids = append(ids, b.StudentID)
	}
	out, err := a.users.Summaries(ctx, ids)
	if err != nil {
		return nil, a.storageErr("load students", err)
	}
	return out, nil
}

func (a *Aggregator) storageErr(op string, err error) error {
	a.logger.Error().Err(err).Str("op", op).Msg("revenue storage failure")
	return &booking.StorageError{Op: op, Err: err}
}

// mulCapped multiplies two non-negative amounts, saturating at
// math.MaxInt64. The bool reports whether the result is exact.
func mulCapped(a, b int64) (int64, bool) {
	if a <= 0 || b <= 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64, false
	}
	return a * b, true
}

// addCapped adds two non-negative amounts, saturating at math.MaxInt64.
func addCapped(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

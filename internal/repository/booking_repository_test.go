package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-marketplace/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestUpdateStatusIfGuardsCurrentStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	q := regexp.QuoteMeta(`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`)
	mock.ExpectExec(q).
		WithArgs("accepted", at, "b1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).
		WithArgs("rejected", at, "b1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatusIf(context.Background(), "b1", model.StatusPending, model.StatusAccepted, at))
	err := repo.UpdateStatusIf(context.Background(), "b1", model.StatusPending, model.StatusRejected, at)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentIf(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	at := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET payment_status = ?, updated_at = ? WHERE id = ? AND payment_status = ?`)).
		WithArgs("paid", sqlmock.AnyArg(), "b1", "unpaid").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePaymentIf(context.Background(), "b1", model.PaymentUnpaid, model.PaymentPaid, at)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusIfPropagatesDriverErrors(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	boom := errors.New("lock wait timeout")
	mock.ExpectExec("UPDATE bookings").WillReturnError(boom)

	err := repo.UpdateStatusIf(context.Background(), "b1", model.StatusPending, model.StatusAccepted, time.Now())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = ?`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByOwnerAddsStatusFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	cols := []string{"id", "student_id", "owner_id", "service_type", "service_id", "check_in_date", "start_date",
		"duration", "additional_requirements", "status", "payment_status", "created_at", "updated_at"}
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE owner_id = \? AND status = \?\s+ORDER BY created_at DESC`).
		WithArgs("o1", "pending").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("b1", "s1", "o1", "gym", "g1", nil, nil, "1 month", nil, "pending", "unpaid", created, created))

	status := model.StatusPending
	rows, err := repo.ListByOwner(context.Background(), "o1", &status)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.ServiceGym, rows[0].ServiceType)
	assert.Nil(t, rows[0].Details.CheckInDate)
	assert.Equal(t, "", rows[0].Details.AdditionalRequirements)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingGetDispatchesOnType(t *testing.T) {
	db, mock := newMock(t)
	repo := NewListingRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM messes WHERE id = ?`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "price", "capacity", "images", "address"}).
			AddRow("m1", "o1", "Green Mess", 2000, 40, `["a.jpg"]`, "Block C"))

	got, err := repo.Get(context.Background(), model.ListingRef{Type: model.ServiceMess, ID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "Mess Subscription", got.TypeLabel)
	assert.Equal(t, []string{"a.jpg"}, got.Images)
	assert.Equal(t, int64(2000), got.Price)

	_, err = repo.Get(context.Background(), model.ListingRef{Type: "library", ID: "x"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

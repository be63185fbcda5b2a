package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/campus-marketplace/internal/model"
)

// BookingRepo provides persistence for bookings. Every mutation is a single
// statement; status and payment changes are conditional updates guarded by
// the expected current value so concurrent requests (possibly from several
// server processes) cannot both apply. All timestamps are stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for health checks.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, student_id, owner_id, service_type, service_id,
    check_in_date, start_date, duration, additional_requirements,
    status, payment_status, created_at, updated_at`

// Create inserts a fully populated booking. The caller generates the ID and
// timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    const q = `INSERT INTO bookings (` + bookingColumns + `)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q,
        b.ID, b.StudentID, b.OwnerID, string(b.ServiceType), b.ServiceID,
        nullTime(b.Details.CheckInDate), nullTime(b.Details.StartDate),
        b.Details.Duration, nullString(b.Details.AdditionalRequirements),
        string(b.Status), string(b.PaymentStatus), b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
    )
    return err
}

// GetByID loads a booking. It returns ErrNotFound when no row matches.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
    b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return b, nil
}

// ListByOwner returns the owner's bookings newest first. When status is
// non-nil only bookings in that status are returned.
func (r *BookingRepo) ListByOwner(ctx context.Context, ownerID string, status *model.BookingStatus) ([]model.Booking, error) {
    if status != nil {
        const q = `SELECT ` + bookingColumns + ` FROM bookings
                   WHERE owner_id = ? AND status = ?
                   ORDER BY created_at DESC`
        return r.list(ctx, q, ownerID, string(*status))
    }
    const q = `SELECT ` + bookingColumns + ` FROM bookings
               WHERE owner_id = ?
               ORDER BY created_at DESC`
    return r.list(ctx, q, ownerID)
}

// ListByStudent returns the student's bookings newest first.
func (r *BookingRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings
               WHERE student_id = ?
               ORDER BY created_at DESC`
    return r.list(ctx, q, studentID)
}

// ListSettledByOwner returns the owner's bookings that are both accepted
// and paid, newest first. It feeds revenue reports.
func (r *BookingRepo) ListSettledByOwner(ctx context.Context, ownerID string) ([]model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings
               WHERE owner_id = ? AND status = ? AND payment_status = ?
               ORDER BY created_at DESC`
    return r.list(ctx, q, ownerID, string(model.StatusAccepted), string(model.PaymentPaid))
}

// UpdateStatusIf moves a booking from status `from` to `to` and refreshes
// updated_at, but only while the stored status still equals `from`. It
// returns ErrConflict when no row matched the guard; callers re-read the
// booking to tell a missing row from a lost race.
func (r *BookingRepo) UpdateStatusIf(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) error {
    const q = `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
    res, err := r.db.ExecContext(ctx, q, string(to), at.UTC(), id, string(from))
    if err != nil {
        return err
    }
    return expectOneRow(res)
}

// UpdatePaymentIf is the payment_status counterpart of UpdateStatusIf.
func (r *BookingRepo) UpdatePaymentIf(ctx context.Context, id string, from, to model.PaymentStatus, at time.Time) error {
    const q = `UPDATE bookings SET payment_status = ?, updated_at = ? WHERE id = ? AND payment_status = ?`
    res, err := r.db.ExecContext(ctx, q, string(to), at.UTC(), id, string(from))
    if err != nil {
        return err
    }
    return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanBooking(s rowScanner) (*model.Booking, error) {
    var (
        b               model.Booking
        serviceType     string
        status, payment string
        checkIn, start  sql.NullTime
        additional      sql.NullString
    )
    if err := s.Scan(
        &b.ID, &b.StudentID, &b.OwnerID, &serviceType, &b.ServiceID,
        &checkIn, &start, &b.Details.Duration, &additional,
        &status, &payment, &b.CreatedAt, &b.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    b.ServiceType = model.ServiceType(serviceType)
    b.Status = model.BookingStatus(status)
    b.PaymentStatus = model.PaymentStatus(payment)
    if checkIn.Valid {
        t := checkIn.Time.UTC()
        b.Details.CheckInDate = &t
    }
    if start.Valid {
        t := start.Time.UTC()
        b.Details.StartDate = &t
    }
    if additional.Valid {
        b.Details.AdditionalRequirements = additional.String
    }
    b.CreatedAt = b.CreatedAt.UTC()
    b.UpdatedAt = b.UpdatedAt.UTC()
    return &b, nil
}

func nullTime(t *time.Time) sql.NullTime {
    if t == nil {
        return sql.NullTime{}
    }
    return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s string) sql.NullString {
    if s == "" {
        return sql.NullString{}
    }
    return sql.NullString{String: s, Valid: true}
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/campus-marketplace/internal/model"
)

// listingTables maps each service type to the table holding its listings.
var listingTables = map[model.ServiceType]string{
	model.ServiceHostel: "hostels",
	model.ServiceMess:   "messes",
	model.ServiceGym:    "gyms",
}

// ListingRepo reads hostel, mess and gym records. The tables are owned by
// the listing service; the booking core only needs the denormalised fields
// captured in model.ListingSnapshot.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo constructs a ListingRepo given a DB handle.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

func tableFor(t model.ServiceType) (string, error) {
	table, ok := listingTables[t]
	if !ok {
		return "", fmt.Errorf("unknown service type %q", t)
	}
	return table, nil
}

// Get resolves a listing reference by dispatching on its type tag. It
// returns ErrNotFound when the row does not exist.
func (r *ListingRepo) Get(ctx context.Context, ref model.ListingRef) (*model.ListingSnapshot, error) {
	table, err := tableFor(ref.Type)
	if err != nil {
		return nil, err
	}
	q := `SELECT id, owner_id, name, price, capacity, images, address FROM ` + table + ` WHERE id = ?`
	var (
		s       model.ListingSnapshot
		images  sql.NullString
		address sql.NullString
	)
	err = r.db.QueryRowContext(ctx, q, ref.ID).Scan(&s.ID, &s.OwnerID, &s.Name, &s.Price, &s.Capacity, &images, &address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Type = ref.Type
	s.TypeLabel = ref.Type.Label()
	s.Address = address.String
	s.Images = []string{}
	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &s.Images); err != nil {
			return nil, fmt.Errorf("decode images for %s %s: %w", ref.Type, ref.ID, err)
		}
	}
	return &s, nil
}

// Upsert writes a listing row, updating it when the id already exists.
// The listing service owns these tables; the method exists for seeding
// development databases and tests.
func (r *ListingRepo) Upsert(ctx context.Context, s model.ListingSnapshot) error {
	table, err := tableFor(s.Type)
	if err != nil {
		return err
	}
	images := s.Images
	if images == nil {
		images = []string{}
	}
	raw, err := json.Marshal(images)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, s.ID).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		upd := `UPDATE ` + table + ` SET owner_id = ?, name = ?, price = ?, capacity = ?, images = ?, address = ?, updated_at = ? WHERE id = ?`
		_, err = r.db.ExecContext(ctx, upd, s.OwnerID, s.Name, s.Price, s.Capacity, string(raw), s.Address, now, s.ID)
		return err
	}
	ins := `INSERT INTO ` + table + ` (id, owner_id, name, price, capacity, images, address, created_at, updated_at)
	        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, ins, s.ID, s.OwnerID, s.Name, s.Price, s.Capacity, string(raw), s.Address, now, now)
	return err
}

// Delete removes a listing row. Bookings referencing it are left intact.
func (r *ListingRepo) Delete(ctx context.Context, ref model.ListingRef) error {
	table, err := tableFor(ref.Type)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, ref.ID)
	return err
}

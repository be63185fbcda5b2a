package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/campus-marketplace/internal/model"
)

// UserRepo reads user summaries from the 'users' table maintained by the
// identity provider.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Summaries returns the summaries of the given ids keyed by id. Unknown ids
// are simply absent from the map.
func (r *UserRepo) Summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	out := make(map[string]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	seen := make(map[string]struct{}, len(ids))
	args := make([]interface{}, 0, len(ids))
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		args = append(args, id)
		placeholders = append(placeholders, "?")
	}
	q := "SELECT id, username, email FROM users WHERE id IN (" + strings.Join(placeholders, ",") + ")"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// Upsert stores a user summary. Used to seed development databases and tests.
func (r *UserRepo) Upsert(ctx context.Context, u model.UserSummary) error {
	var exists int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id=?", u.ID).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		_, err := r.DB.ExecContext(ctx, "UPDATE users SET username=?, email=? WHERE id=?", u.Username, u.Email, u.ID)
		return err
	}
	_, err := r.DB.ExecContext(ctx, "INSERT INTO users (id, username, email) VALUES (?,?,?)", u.ID, u.Username, u.Email)
	return err
}

package meta

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// KeyLastCompanySync holds the RFC3339 time of the last employer company name sync
const KeyLastCompanySync = "last_company_sync"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// GetValue returns sql.ErrNoRows for a key that was never set
func (r *Repository) GetValue(ctx context.Context, key string) (string, error) {
	var val string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = $1`, key).Scan(&val)
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *Repository) SetValue(ctx context.Context, key, val string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, val)
	return err
}

func (r *Repository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM meta WHERE key = $1`, key)
	return err
}

func (r *Repository) SetTime(ctx context.Context, key string, t time.Time) error {
	return r.SetValue(ctx, key, t.UTC().Format(time.RFC3339))
}

// GetTime returns the zero time when the key was never set
func (r *Repository) GetTime(ctx context.Context, key string) (time.Time, error) {
	val, err := r.GetValue(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, val)
}

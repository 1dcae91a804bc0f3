package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/testroom/internal/infra/postgres"
)

// DeadlineRepository is a key/value store for session deadlines.
type DeadlineRepository struct {
	db postgres.DBTX
}

// NewDeadlineRepository creates a new DeadlineRepository with the provided database pool.
func NewDeadlineRepository(db postgres.DBTX) *DeadlineRepository {
	return &DeadlineRepository{db: db}
}

// Get returns the stored value for key.
func (r *DeadlineRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := postgres.Conn(ctx, r.db).QueryRow(
		ctx, "SELECT value FROM session_deadlines WHERE key = $1", key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get deadline: %w", err)
	}

	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (r *DeadlineRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO session_deadlines (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := postgres.Conn(ctx, r.db).Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *DeadlineRepository) Delete(ctx context.Context, key string) error {
	if _, err := postgres.Conn(ctx, r.db).Exec(ctx, "DELETE FROM session_deadlines WHERE key = $1", key); err != nil {
		return fmt.Errorf("delete deadline: %w", err)
	}

	return nil
}

// DeleteBySuffix removes every key ending with suffix.
func (r *DeadlineRepository) DeleteBySuffix(ctx context.Context, suffix string) error {
	if _, err := postgres.Conn(ctx, r.db).Exec(
		ctx, "DELETE FROM session_deadlines WHERE right(key, length($1)) = $1", suffix,
	); err != nil {
		return fmt.Errorf("delete deadlines by suffix: %w", err)
	}

	return nil
}

// PurgeExpired removes deadlines that passed before the given time, and values
// that are not a millisecond timestamp. It returns the number of removed keys.
func (r *DeadlineRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM session_deadlines
		WHERE CASE
			WHEN value ~ '^[0-9]{1,18}$' THEN value::bigint < $1
			ELSE TRUE
		END
	`

	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge expired deadlines: %w", err)
	}

	return tag.RowsAffected(), nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/testroom/internal/domain/entities"
	"github.com/aliskhannn/testroom/internal/infra/postgres"
)

// AttemptRepository records finished test attempts.
type AttemptRepository struct {
	db postgres.DBTX
}

// NewAttemptRepository creates a new AttemptRepository with the provided database pool.
func NewAttemptRepository(db postgres.DBTX) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Create inserts an attempt. Inserting the same attempt ID again is a no-op.
func (r *AttemptRepository) Create(ctx context.Context, a *entities.Attempt) error {
	query := `
		INSERT INTO attempts (id, user_id, test_id, score, total_questions, percentage, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := postgres.Conn(ctx, r.db).Exec(
		ctx,
		query,
		a.ID,
		a.UserID,
		a.TestID,
		a.Score,
		a.TotalQuestions,
		a.Percentage,
		a.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}

	return nil
}

// ListByTest returns the attempts of a test joined with user names, newest first.
func (r *AttemptRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]entities.AttemptWithUser, error) {
	query := `
		SELECT a.id, a.user_id, a.test_id, a.score, a.total_questions, a.percentage, a.completed_at,
		       COALESCE(NULLIF(u.first_name, ''), NULLIF('@' || u.username, '@'), '')
		FROM attempts a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.test_id = $1
		ORDER BY a.completed_at DESC
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, testID)
	if err != nil {
		return nil, fmt.Errorf("list attempts by test: %w", err)
	}
	defer rows.Close()

	var out []entities.AttemptWithUser
	for rows.Next() {
		var a entities.AttemptWithUser
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.TestID,
			&a.Score,
			&a.TotalQuestions,
			&a.Percentage,
			&a.CompletedAt,
			&a.UserName,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

// ListByUser returns the attempts of a user joined with test titles, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]entities.AttemptWithTest, error) {
	query := `
		SELECT a.id, a.user_id, a.test_id, a.score, a.total_questions, a.percentage, a.completed_at,
		       t.title
		FROM attempts a
		JOIN tests t ON t.id = a.test_id
		WHERE a.user_id = $1
		ORDER BY a.completed_at DESC
		LIMIT $2
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts by user: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.AttemptWithTest, error) {
		var a entities.AttemptWithTest
		err := row.Scan(
			&a.ID,
			&a.UserID,
			&a.TestID,
			&a.Score,
			&a.TotalQuestions,
			&a.Percentage,
			&a.CompletedAt,
			&a.TestTitle,
		)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect attempts: %w", err)
	}

	return out, nil
}

// DeleteByTest removes all attempts of a test.
func (r *AttemptRepository) DeleteByTest(ctx context.Context, testID uuid.UUID) error {
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, "DELETE FROM attempts WHERE test_id = $1", testID)
	if err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}

	return nil
}

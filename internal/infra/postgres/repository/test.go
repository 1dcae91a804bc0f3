package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/testroom/internal/domain/entities"
	"github.com/aliskhannn/testroom/internal/infra/postgres"
)

var ErrTestNotFound = errors.New("test not found")

// TestRepository provides access to tests and their questions in the database.
type TestRepository struct {
	db postgres.DBTX
}

// NewTestRepository creates a new TestRepository with the provided database pool.
func NewTestRepository(db postgres.DBTX) *TestRepository {
	return &TestRepository{db: db}
}

// Create inserts a new test.
func (r *TestRepository) Create(ctx context.Context, test *entities.Test) error {
	query := `
		INSERT INTO tests (id, title, time_limit, questions_count, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := postgres.Conn(ctx, r.db).Exec(
		ctx,
		query,
		test.ID,
		test.Title,
		test.TimeLimit,
		test.QuestionsCount,
		test.CreatedBy,
		test.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create test: %w", err)
	}

	return nil
}

// GetByID retrieves a test by ID.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Test, error) {
	query := `
		SELECT id, title, time_limit, questions_count, created_by, created_at
		FROM tests
		WHERE id = $1
	`

	var t entities.Test
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.TimeLimit,
		&t.QuestionsCount,
		&t.CreatedBy,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	return &t, nil
}

// List returns all tests with their question counts, newest first.
func (r *TestRepository) List(ctx context.Context) ([]entities.TestSummary, error) {
	query := `
		SELECT t.id, t.title, t.time_limit, t.questions_count, t.created_by, t.created_at,
		       COUNT(q.id) AS total_questions
		FROM tests t
		LEFT JOIN questions q ON q.test_id = t.id
		GROUP BY t.id
		ORDER BY t.created_at DESC
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	var out []entities.TestSummary
	for rows.Next() {
		var s entities.TestSummary
		if err := rows.Scan(
			&s.ID,
			&s.Title,
			&s.TimeLimit,
			&s.QuestionsCount,
			&s.CreatedBy,
			&s.CreatedAt,
			&s.TotalQuestions,
		); err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tests: %w", err)
	}

	return out, nil
}

// Update applies the non-nil fields of upd to the test.
func (r *TestRepository) Update(ctx context.Context, id uuid.UUID, upd entities.TestUpdate) error {
	query := `
		UPDATE tests
		SET title = COALESCE($2::text, title),
		    time_limit = COALESCE($3::int, time_limit),
		    questions_count = CASE WHEN $5::boolean THEN NULL ELSE COALESCE($4::int, questions_count) END
		WHERE id = $1
	`

	tag, err := postgres.Conn(ctx, r.db).Exec(
		ctx,
		query,
		id,
		upd.Title,
		upd.TimeLimit,
		upd.QuestionsCount,
		upd.ClearQuestionsCount,
	)
	if err != nil {
		return fmt.Errorf("update test: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrTestNotFound
	}

	return nil
}

// Delete removes a test. Questions and attempts must be removed by the caller first.
func (r *TestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, "DELETE FROM tests WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete test: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrTestNotFound
	}

	return nil
}

// CreateQuestions inserts questions in one batch.
func (r *TestRepository) CreateQuestions(ctx context.Context, questions []entities.Question) error {
	query := `
		INSERT INTO questions (
			id, test_id, category, sub_category, question_text, options, correct_answer
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		batch.Queue(query, q.ID, q.TestID, q.Category, q.SubCategory, q.Text, string(options), q.CorrectAnswer)
	}

	br := postgres.Conn(ctx, r.db).SendBatch(ctx, batch)
	for range questions {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("create question: %w", err)
		}
	}

	if err := br.Close(); err != nil {
		return fmt.Errorf("create questions: %w", err)
	}

	return nil
}

// GetQuestions returns all questions of a test.
func (r *TestRepository) GetQuestions(ctx context.Context, testID uuid.UUID) ([]entities.Question, error) {
	query := `
		SELECT id, test_id, category, sub_category, question_text, options, correct_answer
		FROM questions
		WHERE test_id = $1
		ORDER BY position
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, testID)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	var out []entities.Question
	for rows.Next() {
		var (
			q       entities.Question
			options string
		)
		if err := rows.Scan(
			&q.ID,
			&q.TestID,
			&q.Category,
			&q.SubCategory,
			&q.Text,
			&options,
			&q.CorrectAnswer,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}

		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %s: %w", q.ID, err)
		}

		out = append(out, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	return out, nil
}

// CountQuestions returns the number of questions of a test.
func (r *TestRepository) CountQuestions(ctx context.Context, testID uuid.UUID) (int, error) {
	var n int
	err := postgres.Conn(ctx, r.db).QueryRow(
		ctx, "SELECT COUNT(*) FROM questions WHERE test_id = $1", testID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}

	return n, nil
}

// DeleteQuestions removes all questions of a test.
func (r *TestRepository) DeleteQuestions(ctx context.Context, testID uuid.UUID) error {
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, "DELETE FROM questions WHERE test_id = $1", testID)
	if err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}

	return nil
}

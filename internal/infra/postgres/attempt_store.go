package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-attempt-service/internal/domain"
)

// AttemptStore persists attempts as JSONB with a version column used for
// optimistic locking.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.QuizAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO attempts (id, quiz_id, user_id, started_at, completed, version, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		attempt.ID, attempt.QuizID, attempt.UserID, attempt.StartTime, attempt.Completed(), attempt.Version, string(data))
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.QuizAttempt, error) {
	var (
		raw     []byte
		version int64
	)
	err := s.pool.QueryRow(ctx, `SELECT data, version FROM attempts WHERE id = $1`, attemptID).Scan(&raw, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("load attempt: %w", err)
	}
	return decodeAttempt(raw, version)
}

func (s *AttemptStore) ListByUser(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data, version FROM attempts WHERE user_id = $1 ORDER BY started_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizAttempt, 0)
	for rows.Next() {
		var (
			raw     []byte
			version int64
		)
		if err := rows.Scan(&raw, &version); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempt, err := decodeAttempt(raw, version)
		if err != nil {
			return nil, err
		}
		out = append(out, attempt)
	}
	return out, rows.Err()
}

// Update writes the attempt only if nobody changed it since it was read.
func (s *AttemptStore) Update(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	expected := attempt.Version
	attempt.Version++
	data, err := json.Marshal(attempt)
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("marshal attempt: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE attempts
		SET data = $1, completed = $2, version = version + 1
		WHERE id = $3 AND version = $4`,
		string(data), attempt.Completed(), attempt.ID, expected)
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("update attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attempts WHERE id = $1)`, attempt.ID).Scan(&exists); err != nil {
			return domain.QuizAttempt{}, fmt.Errorf("check attempt: %w", err)
		}
		if !exists {
			return domain.QuizAttempt{}, domain.ErrAttemptNotFound
		}
		return domain.QuizAttempt{}, domain.ErrVersionConflict
	}
	return attempt, nil
}

func decodeAttempt(raw []byte, version int64) (domain.QuizAttempt, error) {
	var attempt domain.QuizAttempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	attempt.Version = version
	return attempt, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/domain"
)

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// AttemptStore keeps attempts as JSON documents in Redis.
// Documents live at attempt:{id}; each user has a sorted set
// user:{userID}:attempts scored by start time.
// Updates use WATCH/MULTI so a concurrent writer makes the transaction fail
// instead of silently overwriting.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAttemptStore creates the store. A zero ttl keeps attempts forever.
func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.QuizAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.attemptKey(attempt.ID), data, s.ttl)
		pipe.ZAdd(ctx, s.userKey(attempt.UserID), redis.Z{
			Score:  float64(attempt.StartTime.UnixNano()),
			Member: attempt.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.QuizAttempt, error) {
	return s.get(ctx, s.client, attemptID)
}

func (s *AttemptStore) ListByUser(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	ids, err := s.client.ZRange(ctx, s.userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.QuizAttempt, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.attemptKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// expired document still indexed
			continue
		}
		var attempt domain.QuizAttempt
		if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
			return nil, fmt.Errorf("unmarshal attempt: %w", err)
		}
		out = append(out, attempt)
	}
	return out, nil
}

func (s *AttemptStore) Update(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	key := s.attemptKey(attempt.ID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := s.get(ctx, tx, attempt.ID)
		if err != nil {
			return err
		}
		if stored.Version != attempt.Version {
			return domain.ErrVersionConflict
		}

		attempt.Version++
		data, err := json.Marshal(attempt)
		if err != nil {
			return fmt.Errorf("marshal attempt: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.QuizAttempt{}, domain.ErrVersionConflict
	}
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	return attempt, nil
}

func (s *AttemptStore) get(ctx context.Context, c getter, attemptID string) (domain.QuizAttempt, error) {
	raw, err := c.Get(ctx, s.attemptKey(attemptID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("get attempt: %w", err)
	}
	var attempt domain.QuizAttempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) attemptKey(attemptID string) string {
	return "attempt:" + attemptID
}

func (s *AttemptStore) userKey(userID string) string {
	return "user:" + userID + ":attempts"
}

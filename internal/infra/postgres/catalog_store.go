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

// CatalogStore keeps quizzes and questions as JSONB documents.
// The quiz document owns the ordered question id list.
type CatalogStore struct {
	pool *pgxpool.Pool
	tx   *Transactor
}

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool, tx: NewTransactor(pool)}
}

// LoadQuiz returns a quiz with its questions in quiz order.
func (s *CatalogStore) LoadQuiz(ctx context.Context, quizID string) (domain.QuizContent, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizContent{}, err
	}
	questions, err := s.ListQuestions(ctx, quizID)
	if err != nil {
		return domain.QuizContent{}, err
	}
	return domain.QuizContent{Quiz: quiz, Questions: questions}, nil
}

func (s *CatalogStore) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quizzes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Quiz, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		out = append(out, quiz)
	}
	return out, rows.Err()
}

func (s *CatalogStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return getQuiz(ctx, s.pool, quizID, false)
}

func (s *CatalogStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, created_by, published, created_at, data) VALUES ($1, $2, $3, $4, $5)`,
		quiz.ID, quiz.CreatedBy, quiz.Published, quiz.CreatedAt, string(data))
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

// UpdateQuiz stores the quiz fields but keeps the stored question order.
func (s *CatalogStore) UpdateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		existing, err := getQuiz(ctx, tx, quiz.ID, true)
		if err != nil {
			return err
		}
		quiz.QuestionIDs = existing.QuestionIDs
		return saveQuiz(ctx, tx, quiz)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// DeleteQuiz removes the quiz; its questions go with it via ON DELETE CASCADE.
func (s *CatalogStore) DeleteQuiz(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *CatalogStore) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `SELECT id, data FROM questions WHERE quiz_id = $1`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Question)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		byID[id] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Question, 0, len(quiz.QuestionIDs))
	for _, id := range quiz.QuestionIDs {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *CatalogStore) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM questions WHERE id = $1`, questionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal question: %w", err)
	}
	return q, nil
}

// AddQuestion inserts the question and appends it to its quiz in one transaction.
func (s *CatalogStore) AddQuestion(ctx context.Context, question domain.Question) error {
	data, err := json.Marshal(question)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		quiz, err := getQuiz(ctx, tx, question.QuizID, true)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO questions (id, quiz_id, data) VALUES ($1, $2, $3)`,
			question.ID, question.QuizID, string(data)); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		quiz.QuestionIDs = append(quiz.QuestionIDs, question.ID)
		return saveQuiz(ctx, tx, quiz)
	})
}

func (s *CatalogStore) UpdateQuestion(ctx context.Context, question domain.Question) error {
	data, err := json.Marshal(question)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE questions SET data = $1 WHERE id = $2`, string(data), question.ID)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// DeleteQuestion removes the question and drops it from its quiz's order.
func (s *CatalogStore) DeleteQuestion(ctx context.Context, questionID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var quizID string
		err := tx.QueryRow(ctx, `DELETE FROM questions WHERE id = $1 RETURNING quiz_id`, questionID).Scan(&quizID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrQuestionNotFound
		}
		if err != nil {
			return fmt.Errorf("delete question: %w", err)
		}

		quiz, err := getQuiz(ctx, tx, quizID, true)
		if errors.Is(err, domain.ErrQuizNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(quiz.QuestionIDs))
		for _, id := range quiz.QuestionIDs {
			if id != questionID {
				ids = append(ids, id)
			}
		}
		quiz.QuestionIDs = ids
		return saveQuiz(ctx, tx, quiz)
	})
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func getQuiz(ctx context.Context, q queryer, quizID string, forUpdate bool) (domain.Quiz, error) {
	query := `SELECT data FROM quizzes WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var raw []byte
	err := q.QueryRow(ctx, query, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

func saveQuiz(ctx context.Context, tx pgx.Tx, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE quizzes SET published = $1, data = $2 WHERE id = $3`,
		quiz.Published, string(data), quiz.ID)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

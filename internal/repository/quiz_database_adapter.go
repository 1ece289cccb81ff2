package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"personaquiz/internal/domain"
	"personaquiz/internal/repository/models"
	"personaquiz/internal/util"

	"github.com/jmoiron/sqlx"
)

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx.DB
type QuizDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db *sqlx.DB) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

// SaveGeneratedQuiz implements domain.QuizRepository. Write order is
// quiz -> elements -> results -> weight matrix, since later rows reference
// earlier ones. The quiz row starts unpublished and is flipped after the
// matrix is complete; run inside TransactionManager.WithTransaction so the
// whole write is atomic.
func (a *QuizDatabaseAdapter) SaveGeneratedQuiz(ctx context.Context, quiz *domain.Quiz) error {
	ex := GetExecutor(ctx, a.db)
	now := time.Now()

	if quiz.ID == "" {
		quiz.ID = util.NewULID()
	}
	quiz.CreatedAt = now
	quiz.UpdatedAt = now

	_, err := ex.ExecContext(ctx, `INSERT INTO quizzes (
		id, title, description, scale_type, theme, creator_id, published, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8)`,
		quiz.ID,
		quiz.Title,
		quiz.Description,
		quiz.ScaleType,
		nullable(quiz.Theme),
		nullable(quiz.CreatorID),
		quiz.CreatedAt,
		quiz.UpdatedAt,
	)
	if err != nil {
		return domain.NewPersistenceError("failed to insert quiz", err)
	}

	for _, el := range quiz.Elements {
		if el.ID == "" {
			el.ID = util.NewULID()
		}
		el.QuizID = quiz.ID
		_, err := ex.ExecContext(ctx, `INSERT INTO quiz_elements (
			id, quiz_id, position, content
		) VALUES ($1, $2, $3, $4)`,
			el.ID, el.QuizID, el.Position, el.Content,
		)
		if err != nil {
			return domain.NewPersistenceError("failed to insert quiz element", err)
		}
	}

	for _, res := range quiz.Results {
		if res.ID == "" {
			res.ID = util.NewULID()
		}
		res.QuizID = quiz.ID
		_, err := ex.ExecContext(ctx, `INSERT INTO quiz_results (
			id, quiz_id, base_type, modifier, description, strengths, weaknesses,
			good_matches, bad_matches, advice
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			res.ID,
			res.QuizID,
			res.BaseType,
			nullable(res.Modifier),
			res.Description,
			nullable(res.Strengths),
			nullable(res.Weaknesses),
			models.StringSlice(res.GoodMatches),
			models.StringSlice(res.BadMatches),
			nullable(res.Advice),
		)
		if err != nil {
			return domain.NewPersistenceError("failed to insert quiz result", err)
		}
	}

	// Full cross product: one score row per (element, result) pair. The
	// generation boundary already guaranteed a weight for every base type.
	for _, el := range quiz.Elements {
		for _, res := range quiz.Results {
			_, err := ex.ExecContext(ctx, `INSERT INTO quiz_element_scores (
				quiz_element_id, quiz_result_id, score
			) VALUES ($1, $2, $3)`,
				el.ID, res.ID, el.Weights[res.BaseType],
			)
			if err != nil {
				return domain.NewPersistenceError("failed to insert weight matrix row", err)
			}
		}
	}

	if _, err := ex.ExecContext(ctx,
		`UPDATE quizzes SET published = TRUE, updated_at = $1 WHERE id = $2`,
		time.Now(), quiz.ID,
	); err != nil {
		return domain.NewPersistenceError("failed to publish quiz", err)
	}
	quiz.Published = true

	return nil
}

// GetQuizByID implements domain.QuizRepository. Returns the published quiz
// with its elements ordered by position, or nil if absent.
func (a *QuizDatabaseAdapter) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	ex := GetExecutor(ctx, a.db)

	var modelQuiz models.Quiz
	err := ex.GetContext(ctx, &modelQuiz, `SELECT
		id, title, description, scale_type, theme, creator_id, published, created_at, updated_at,
		0 AS answer_count
	FROM quizzes
	WHERE id = $1 AND published = TRUE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewPersistenceError("failed to get quiz by ID", err)
	}

	var modelElements []models.QuizElement
	err = ex.SelectContext(ctx, &modelElements, `SELECT
		id, quiz_id, position, content
	FROM quiz_elements
	WHERE quiz_id = $1
	ORDER BY position`, id)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to get quiz elements", err)
	}

	quiz := toDomainQuiz(&modelQuiz)
	for i := range modelElements {
		quiz.Elements = append(quiz.Elements, toDomainElement(&modelElements[i]))
	}
	return quiz, nil
}

// ListRecentQuizzes implements domain.QuizRepository. Answer counts are
// aggregated in the same query instead of one count query per quiz.
func (a *QuizDatabaseAdapter) ListRecentQuizzes(ctx context.Context, limit int) ([]*domain.Quiz, error) {
	return a.listQuizzes(ctx, `SELECT
		q.id, q.title, q.description, q.scale_type, q.theme, q.creator_id,
		q.published, q.created_at, q.updated_at,
		COUNT(a.id) AS answer_count
	FROM quizzes q
	LEFT JOIN answers a ON a.quiz_id = q.id
	WHERE q.published = TRUE
	GROUP BY q.id
	ORDER BY q.created_at DESC
	LIMIT $1`, limit)
}

// ListHotQuizzes implements domain.QuizRepository
func (a *QuizDatabaseAdapter) ListHotQuizzes(ctx context.Context, limit int) ([]*domain.Quiz, error) {
	return a.listQuizzes(ctx, `SELECT
		q.id, q.title, q.description, q.scale_type, q.theme, q.creator_id,
		q.published, q.created_at, q.updated_at,
		COUNT(a.id) AS answer_count
	FROM quizzes q
	LEFT JOIN answers a ON a.quiz_id = q.id
	WHERE q.published = TRUE
	GROUP BY q.id
	ORDER BY COUNT(a.id) DESC, q.created_at DESC
	LIMIT $1`, limit)
}

func (a *QuizDatabaseAdapter) listQuizzes(ctx context.Context, query string, limit int) ([]*domain.Quiz, error) {
	ex := GetExecutor(ctx, a.db)

	var modelQuizzes []models.Quiz
	if err := ex.SelectContext(ctx, &modelQuizzes, query, limit); err != nil {
		return nil, domain.NewPersistenceError("failed to list quizzes", err)
	}

	quizzes := make([]*domain.Quiz, 0, len(modelQuizzes))
	for i := range modelQuizzes {
		quizzes = append(quizzes, toDomainQuiz(&modelQuizzes[i]))
	}
	return quizzes, nil
}

// GetResultByID implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetResultByID(ctx context.Context, id string) (*domain.QuizResult, error) {
	ex := GetExecutor(ctx, a.db)

	var modelResult models.QuizResult
	err := ex.GetContext(ctx, &modelResult, `SELECT
		id, quiz_id, base_type, modifier, description, strengths, weaknesses,
		good_matches, bad_matches, advice
	FROM quiz_results
	WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewPersistenceError("failed to get quiz result by ID", err)
	}
	return toDomainResult(&modelResult), nil
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	return &domain.Quiz{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		ScaleType:   m.ScaleType,
		Theme:       m.Theme.String,
		CreatorID:   m.CreatorID.String,
		Published:   m.Published,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		AnswerCount: m.AnswerCount,
	}
}

func toDomainElement(m *models.QuizElement) *domain.QuizElement {
	return &domain.QuizElement{
		ID:       m.ID,
		QuizID:   m.QuizID,
		Position: m.Position,
		Content:  m.Content,
	}
}

func toDomainResult(m *models.QuizResult) *domain.QuizResult {
	return &domain.QuizResult{
		ID:          m.ID,
		QuizID:      m.QuizID,
		BaseType:    m.BaseType,
		Modifier:    m.Modifier.String,
		Description: m.Description,
		Strengths:   m.Strengths.String,
		Weaknesses:  m.Weaknesses.String,
		GoodMatches: m.GoodMatches,
		BadMatches:  m.BadMatches,
		Advice:      m.Advice.String,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

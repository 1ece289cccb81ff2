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

// AnswerDatabaseAdapter implements domain.AnswerRepository using sqlx.DB
type AnswerDatabaseAdapter struct {
	db *sqlx.DB
}

// NewAnswerDatabaseAdapter creates a new instance of AnswerDatabaseAdapter
func NewAnswerDatabaseAdapter(db *sqlx.DB) domain.AnswerRepository {
	return &AnswerDatabaseAdapter{db: db}
}

// SaveAnswer implements domain.AnswerRepository. Writes the attempt record
// and all its details; run inside a transaction so an attempt is never
// visible with a partial detail set.
func (a *AnswerDatabaseAdapter) SaveAnswer(ctx context.Context, answer *domain.Answer) error {
	ex := GetExecutor(ctx, a.db)

	if answer.ID == "" {
		answer.ID = util.NewULID()
	}
	answer.CreatedAt = time.Now()

	_, err := ex.ExecContext(ctx, `INSERT INTO answers (
		id, quiz_id, user_id, created_at
	) VALUES ($1, $2, $3, $4)`,
		answer.ID,
		answer.QuizID,
		nullable(answer.UserID),
		answer.CreatedAt,
	)
	if err != nil {
		return domain.NewPersistenceError("failed to insert answer", err)
	}

	for _, d := range answer.Details {
		d.AnswerID = answer.ID
		_, err := ex.ExecContext(ctx, `INSERT INTO answer_details (
			answer_id, quiz_element_id, answer
		) VALUES ($1, $2, $3)`,
			d.AnswerID, d.QuizElementID, d.Value,
		)
		if err != nil {
			return domain.NewPersistenceError("failed to insert answer detail", err)
		}
	}

	return nil
}

// GetAnswerByID implements domain.AnswerRepository
func (a *AnswerDatabaseAdapter) GetAnswerByID(ctx context.Context, id string) (*domain.Answer, error) {
	ex := GetExecutor(ctx, a.db)

	var modelAnswer models.Answer
	err := ex.GetContext(ctx, &modelAnswer, `SELECT
		id, quiz_id, user_id, created_at
	FROM answers
	WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewPersistenceError("failed to get answer by ID", err)
	}
	return toDomainAnswer(&modelAnswer), nil
}

// GetAnswerDetails implements domain.AnswerRepository
func (a *AnswerDatabaseAdapter) GetAnswerDetails(ctx context.Context, answerID string) ([]*domain.AnswerDetail, error) {
	ex := GetExecutor(ctx, a.db)

	var modelDetails []models.AnswerDetail
	err := ex.SelectContext(ctx, &modelDetails, `SELECT
		answer_id, quiz_element_id, answer
	FROM answer_details
	WHERE answer_id = $1`, answerID)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to get answer details", err)
	}

	details := make([]*domain.AnswerDetail, 0, len(modelDetails))
	for i := range modelDetails {
		details = append(details, &domain.AnswerDetail{
			AnswerID:      modelDetails[i].AnswerID,
			QuizElementID: modelDetails[i].QuizElementID,
			Value:         modelDetails[i].Answer,
		})
	}
	return details, nil
}

// GetScoreRows implements domain.AnswerRepository. Rows come back ordered
// by result ID; the scoring tie-break depends on this ordering.
func (a *AnswerDatabaseAdapter) GetScoreRows(ctx context.Context, quizID string) ([]*domain.ScoreRow, error) {
	ex := GetExecutor(ctx, a.db)

	var modelScores []models.QuizElementScore
	err := ex.SelectContext(ctx, &modelScores, `SELECT
		s.quiz_element_id, s.quiz_result_id, s.score
	FROM quiz_element_scores s
	JOIN quiz_elements e ON e.id = s.quiz_element_id
	WHERE e.quiz_id = $1
	ORDER BY s.quiz_result_id, e.position`, quizID)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to get score rows", err)
	}

	rows := make([]*domain.ScoreRow, 0, len(modelScores))
	for i := range modelScores {
		rows = append(rows, &domain.ScoreRow{
			QuizElementID: modelScores[i].QuizElementID,
			QuizResultID:  modelScores[i].QuizResultID,
			Score:         modelScores[i].Score,
		})
	}
	return rows, nil
}

// ListAnswersByUser implements domain.AnswerRepository
func (a *AnswerDatabaseAdapter) ListAnswersByUser(ctx context.Context, userID string, limit int) ([]*domain.Answer, error) {
	ex := GetExecutor(ctx, a.db)

	var modelAnswers []models.Answer
	err := ex.SelectContext(ctx, &modelAnswers, `SELECT
		id, quiz_id, user_id, created_at
	FROM answers
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2`, userID, limit)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to list answers by user", err)
	}

	answers := make([]*domain.Answer, 0, len(modelAnswers))
	for i := range modelAnswers {
		answers = append(answers, toDomainAnswer(&modelAnswers[i]))
	}
	return answers, nil
}

func toDomainAnswer(m *models.Answer) *domain.Answer {
	return &domain.Answer{
		ID:        m.ID,
		QuizID:    m.QuizID,
		UserID:    m.UserID.String,
		CreatedAt: m.CreatedAt,
	}
}

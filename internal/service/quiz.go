package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"personaquiz/internal/cache"
	"personaquiz/internal/domain"
	"personaquiz/internal/dto"
	"personaquiz/internal/logger"

	"go.uber.org/zap"
)

const (
	listingLimit    = 20
	hotListCacheTTL = time.Minute
)

// QuizService defines the interface for quiz-related operations
type QuizService interface {
	// CreateQuiz enqueues a generation request; the caller does not wait
	// for the LLM.
	CreateQuiz(ctx context.Context, req *dto.CreateQuizRequest, creatorID string) (*dto.CreateQuizResponse, error)
	GetQuiz(ctx context.Context, quizID string) (*dto.QuizResponse, error)
	ListRecentQuizzes(ctx context.Context) (*dto.QuizListResponse, error)
	ListHotQuizzes(ctx context.Context) (*dto.QuizListResponse, error)
	// SubmitAnswers records one attempt: exactly one scale value per
	// question of the quiz.
	SubmitAnswers(ctx context.Context, quizID string, req *dto.SubmitAnswersRequest, userID string) (*dto.SubmitAnswersResponse, error)
	// ListMyAnswers returns the authenticated user's attempt history.
	ListMyAnswers(ctx context.Context, userID string) (*dto.AnswerListResponse, error)
}

// quizService implements QuizService
type quizService struct {
	quizRepo   domain.QuizRepository
	answerRepo domain.AnswerRepository
	queue      domain.RequestQueue
	txManager  domain.TransactionManager
	cache      domain.Cache
}

// NewQuizService creates a new instance of quizService
func NewQuizService(
	quizRepo domain.QuizRepository,
	answerRepo domain.AnswerRepository,
	queue domain.RequestQueue,
	txManager domain.TransactionManager,
	listCache domain.Cache,
) QuizService {
	return &quizService{
		quizRepo:   quizRepo,
		answerRepo: answerRepo,
		queue:      queue,
		txManager:  txManager,
		cache:      listCache,
	}
}

// CreateQuiz implements QuizService
func (s *quizService) CreateQuiz(ctx context.Context, req *dto.CreateQuizRequest, creatorID string) (*dto.CreateQuizResponse, error) {
	spec := &domain.QuizSpec{
		Title:         req.Title,
		Description:   req.Description,
		Types:         req.Types,
		QuestionCount: req.QuestionCount,
		CreatorID:     creatorID,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, spec); err != nil {
		return nil, err
	}

	return &dto.CreateQuizResponse{
		Status:  "accepted",
		Message: "quiz generation has been queued",
	}, nil
}

// GetQuiz implements QuizService
func (s *quizService) GetQuiz(ctx context.Context, quizID string) (*dto.QuizResponse, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	return toQuizResponse(quiz, true), nil
}

// ListRecentQuizzes implements QuizService
func (s *quizService) ListRecentQuizzes(ctx context.Context) (*dto.QuizListResponse, error) {
	quizzes, err := s.quizRepo.ListRecentQuizzes(ctx, listingLimit)
	if err != nil {
		return nil, err
	}
	return toQuizListResponse(quizzes), nil
}

// ListHotQuizzes implements QuizService. The listing is cached briefly;
// it is read on every landing page and tolerates a stale answer count.
func (s *quizService) ListHotQuizzes(ctx context.Context) (*dto.QuizListResponse, error) {
	key := cache.GenerateCacheKey("quiz", "list", "hot")
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var resp dto.QuizListResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Hot list cache read failed", zap.Error(err))
		}
	}

	quizzes, err := s.quizRepo.ListHotQuizzes(ctx, listingLimit)
	if err != nil {
		return nil, err
	}
	resp := toQuizListResponse(quizzes)

	if s.cache != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, key, string(data), hotListCacheTTL); err != nil {
				logger.Get().Warn("Hot list cache write failed", zap.Error(err))
			}
		}
	}
	return resp, nil
}

// SubmitAnswers implements QuizService
func (s *quizService) SubmitAnswers(ctx context.Context, quizID string, req *dto.SubmitAnswersRequest, userID string) (*dto.SubmitAnswersResponse, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}

	// Exactly one value per question: unknown element IDs and gaps are
	// both rejected before anything is written.
	if len(req.Answers) != len(quiz.Elements) {
		return nil, domain.NewInvalidInputError("every question must be answered exactly once")
	}
	answer := &domain.Answer{
		QuizID: quizID,
		UserID: userID,
	}
	for _, el := range quiz.Elements {
		value, ok := req.Answers[el.ID]
		if !ok {
			return nil, domain.NewInvalidInputError("missing answer for question " + el.ID)
		}
		if value < domain.ScaleMin || value > domain.ScaleMax {
			return nil, domain.NewInvalidInputError("answer value out of scale range")
		}
		answer.Details = append(answer.Details, &domain.AnswerDetail{
			QuizElementID: el.ID,
			Value:         value,
		})
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.answerRepo.SaveAnswer(txCtx, answer)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Recorded quiz attempt",
		zap.String("quiz_id", quizID),
		zap.String("answer_id", answer.ID),
		zap.Bool("anonymous", userID == ""),
	)
	return &dto.SubmitAnswersResponse{AnswerID: answer.ID}, nil
}

// ListMyAnswers implements QuizService
func (s *quizService) ListMyAnswers(ctx context.Context, userID string) (*dto.AnswerListResponse, error) {
	if userID == "" {
		return nil, domain.NewUnauthorizedError("authentication required to list answer history")
	}

	answers, err := s.answerRepo.ListAnswersByUser(ctx, userID, listingLimit)
	if err != nil {
		return nil, err
	}

	resp := &dto.AnswerListResponse{Answers: make([]dto.AnswerSummaryResponse, 0, len(answers))}
	for _, a := range answers {
		resp.Answers = append(resp.Answers, dto.AnswerSummaryResponse{
			AnswerID:  a.ID,
			QuizID:    a.QuizID,
			CreatedAt: a.CreatedAt,
		})
	}
	return resp, nil
}

func toQuizResponse(quiz *domain.Quiz, withElements bool) *dto.QuizResponse {
	resp := &dto.QuizResponse{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		ScaleType:   quiz.ScaleType,
		Theme:       quiz.Theme,
		AnswerCount: quiz.AnswerCount,
		CreatedAt:   quiz.CreatedAt,
	}
	if withElements {
		for _, el := range quiz.Elements {
			resp.Elements = append(resp.Elements, dto.QuizElementResponse{
				ID:       el.ID,
				Position: el.Position,
				Content:  el.Content,
			})
		}
	}
	return resp
}

func toQuizListResponse(quizzes []*domain.Quiz) *dto.QuizListResponse {
	resp := &dto.QuizListResponse{Quizzes: make([]dto.QuizResponse, 0, len(quizzes))}
	for _, q := range quizzes {
		resp.Quizzes = append(resp.Quizzes, *toQuizResponse(q, false))
	}
	return resp
}

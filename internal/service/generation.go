package service

import (
	"context"

	"personaquiz/internal/domain"
	"personaquiz/internal/logger"

	"go.uber.org/zap"
)

// GenerationService runs the generation pipeline for one quiz spec:
// LLM call, content-to-entity mapping, transactional persistence.
type GenerationService interface {
	// GenerateAndPersist produces and stores a quiz for the spec. The
	// returned quiz is published; on any error nothing is visible.
	GenerateAndPersist(ctx context.Context, spec *domain.QuizSpec) (*domain.Quiz, error)
}

type generationService struct {
	generator domain.QuizGenerator
	quizRepo  domain.QuizRepository
	txManager domain.TransactionManager
}

// NewGenerationService creates a new instance of generationService
func NewGenerationService(
	generator domain.QuizGenerator,
	quizRepo domain.QuizRepository,
	txManager domain.TransactionManager,
) GenerationService {
	return &generationService{
		generator: generator,
		quizRepo:  quizRepo,
		txManager: txManager,
	}
}

// GenerateAndPersist implements GenerationService
func (s *generationService) GenerateAndPersist(ctx context.Context, spec *domain.QuizSpec) (*domain.Quiz, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	content, err := s.generator.Generate(ctx, spec)
	if err != nil {
		return nil, err
	}

	quiz := toDomainQuiz(content, spec)

	// Quiz, elements, results and the weight matrix commit together;
	// respondents never score against a partial matrix.
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.quizRepo.SaveGeneratedQuiz(txCtx, quiz)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Persisted generated quiz",
		zap.String("quiz_id", quiz.ID),
		zap.String("title", quiz.Title),
		zap.Int("elements", len(quiz.Elements)),
		zap.Int("results", len(quiz.Results)),
	)
	return quiz, nil
}

// toDomainQuiz maps validated generation output onto persistence entities.
// Question positions follow generation order; the model's own numeric ids
// are not trusted beyond that.
func toDomainQuiz(content *domain.GeneratedQuizContent, spec *domain.QuizSpec) *domain.Quiz {
	quiz := &domain.Quiz{
		Title:       content.Quiz.Title,
		Description: content.Quiz.Description,
		ScaleType:   domain.ScaleType,
		Theme:       content.Quiz.Theme,
		CreatorID:   spec.CreatorID,
	}
	if quiz.Title == "" {
		quiz.Title = spec.Title
	}
	if quiz.Description == "" {
		quiz.Description = spec.Description
	}

	for i, el := range content.Elements {
		weights := make(map[string]int, len(el.TypeWeights))
		for t, w := range el.TypeWeights {
			weights[t] = w
		}
		quiz.Elements = append(quiz.Elements, &domain.QuizElement{
			Position: i + 1,
			Content:  el.QuestionText,
			Weights:  weights,
		})
	}

	for _, r := range content.Results {
		quiz.Results = append(quiz.Results, &domain.QuizResult{
			BaseType:    r.BaseType,
			Modifier:    r.Modifier,
			Description: r.Description,
			Strengths:   r.Strengths,
			Weaknesses:  r.Weaknesses,
			GoodMatches: r.GoodMatches,
			BadMatches:  r.BadMatches,
			Advice:      r.Advice,
		})
	}

	return quiz
}

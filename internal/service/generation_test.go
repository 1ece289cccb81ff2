package service

import (
	"context"
	"testing"

	"personaquiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func validSpec() *domain.QuizSpec {
	return &domain.QuizSpec{
		Title:         "Which houseplant are you?",
		Description:   "Find your botanical alter ego",
		Types:         []string{"Cactus", "Fern"},
		QuestionCount: 2,
	}
}

func validContent() *domain.GeneratedQuizContent {
	return &domain.GeneratedQuizContent{
		Quiz: domain.GeneratedQuizMeta{
			Title:       "Which houseplant are you?",
			Description: "Find your botanical alter ego",
			Theme:       "plants",
		},
		Elements: []domain.GeneratedElement{
			{ID: 1, QuestionText: "You forget to water things.", TypeWeights: map[string]int{"Cactus": 3, "Fern": -2}},
			{ID: 2, QuestionText: "You thrive in low light.", TypeWeights: map[string]int{"Cactus": -1, "Fern": 3}},
		},
		Results: []domain.GeneratedResult{
			{BaseType: "Cactus", Modifier: "Resilient", Description: "Thrives on neglect."},
			{BaseType: "Fern", Modifier: "Gentle", Description: "Needs a humid corner."},
		},
	}
}

func TestGenerateAndPersist_Success(t *testing.T) {
	generator := new(MockQuizGenerator)
	quizRepo := new(MockQuizRepository)
	svc := NewGenerationService(generator, quizRepo, &FakeTxManager{})

	spec := validSpec()
	generator.On("Generate", mock.Anything, spec).Return(validContent(), nil)
	quizRepo.On("SaveGeneratedQuiz", mock.Anything, mock.MatchedBy(func(q *domain.Quiz) bool {
		return len(q.Elements) == 2 &&
			len(q.Results) == 2 &&
			q.Elements[0].Position == 1 &&
			q.Elements[1].Position == 2 &&
			q.Elements[0].Weights["Cactus"] == 3
	})).Return(nil)

	quiz, err := svc.GenerateAndPersist(context.Background(), spec)

	assert.NoError(t, err)
	assert.Equal(t, domain.ScaleType, quiz.ScaleType)
	generator.AssertExpectations(t)
	quizRepo.AssertExpectations(t)
}

func TestGenerateAndPersist_InvalidSpecSkipsGeneration(t *testing.T) {
	generator := new(MockQuizGenerator)
	quizRepo := new(MockQuizRepository)
	svc := NewGenerationService(generator, quizRepo, &FakeTxManager{})

	spec := validSpec()
	spec.Types = nil

	_, err := svc.GenerateAndPersist(context.Background(), spec)

	assert.Error(t, err)
	generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGenerateAndPersist_GeneratorErrorPropagates(t *testing.T) {
	generator := new(MockQuizGenerator)
	quizRepo := new(MockQuizRepository)
	svc := NewGenerationService(generator, quizRepo, &FakeTxManager{})

	spec := validSpec()
	generator.On("Generate", mock.Anything, spec).
		Return(nil, domain.NewGenerationError("model returned malformed output", nil))

	_, err := svc.GenerateAndPersist(context.Background(), spec)

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeGeneration, domainErr.Code)
	quizRepo.AssertNotCalled(t, "SaveGeneratedQuiz", mock.Anything, mock.Anything)
}

func TestGenerateAndPersist_PersistenceErrorPropagates(t *testing.T) {
	generator := new(MockQuizGenerator)
	quizRepo := new(MockQuizRepository)
	svc := NewGenerationService(generator, quizRepo, &FakeTxManager{})

	spec := validSpec()
	generator.On("Generate", mock.Anything, spec).Return(validContent(), nil)
	quizRepo.On("SaveGeneratedQuiz", mock.Anything, mock.Anything).
		Return(domain.NewPersistenceError("insert quiz", assert.AnError))

	_, err := svc.GenerateAndPersist(context.Background(), spec)

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodePersistence, domainErr.Code)
}

func TestToDomainQuiz_FallsBackToSpecTitle(t *testing.T) {
	content := validContent()
	content.Quiz.Title = ""
	content.Quiz.Description = ""
	spec := validSpec()

	quiz := toDomainQuiz(content, spec)

	assert.Equal(t, spec.Title, quiz.Title)
	assert.Equal(t, spec.Description, quiz.Description)
}

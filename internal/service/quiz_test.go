package service

import (
	"context"
	"testing"

	"personaquiz/internal/domain"
	"personaquiz/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newQuizFixture(t *testing.T) (*MockQuizRepository, *MockAnswerRepository, *MockRequestQueue, QuizService) {
	t.Helper()
	quizRepo := new(MockQuizRepository)
	answerRepo := new(MockAnswerRepository)
	queue := new(MockRequestQueue)
	svc := NewQuizService(quizRepo, answerRepo, queue, &FakeTxManager{}, nil)
	return quizRepo, answerRepo, queue, svc
}

func TestCreateQuiz_EnqueuesAndAccepts(t *testing.T) {
	_, _, queue, svc := newQuizFixture(t)

	req := &dto.CreateQuizRequest{
		Title:         "Which houseplant are you?",
		Description:   "Find your botanical alter ego",
		Types:         []string{"Cactus", "Fern", "Monstera"},
		QuestionCount: 5,
	}
	queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(spec *domain.QuizSpec) bool {
		return spec.Title == req.Title &&
			spec.QuestionCount == 5 &&
			spec.CreatorID == "user-1" &&
			len(spec.Types) == 3
	})).Return(nil)

	resp, err := svc.CreateQuiz(context.Background(), req, "user-1")

	assert.NoError(t, err)
	assert.Equal(t, "accepted", resp.Status)
	queue.AssertExpectations(t)
}

func TestCreateQuiz_InvalidSpecNeverEnqueued(t *testing.T) {
	_, _, queue, svc := newQuizFixture(t)

	req := &dto.CreateQuizRequest{
		Title:         "Broken quiz",
		Types:         []string{"OnlyOne"},
		QuestionCount: 5,
	}

	resp, err := svc.CreateQuiz(context.Background(), req, "")

	assert.Nil(t, resp)
	assert.Error(t, err)
	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestCreateQuiz_QueueFailureSurfaces(t *testing.T) {
	_, _, queue, svc := newQuizFixture(t)

	req := &dto.CreateQuizRequest{
		Title:         "Valid quiz",
		Description:   "A quiz the broker cannot take",
		Types:         []string{"A", "B"},
		QuestionCount: 3,
	}
	queue.On("Enqueue", mock.Anything, mock.Anything).
		Return(domain.NewInternalError("broker unreachable", nil))

	_, err := svc.CreateQuiz(context.Background(), req, "")

	assert.Error(t, err)
}

func TestGetQuiz_NotFound(t *testing.T) {
	quizRepo, _, _, svc := newQuizFixture(t)

	quizRepo.On("GetQuizByID", mock.Anything, testQuizID).Return(nil, nil)

	_, err := svc.GetQuiz(context.Background(), testQuizID)

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeQuizNotFound, domainErr.Code)
}

func TestGetQuiz_ReturnsElementsInPositionOrder(t *testing.T) {
	quizRepo, _, _, svc := newQuizFixture(t)

	quizRepo.On("GetQuizByID", mock.Anything, testQuizID).Return(&domain.Quiz{
		ID:    testQuizID,
		Title: "Which houseplant are you?",
		Elements: []*domain.QuizElement{
			{ID: elem1ID, Position: 1, Content: "You forget to water things."},
			{ID: elem2ID, Position: 2, Content: "You thrive in low light."},
		},
	}, nil)

	resp, err := svc.GetQuiz(context.Background(), testQuizID)

	assert.NoError(t, err)
	assert.Len(t, resp.Elements, 2)
	assert.Equal(t, 1, resp.Elements[0].Position)
	assert.Equal(t, elem1ID, resp.Elements[0].ID)
}

func TestSubmitAnswers_Success(t *testing.T) {
	quizRepo, answerRepo, _, svc := newQuizFixture(t)

	quizRepo.On("GetQuizByID", mock.Anything, testQuizID).Return(&domain.Quiz{
		ID: testQuizID,
		Elements: []*domain.QuizElement{
			{ID: elem1ID, Position: 1},
			{ID: elem2ID, Position: 2},
		},
	}, nil)
	answerRepo.On("SaveAnswer", mock.Anything, mock.MatchedBy(func(a *domain.Answer) bool {
		return a.QuizID == testQuizID && len(a.Details) == 2
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Answer).ID = testAnswerID
	}).Return(nil)

	req := &dto.SubmitAnswersRequest{Answers: map[string]int{
		elem1ID: 2,
		elem2ID: -3,
	}}
	resp, err := svc.SubmitAnswers(context.Background(), testQuizID, req, "")

	assert.NoError(t, err)
	assert.Equal(t, testAnswerID, resp.AnswerID)
	answerRepo.AssertExpectations(t)
}

func TestSubmitAnswers_MissingQuestionRejected(t *testing.T) {
	quizRepo, answerRepo, _, svc := newQuizFixture(t)

	quizRepo.On("GetQuizByID", mock.Anything, testQuizID).Return(&domain.Quiz{
		ID: testQuizID,
		Elements: []*domain.QuizElement{
			{ID: elem1ID, Position: 1},
			{ID: elem2ID, Position: 2},
		},
	}, nil)

	req := &dto.SubmitAnswersRequest{Answers: map[string]int{elem1ID: 1}}
	_, err := svc.SubmitAnswers(context.Background(), testQuizID, req, "")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
	answerRepo.AssertNotCalled(t, "SaveAnswer", mock.Anything, mock.Anything)
}

func TestSubmitAnswers_UnknownElementRejected(t *testing.T) {
	quizRepo, answerRepo, _, svc := newQuizFixture(t)

	quizRepo.On("GetQuizByID", mock.Anything, testQuizID).Return(&domain.Quiz{
		ID: testQuizID,
		Elements: []*domain.QuizElement{
			{ID: elem1ID, Position: 1},
		},
	}, nil)

	// Same cardinality, wrong element ID.
	req := &dto.SubmitAnswersRequest{Answers: map[string]int{elem2ID: 1}}
	_, err := svc.SubmitAnswers(context.Background(), testQuizID, req, "")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
	answerRepo.AssertNotCalled(t, "SaveAnswer", mock.Anything, mock.Anything)
}

func TestSubmitAnswers_OutOfScaleRejected(t *testing.T) {
	quizRepo, answerRepo, _, svc := newQuizFixture(t)

	quizRepo.On("GetQuizByID", mock.Anything, testQuizID).Return(&domain.Quiz{
		ID: testQuizID,
		Elements: []*domain.QuizElement{
			{ID: elem1ID, Position: 1},
		},
	}, nil)

	req := &dto.SubmitAnswersRequest{Answers: map[string]int{elem1ID: 4}}
	_, err := svc.SubmitAnswers(context.Background(), testQuizID, req, "")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
	answerRepo.AssertNotCalled(t, "SaveAnswer", mock.Anything, mock.Anything)
}

func TestSubmitAnswers_QuizNotFound(t *testing.T) {
	quizRepo, _, _, svc := newQuizFixture(t)

	quizRepo.On("GetQuizByID", mock.Anything, testQuizID).Return(nil, nil)

	req := &dto.SubmitAnswersRequest{Answers: map[string]int{elem1ID: 1}}
	_, err := svc.SubmitAnswers(context.Background(), testQuizID, req, "")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeQuizNotFound, domainErr.Code)
}

func TestListRecentQuizzes_MapsToListResponse(t *testing.T) {
	quizRepo, _, _, svc := newQuizFixture(t)

	quizRepo.On("ListRecentQuizzes", mock.Anything, listingLimit).Return([]*domain.Quiz{
		{ID: testQuizID, Title: "Which houseplant are you?", AnswerCount: 7},
	}, nil)

	resp, err := svc.ListRecentQuizzes(context.Background())

	assert.NoError(t, err)
	assert.Len(t, resp.Quizzes, 1)
	assert.Equal(t, int64(7), resp.Quizzes[0].AnswerCount)
	assert.Empty(t, resp.Quizzes[0].Elements)
}

func TestListMyAnswers_RequiresIdentity(t *testing.T) {
	_, answerRepo, _, svc := newQuizFixture(t)

	_, err := svc.ListMyAnswers(context.Background(), "")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeUnauthorized, domainErr.Code)
	answerRepo.AssertNotCalled(t, "ListAnswersByUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestListMyAnswers_MapsHistory(t *testing.T) {
	_, answerRepo, _, svc := newQuizFixture(t)

	answerRepo.On("ListAnswersByUser", mock.Anything, "user-1", listingLimit).
		Return([]*domain.Answer{
			{ID: testAnswerID, QuizID: testQuizID},
		}, nil)

	resp, err := svc.ListMyAnswers(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.Len(t, resp.Answers, 1)
	assert.Equal(t, testAnswerID, resp.Answers[0].AnswerID)
	assert.Equal(t, testQuizID, resp.Answers[0].QuizID)
}

func TestListHotQuizzes_WithoutCache(t *testing.T) {
	quizRepo, _, _, svc := newQuizFixture(t)

	quizRepo.On("ListHotQuizzes", mock.Anything, listingLimit).Return([]*domain.Quiz{
		{ID: testQuizID, Title: "Which houseplant are you?", AnswerCount: 42},
	}, nil)

	resp, err := svc.ListHotQuizzes(context.Background())

	assert.NoError(t, err)
	assert.Len(t, resp.Quizzes, 1)
	quizRepo.AssertExpectations(t)
}

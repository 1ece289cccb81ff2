package service

import (
	"context"
	"testing"

	"personaquiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const (
	testQuizID   = "01HQUIZAAAAAAAAAAAAAAAAAAA"
	testAnswerID = "01HANSWERAAAAAAAAAAAAAAAAA"
	resultAID    = "01HRESAAAAAAAAAAAAAAAAAAAA"
	resultBID    = "01HRESBBBBBBBBBBBBBBBBBBBB"
	elem1ID      = "01HELEM1AAAAAAAAAAAAAAAAAA"
	elem2ID      = "01HELEM2AAAAAAAAAAAAAAAAAA"
)

func newScoringFixture(t *testing.T) (*MockQuizRepository, *MockAnswerRepository, ScoringService) {
	t.Helper()
	quizRepo := new(MockQuizRepository)
	answerRepo := new(MockAnswerRepository)
	svc := NewScoringService(quizRepo, answerRepo, nil)
	return quizRepo, answerRepo, svc
}

func TestScore_WeightedSumPicksWinner(t *testing.T) {
	quizRepo, answerRepo, svc := newScoringFixture(t)

	answerRepo.On("GetAnswerByID", mock.Anything, testAnswerID).
		Return(&domain.Answer{ID: testAnswerID, QuizID: testQuizID}, nil)
	answerRepo.On("GetAnswerDetails", mock.Anything, testAnswerID).
		Return([]*domain.AnswerDetail{
			{AnswerID: testAnswerID, QuizElementID: elem1ID, Value: 2},
			{AnswerID: testAnswerID, QuizElementID: elem2ID, Value: 3},
		}, nil)
	// Weights: q1 {A:3, B:-2}, q2 {A:-1, B:3}
	answerRepo.On("GetScoreRows", mock.Anything, testQuizID).
		Return([]*domain.ScoreRow{
			{QuizElementID: elem1ID, QuizResultID: resultAID, Score: 3},
			{QuizElementID: elem2ID, QuizResultID: resultAID, Score: -1},
			{QuizElementID: elem1ID, QuizResultID: resultBID, Score: -2},
			{QuizElementID: elem2ID, QuizResultID: resultBID, Score: 3},
		}, nil)
	quizRepo.On("GetResultByID", mock.Anything, resultBID).
		Return(&domain.QuizResult{ID: resultBID, QuizID: testQuizID, BaseType: "B", Description: "desc"}, nil)

	// A = 2*3 + 3*(-1) = 3; B = 2*(-2) + 3*3 = 5 -> winner B
	resp, err := svc.Score(context.Background(), testQuizID, testAnswerID)

	assert.NoError(t, err)
	assert.Equal(t, "B", resp.BaseType)
	assert.Equal(t, 3, resp.Totals[resultAID])
	assert.Equal(t, 5, resp.Totals[resultBID])
	quizRepo.AssertExpectations(t)
	answerRepo.AssertExpectations(t)
}

func TestScore_TieBreaksToLowestResultID(t *testing.T) {
	quizRepo, answerRepo, svc := newScoringFixture(t)

	answerRepo.On("GetAnswerByID", mock.Anything, testAnswerID).
		Return(&domain.Answer{ID: testAnswerID, QuizID: testQuizID}, nil)
	answerRepo.On("GetAnswerDetails", mock.Anything, testAnswerID).
		Return([]*domain.AnswerDetail{
			{AnswerID: testAnswerID, QuizElementID: elem1ID, Value: 3},
		}, nil)
	answerRepo.On("GetScoreRows", mock.Anything, testQuizID).
		Return([]*domain.ScoreRow{
			// Deliberately listed B first; the tie-break must not depend
			// on row order, only on the result ID ordering.
			{QuizElementID: elem1ID, QuizResultID: resultBID, Score: 1},
			{QuizElementID: elem1ID, QuizResultID: resultAID, Score: 1},
		}, nil)
	quizRepo.On("GetResultByID", mock.Anything, resultAID).
		Return(&domain.QuizResult{ID: resultAID, QuizID: testQuizID, BaseType: "A", Description: "desc"}, nil)

	resp, err := svc.Score(context.Background(), testQuizID, testAnswerID)

	assert.NoError(t, err)
	assert.Equal(t, "A", resp.BaseType)
}

func TestScore_NegativeTotalsStillProduceWinner(t *testing.T) {
	quizRepo, answerRepo, svc := newScoringFixture(t)

	answerRepo.On("GetAnswerByID", mock.Anything, testAnswerID).
		Return(&domain.Answer{ID: testAnswerID, QuizID: testQuizID}, nil)
	answerRepo.On("GetAnswerDetails", mock.Anything, testAnswerID).
		Return([]*domain.AnswerDetail{
			{AnswerID: testAnswerID, QuizElementID: elem1ID, Value: -3},
		}, nil)
	answerRepo.On("GetScoreRows", mock.Anything, testQuizID).
		Return([]*domain.ScoreRow{
			{QuizElementID: elem1ID, QuizResultID: resultAID, Score: 3},
			{QuizElementID: elem1ID, QuizResultID: resultBID, Score: 1},
		}, nil)
	// A = -9, B = -3 -> B wins despite both being negative
	quizRepo.On("GetResultByID", mock.Anything, resultBID).
		Return(&domain.QuizResult{ID: resultBID, QuizID: testQuizID, BaseType: "B", Description: "desc"}, nil)

	resp, err := svc.Score(context.Background(), testQuizID, testAnswerID)

	assert.NoError(t, err)
	assert.Equal(t, "B", resp.BaseType)
}

func TestScore_EmptyDetailsNotComputable(t *testing.T) {
	_, answerRepo, svc := newScoringFixture(t)

	answerRepo.On("GetAnswerByID", mock.Anything, testAnswerID).
		Return(&domain.Answer{ID: testAnswerID, QuizID: testQuizID}, nil)
	answerRepo.On("GetAnswerDetails", mock.Anything, testAnswerID).
		Return([]*domain.AnswerDetail{}, nil)

	resp, err := svc.Score(context.Background(), testQuizID, testAnswerID)

	assert.Nil(t, resp)
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeNotComputable, domainErr.Code)
}

func TestScore_NoWeightRowsNotComputable(t *testing.T) {
	_, answerRepo, svc := newScoringFixture(t)

	answerRepo.On("GetAnswerByID", mock.Anything, testAnswerID).
		Return(&domain.Answer{ID: testAnswerID, QuizID: testQuizID}, nil)
	answerRepo.On("GetAnswerDetails", mock.Anything, testAnswerID).
		Return([]*domain.AnswerDetail{
			{AnswerID: testAnswerID, QuizElementID: elem1ID, Value: 1},
		}, nil)
	answerRepo.On("GetScoreRows", mock.Anything, testQuizID).
		Return([]*domain.ScoreRow{}, nil)

	_, err := svc.Score(context.Background(), testQuizID, testAnswerID)

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeNotComputable, domainErr.Code)
}

func TestScore_UnknownAnswerNotFound(t *testing.T) {
	_, answerRepo, svc := newScoringFixture(t)

	answerRepo.On("GetAnswerByID", mock.Anything, testAnswerID).
		Return(nil, nil)

	_, err := svc.Score(context.Background(), testQuizID, testAnswerID)

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeAnswerNotFound, domainErr.Code)
}

func TestScore_AnswerFromDifferentQuizNotFound(t *testing.T) {
	_, answerRepo, svc := newScoringFixture(t)

	answerRepo.On("GetAnswerByID", mock.Anything, testAnswerID).
		Return(&domain.Answer{ID: testAnswerID, QuizID: "01HOTHERQUIZAAAAAAAAAAAAAA"}, nil)

	_, err := svc.Score(context.Background(), testQuizID, testAnswerID)

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeAnswerNotFound, domainErr.Code)
}

func TestScore_CachedResultNotServedForWrongQuiz(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	answerRepo := new(MockAnswerRepository)
	resultCache := new(MockCache)
	svc := NewScoringService(quizRepo, answerRepo, resultCache)

	// A winner is already cached for this answer, but the request names a
	// quiz the answer does not belong to.
	answerRepo.On("GetAnswerByID", mock.Anything, testAnswerID).
		Return(&domain.Answer{ID: testAnswerID, QuizID: "01HOTHERQUIZAAAAAAAAAAAAAA"}, nil)

	_, err := svc.Score(context.Background(), testQuizID, testAnswerID)

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeAnswerNotFound, domainErr.Code)
	resultCache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestScore_CacheHitSkipsRecomputation(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	answerRepo := new(MockAnswerRepository)
	resultCache := new(MockCache)
	svc := NewScoringService(quizRepo, answerRepo, resultCache)

	answerRepo.On("GetAnswerByID", mock.Anything, testAnswerID).
		Return(&domain.Answer{ID: testAnswerID, QuizID: testQuizID}, nil)
	resultCache.On("Get", mock.Anything, "personaquiz:scoring:result:"+testAnswerID).
		Return(`{"answer_id":"`+testAnswerID+`","base_type":"Cactus","title":"Resilient Cactus"}`, nil)

	resp, err := svc.Score(context.Background(), testQuizID, testAnswerID)

	assert.NoError(t, err)
	assert.Equal(t, "Cactus", resp.BaseType)
	answerRepo.AssertNotCalled(t, "GetAnswerDetails", mock.Anything, mock.Anything)
	answerRepo.AssertNotCalled(t, "GetScoreRows", mock.Anything, mock.Anything)
}

func TestScore_Idempotent(t *testing.T) {
	quizRepo, answerRepo, svc := newScoringFixture(t)

	answerRepo.On("GetAnswerByID", mock.Anything, testAnswerID).
		Return(&domain.Answer{ID: testAnswerID, QuizID: testQuizID}, nil)
	answerRepo.On("GetAnswerDetails", mock.Anything, testAnswerID).
		Return([]*domain.AnswerDetail{
			{AnswerID: testAnswerID, QuizElementID: elem1ID, Value: 2},
		}, nil)
	answerRepo.On("GetScoreRows", mock.Anything, testQuizID).
		Return([]*domain.ScoreRow{
			{QuizElementID: elem1ID, QuizResultID: resultAID, Score: 2},
			{QuizElementID: elem1ID, QuizResultID: resultBID, Score: -1},
		}, nil)
	quizRepo.On("GetResultByID", mock.Anything, resultAID).
		Return(&domain.QuizResult{ID: resultAID, QuizID: testQuizID, BaseType: "A", Description: "desc"}, nil)

	first, err := svc.Score(context.Background(), testQuizID, testAnswerID)
	assert.NoError(t, err)
	second, err := svc.Score(context.Background(), testQuizID, testAnswerID)
	assert.NoError(t, err)

	assert.Equal(t, first.BaseType, second.BaseType)
	assert.Equal(t, first.Totals, second.Totals)
}

func TestComputeWinner_CoversEveryTypeInVector(t *testing.T) {
	// A zero weight is still a weight: the type must appear in the totals.
	details := []*domain.AnswerDetail{{QuizElementID: elem1ID, Value: 3}}
	rows := []*domain.ScoreRow{
		{QuizElementID: elem1ID, QuizResultID: resultAID, Score: 0},
		{QuizElementID: elem1ID, QuizResultID: resultBID, Score: 2},
	}

	winner, totals := computeWinner(details, rows)

	assert.Equal(t, resultBID, winner)
	assert.Len(t, totals, 2)
	assert.Equal(t, 0, totals[resultAID])
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"personaquiz/internal/cache"
	"personaquiz/internal/domain"
	"personaquiz/internal/dto"
	"personaquiz/internal/logger"

	"go.uber.org/zap"
)

const resultCacheTTL = 24 * time.Hour

// ScoringService computes the winning result type for one quiz attempt.
type ScoringService interface {
	// Score folds the attempt's answers over the quiz's weight matrix and
	// returns the winning result. Pure over persisted data and idempotent,
	// so results are cached by answer ID.
	Score(ctx context.Context, quizID, answerID string) (*dto.QuizResultResponse, error)
}

type scoringService struct {
	quizRepo   domain.QuizRepository
	answerRepo domain.AnswerRepository
	cache      domain.Cache
}

// NewScoringService creates a new instance of scoringService
func NewScoringService(
	quizRepo domain.QuizRepository,
	answerRepo domain.AnswerRepository,
	resultCache domain.Cache,
) ScoringService {
	return &scoringService{
		quizRepo:   quizRepo,
		answerRepo: answerRepo,
		cache:      resultCache,
	}
}

// Score implements ScoringService
func (s *scoringService) Score(ctx context.Context, quizID, answerID string) (*dto.QuizResultResponse, error) {
	answer, err := s.answerRepo.GetAnswerByID(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if answer == nil || answer.QuizID != quizID {
		return nil, domain.NewAnswerNotFoundError(answerID)
	}

	// Cache only after ownership is established, so a cached winner is never
	// served under a quiz ID the answer does not belong to.
	if s.cache != nil {
		key := cache.GenerateCacheKey("scoring", "result", answerID)
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var resp dto.QuizResultResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Result cache read failed", zap.Error(err))
		}
	}

	details, err := s.answerRepo.GetAnswerDetails(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, domain.NewNotComputableError("answer has no details to score")
	}

	scoreRows, err := s.answerRepo.GetScoreRows(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(scoreRows) == 0 {
		return nil, domain.NewNotComputableError("quiz has no weight matrix")
	}

	winnerID, totals := computeWinner(details, scoreRows)
	if winnerID == "" {
		return nil, domain.NewNotComputableError("no result type accumulated a score")
	}

	result, err := s.quizRepo.GetResultByID(ctx, winnerID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, domain.NewInternalError("winning result row is missing", nil)
	}

	resp := &dto.QuizResultResponse{
		AnswerID:    answerID,
		BaseType:    result.BaseType,
		Modifier:    result.Modifier,
		Title:       resultTitle(result),
		Description: result.Description,
		Strengths:   result.Strengths,
		Weaknesses:  result.Weaknesses,
		GoodMatches: result.GoodMatches,
		BadMatches:  result.BadMatches,
		Advice:      result.Advice,
		Totals:      totals,
	}

	if s.cache != nil {
		if data, err := json.Marshal(resp); err == nil {
			key := cache.GenerateCacheKey("scoring", "result", answerID)
			if err := s.cache.Set(ctx, key, string(data), resultCacheTTL); err != nil {
				logger.Get().Warn("Result cache write failed", zap.Error(err))
			}
		}
	}

	return resp, nil
}

// computeWinner accumulates answerValue x weight per result type and picks
// the strict maximum. Result IDs are scanned in ascending order, so equal
// top totals resolve to the lowest ID; ULIDs make that first-inserted.
func computeWinner(details []*domain.AnswerDetail, scoreRows []*domain.ScoreRow) (string, map[string]int) {
	weights := make(map[string]map[string]int) // element -> result -> weight
	for _, row := range scoreRows {
		byResult, ok := weights[row.QuizElementID]
		if !ok {
			byResult = make(map[string]int)
			weights[row.QuizElementID] = byResult
		}
		byResult[row.QuizResultID] = row.Score
	}

	totals := make(map[string]int)
	for _, d := range details {
		for resultID, weight := range weights[d.QuizElementID] {
			totals[resultID] += d.Value * weight
		}
	}

	resultIDs := make([]string, 0, len(totals))
	for id := range totals {
		resultIDs = append(resultIDs, id)
	}
	sort.Strings(resultIDs)

	winnerID := ""
	best := 0
	for _, id := range resultIDs {
		if winnerID == "" || totals[id] > best {
			winnerID = id
			best = totals[id]
		}
	}
	return winnerID, totals
}

func resultTitle(r *domain.QuizResult) string {
	if r.Modifier == "" {
		return r.BaseType
	}
	return r.Modifier + " " + r.BaseType
}

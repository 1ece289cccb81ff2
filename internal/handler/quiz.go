package handler

import (
	"time"

	"personaquiz/internal/dto"
	"personaquiz/internal/middleware"
	"personaquiz/internal/service"
	"personaquiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	quizService    service.QuizService
	scoringService service.ScoringService
	validator      *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(quizService service.QuizService, scoringService service.ScoringService) *QuizHandler {
	return &QuizHandler{
		quizService:    quizService,
		scoringService: scoringService,
		validator:      validation.NewValidator(),
	}
}

// CreateQuiz handles POST /api/quizzes. The request is validated and
// enqueued; generation happens asynchronously in the worker.
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	var req dto.CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "INVALID_REQUEST",
		})
	}

	if errs := h.validator.ValidateCreateQuizRequest(&req); len(errs) > 0 {
		return errs
	}

	resp, err := h.quizService.CreateQuiz(c.Context(), &req, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// GetQuiz handles GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	quizID := c.Params("id")
	if errs := h.validator.ValidateID("id", quizID); len(errs) > 0 {
		return errs
	}

	resp, err := h.quizService.GetQuiz(c.Context(), quizID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListRecentQuizzes handles GET /api/quizzes/recent
func (h *QuizHandler) ListRecentQuizzes(c *fiber.Ctx) error {
	resp, err := h.quizService.ListRecentQuizzes(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListHotQuizzes handles GET /api/quizzes/hot
func (h *QuizHandler) ListHotQuizzes(c *fiber.Ctx) error {
	resp, err := h.quizService.ListHotQuizzes(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SubmitAnswers handles POST /api/quizzes/:id/answers
func (h *QuizHandler) SubmitAnswers(c *fiber.Ctx) error {
	quizID := c.Params("id")
	if errs := h.validator.ValidateID("id", quizID); len(errs) > 0 {
		return errs
	}

	var req dto.SubmitAnswersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "INVALID_REQUEST",
		})
	}
	if errs := h.validator.ValidateSubmitAnswersRequest(&req); len(errs) > 0 {
		return errs
	}

	resp, err := h.quizService.SubmitAnswers(c.Context(), quizID, &req, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetResult handles GET /api/quizzes/:id/results/:answerId
func (h *QuizHandler) GetResult(c *fiber.Ctx) error {
	quizID := c.Params("id")
	answerID := c.Params("answerId")
	if errs := h.validator.ValidateID("id", quizID); len(errs) > 0 {
		return errs
	}
	if errs := h.validator.ValidateID("answerId", answerID); len(errs) > 0 {
		return errs
	}

	resp, err := h.scoringService.Score(c.Context(), quizID, answerID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListMyAnswers handles GET /api/users/me/answers
func (h *QuizHandler) ListMyAnswers(c *fiber.Ctx) error {
	resp, err := h.quizService.ListMyAnswers(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Health handles GET /health
func Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

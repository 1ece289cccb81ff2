package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"personaquiz/internal/config"
	"personaquiz/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// fencePattern matches a completion wrapped in a markdown code block,
// with or without a language tag. The model is told not to fence its
// output but does so anyway often enough to handle it here.
var fencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\n?```$")

// LLMQuizGenerator implements domain.QuizGenerator on top of a langchaingo
// completion model. Stateless per invocation.
type LLMQuizGenerator struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// NewLLM constructs the completion client selected by configuration.
func NewLLM(cfg config.LLMConfig) (llms.Model, error) {
	switch cfg.Source {
	case "openai":
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.Endpoint != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
		}
		return openai.New(opts...)
	case "ollama":
		httpClient := &http.Client{Timeout: cfg.Timeout}
		return ollama.New(
			ollama.WithServerURL(cfg.Endpoint),
			ollama.WithModel(cfg.Model),
			ollama.WithHTTPClient(httpClient),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM source: %s", cfg.Source)
	}
}

// NewLLMQuizGenerator creates a new generator instance.
func NewLLMQuizGenerator(llm llms.Model, cfg config.LLMConfig, logger *zap.Logger) (*LLMQuizGenerator, error) {
	if llm == nil {
		return nil, fmt.Errorf("llm client cannot be nil")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &LLMQuizGenerator{
		llm:         llm,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// Generate implements domain.QuizGenerator. It builds the instruction
// prompt, invokes the completion service with a bounded timeout, strips an
// optional fence wrapper, parses the JSON and validates it against the spec.
func (g *LLMQuizGenerator) Generate(ctx context.Context, spec *domain.QuizSpec) (*domain.GeneratedQuizContent, error) {
	prompt := buildPrompt(spec)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	g.logger.Info("Invoking completion service",
		zap.String("title", spec.Title),
		zap.Int("questions_count", spec.QuestionCount),
		zap.Int("types", len(spec.Types)),
	)

	resp, err := g.llm.GenerateContent(callCtx,
		[]llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, prompt)},
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		return nil, domain.NewGenerationError("completion service call failed", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return nil, domain.NewGenerationError("completion service returned an empty response", nil)
	}

	cleaned := stripFence(resp.Choices[0].Content)

	var content domain.GeneratedQuizContent
	if err := json.Unmarshal([]byte(cleaned), &content); err != nil {
		g.logger.Error("Failed to parse completion as JSON",
			zap.Error(err),
			zap.String("response_prefix", truncate(cleaned, 200)),
		)
		return nil, domain.NewGenerationError("failed to parse completion as JSON", err)
	}

	if err := content.Validate(spec); err != nil {
		return nil, err
	}

	g.logger.Info("Generated quiz content",
		zap.String("title", content.Quiz.Title),
		zap.Int("elements", len(content.Elements)),
		zap.Int("results", len(content.Results)),
	)
	return &content, nil
}

// buildPrompt embeds the spec into the single natural-language instruction
// the completion service answers with pure JSON.
func buildPrompt(spec *domain.QuizSpec) string {
	var types strings.Builder
	for i, t := range spec.Types {
		if i > 0 {
			types.WriteString(", ")
		}
		fmt.Fprintf(&types, "%d. %s", i+1, t)
	}

	return fmt.Sprintf(`You are an AI that generates personality quizzes.
Based on the theme the user provides (e.g. animals, RPG classes, mythological figures)
and the user's list of result types, generate the questions, scores and result types.

[Title] %s
[Description] %s
[User-specified result types] %s

Rules:

1. Types
For each user-specified type, generate only a short thematic modifier that
symbolizes it. Do not invent new type names. base_type must always be the
original type name exactly as given; modifier holds the styling only.
Example: for "warrior" the modifier could be "lone" or "unstoppable".

2. Question design (type-weight scheme)
Generate exactly the requested number of questions.
Assign type_weights to every question: a signed integer per type expressing
how strongly an answer moves that type's score. The respondent's answer
value is multiplied by type_weights[type] and added to the tally.
Keep weights balanced so that no single type dominates: summed across all
questions, each type should receive roughly equal total influence.
All questions are answered on a 7-point scale from -3 to +3.

3. Result design
Each type must include:
base_type (the original user-specified type name)
modifier (thematic modifier only)
description (100-200 characters)
strengths (100-150 characters describing this type's strengths)
weaknesses (100-150 characters describing this type's weaknesses)
good_matches (two compatible types, optional)
bad_matches (two incompatible types, optional)
advice (100-150 characters)

Output format:
Respond with pure JSON only, in exactly this shape, without code block fences or prose:

{
  "quizzes": {
    "title": "string",
    "description": "string",
    "scale_type": "7-point (-3 to +3)",
    "theme": "string",
    "created_by": "system"
  },
  "quiz_elements": [
    {
      "id": 1,
      "question_text": "string",
      "type_weights": {
        "base_type1": 0,
        "base_type2": 0
      }
    }
  ],
  "quiz_results": [
    {
      "base_type": "string",
      "modifier": "string",
      "description": "string",
      "strengths": "string",
      "weaknesses": "string",
      "good_matches": ["string", "string"],
      "bad_matches": ["string", "string"],
      "advice": "string"
    }
  ]
}

You must generate exactly %d questions and %d results.`,
		spec.Title, spec.Description, types.String(), spec.QuestionCount, len(spec.Types))
}

// stripFence removes a surrounding markdown code block, if present.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Static assertion that LLMQuizGenerator implements QuizGenerator
var _ domain.QuizGenerator = (*LLMQuizGenerator)(nil)

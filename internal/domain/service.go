package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache implementations when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// RequestQueue decouples quiz-creation requests from the generation worker.
// Delivery is at-least-once: a dequeued message stays leased to its consumer
// until acknowledged, and redelivery occurs if the lease is lost.
type RequestQueue interface {
	// Enqueue durably publishes a spec and returns without waiting for generation.
	Enqueue(ctx context.Context, spec *QuizSpec) error
	// Consume opens a delivery stream. Each message is leased to exactly one
	// consumer until settled. The channel closes when ctx is cancelled or the
	// connection is lost.
	Consume(ctx context.Context) (<-chan QueueMessage, error)
}

// QueueMessage is one leased delivery from the request queue.
type QueueMessage interface {
	Spec() *QuizSpec
	// Attempts is the number of processing attempts including this delivery.
	Attempts() int
	// Ack removes the message permanently. Call exactly once, after
	// persistence commits.
	Ack() error
	// Requeue republishes the message for redelivery with an incremented
	// attempt count and settles this delivery.
	Requeue(ctx context.Context) error
	// DeadLetter moves the message to the operator queue with a reason and
	// settles this delivery.
	DeadLetter(ctx context.Context, reason string) error
}

// QuizRepository persists generated quizzes and serves read paths.
type QuizRepository interface {
	// SaveGeneratedQuiz writes the quiz, its elements, its results and the
	// full cross-product weight matrix. Must be called inside a transaction
	// context; rows become visible together or not at all.
	SaveGeneratedQuiz(ctx context.Context, quiz *Quiz) error
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)
	// ListRecentQuizzes returns published quizzes newest-first, with answer
	// counts filled by a single aggregate query.
	ListRecentQuizzes(ctx context.Context, limit int) ([]*Quiz, error)
	// ListHotQuizzes returns published quizzes ordered by answer count.
	ListHotQuizzes(ctx context.Context, limit int) ([]*Quiz, error)
	GetResultByID(ctx context.Context, id string) (*QuizResult, error)
}

// AnswerRepository persists quiz attempts and serves the scoring reads.
type AnswerRepository interface {
	// SaveAnswer writes the answer record and all its details.
	SaveAnswer(ctx context.Context, answer *Answer) error
	GetAnswerByID(ctx context.Context, id string) (*Answer, error)
	// GetAnswerDetails returns all detail rows for one attempt.
	GetAnswerDetails(ctx context.Context, answerID string) ([]*AnswerDetail, error)
	// GetScoreRows returns the quiz's weight matrix ordered by result ID.
	GetScoreRows(ctx context.Context, quizID string) ([]*ScoreRow, error)
	// ListAnswersByUser returns a user's attempts, newest first.
	ListAnswersByUser(ctx context.Context, userID string, limit int) ([]*Answer, error)
}

// TransactionManager defines the interface for transaction management
type TransactionManager interface {
	// WithTransaction executes fn within a transaction. The transaction is
	// committed if fn returns nil and rolled back otherwise.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Cache defines the caching interface used by services.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

package worker

import (
	"context"
	"time"

	"personaquiz/internal/domain"
	"personaquiz/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Worker consumes quiz requests and runs the generation pipeline for each.
// Per message the flow is Received -> Generating -> Persisting -> Done;
// Generating and Persisting failures are retried with backoff up to the
// attempt cap, after which the message is dead-lettered. A spec that fails
// validation goes to the dead-letter queue immediately.
type Worker struct {
	queue      domain.RequestQueue
	generation service.GenerationService
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewWorker creates a new Worker instance
func NewWorker(
	queue domain.RequestQueue,
	generation service.GenerationService,
	maxRetries int,
	retryDelay time.Duration,
	logger *zap.Logger,
) *Worker {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Worker{
		queue:      queue,
		generation: generation,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Run consumes the queue with the given number of concurrent consumers and
// blocks until the context is cancelled or the delivery stream closes.
func (w *Worker) Run(ctx context.Context, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	messages, err := w.queue.Consume(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case msg, ok := <-messages:
					if !ok {
						return nil
					}
					w.handleMessage(gctx, msg)
				}
			}
		})
	}
	return g.Wait()
}

// handleMessage settles its message exactly once on every path: ack after
// commit, requeue on retryable failure, dead-letter otherwise. Settlement
// failures are logged and left to the broker lease; the unacked message
// will be redelivered.
func (w *Worker) handleMessage(ctx context.Context, msg domain.QueueMessage) {
	spec := msg.Spec()
	attempt := msg.Attempts()

	w.logger.Info("Received quiz request",
		zap.String("title", spec.Title),
		zap.Int("attempt", attempt),
	)

	if err := spec.Validate(); err != nil {
		// Bad shape can never succeed; retrying would loop forever.
		if dlErr := msg.DeadLetter(ctx, "invalid quiz spec: "+err.Error()); dlErr != nil {
			w.logger.Error("Failed to dead-letter invalid spec", zap.Error(dlErr))
		}
		return
	}

	quiz, err := w.generation.GenerateAndPersist(ctx, spec)
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			w.logger.Error("Failed to ack processed message",
				zap.Error(ackErr),
				zap.String("quiz_id", quiz.ID),
			)
			return
		}
		w.logger.Info("Quiz request completed",
			zap.String("quiz_id", quiz.ID),
			zap.Int("attempt", attempt),
		)
		return
	}

	if !domain.IsRetryable(err) {
		if dlErr := msg.DeadLetter(ctx, err.Error()); dlErr != nil {
			w.logger.Error("Failed to dead-letter message", zap.Error(dlErr))
		}
		return
	}

	if attempt >= w.maxRetries {
		w.logger.Error("Quiz request exhausted retries",
			zap.Error(err),
			zap.String("title", spec.Title),
			zap.Int("attempts", attempt),
		)
		if dlErr := msg.DeadLetter(ctx, "retries exhausted: "+err.Error()); dlErr != nil {
			w.logger.Error("Failed to dead-letter message", zap.Error(dlErr))
		}
		return
	}

	w.logger.Warn("Quiz request failed, requeueing",
		zap.Error(err),
		zap.String("title", spec.Title),
		zap.Int("attempt", attempt),
	)

	// Exponential backoff before redelivery. Each consumer holds a single
	// prefetch slot, so waiting here spaces out this message without
	// starving the other consumers.
	backoff := w.retryDelay << (attempt - 1)
	select {
	case <-ctx.Done():
		return // broker lease redelivers the unacked message
	case <-time.After(backoff):
	}

	if reqErr := msg.Requeue(ctx); reqErr != nil {
		w.logger.Error("Failed to requeue message", zap.Error(reqErr))
	}
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"personaquiz/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	deadLetterSuffix = ".dead"

	attemptsHeader = "x-attempts"
	reasonHeader   = "x-dead-letter-reason"
)

// RabbitMQQueue implements domain.RequestQueue over an AMQP broker.
// Deliveries use manual acknowledgement: an unacked message returns to the
// queue if the consumer dies, which is the lease the at-least-once contract
// requires. Acks happen only after persistence.
type RabbitMQQueue struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	queueName string
	prefetch  int
	logger    *zap.Logger
}

// NewRabbitMQQueue connects to the broker and declares the request queue
// and its dead-letter companion. Both are durable. prefetch caps unacked
// deliveries on the shared channel; consumers pass their concurrency so
// each worker goroutine can hold one in-flight message.
func NewRabbitMQQueue(url, queueName string, prefetch int, logger *zap.Logger) (*RabbitMQQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, name := range []string{queueName, queueName + deadLetterSuffix} {
		if _, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}

	return &RabbitMQQueue{
		conn:      conn,
		ch:        ch,
		queueName: queueName,
		prefetch:  normalizePrefetch(prefetch),
		logger:    logger,
	}, nil
}

func normalizePrefetch(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Enqueue implements domain.RequestQueue. The write is durable; the caller
// does not wait for generation.
func (q *RabbitMQQueue) Enqueue(ctx context.Context, spec *domain.QuizSpec) error {
	body, err := json.Marshal(spec)
	if err != nil {
		return domain.NewInternalError("failed to marshal quiz spec", err)
	}

	err = q.ch.PublishWithContext(ctx,
		"",          // default exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{attemptsHeader: int32(1)},
			Body:         body,
		})
	if err != nil {
		return domain.NewInternalError("failed to publish quiz request", err)
	}

	q.logger.Info("Enqueued quiz request",
		zap.String("title", spec.Title),
		zap.Int("questions_count", spec.QuestionCount),
	)
	return nil
}

// Consume implements domain.RequestQueue. The QoS cap is per channel, so it
// is set to the consumer count: each worker goroutine holds at most one
// in-flight generation.
func (q *RabbitMQQueue) Consume(ctx context.Context) (<-chan domain.QueueMessage, error) {
	if err := q.ch.Qos(q.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := q.ch.Consume(
		q.queueName,
		"",    // consumer tag
		false, // autoAck: manual ack after persistence commits
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}

	out := make(chan domain.QueueMessage)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				var spec domain.QuizSpec
				if err := json.Unmarshal(d.Body, &spec); err != nil {
					// Undecodable payloads can never succeed: straight to
					// the operator queue.
					q.logger.Error("Dropping undecodable queue message", zap.Error(err))
					msg := &rabbitMessage{queue: q, delivery: d}
					if dlErr := msg.deadLetterRaw(ctx, d.Body, "undecodable payload: "+err.Error()); dlErr != nil {
						q.logger.Error("Failed to dead-letter undecodable message", zap.Error(dlErr))
					}
					continue
				}
				select {
				case out <- &rabbitMessage{queue: q, delivery: d, spec: &spec}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the channel and connection.
func (q *RabbitMQQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

// rabbitMessage is one leased delivery.
type rabbitMessage struct {
	queue    *RabbitMQQueue
	delivery amqp.Delivery
	spec     *domain.QuizSpec
}

func (m *rabbitMessage) Spec() *domain.QuizSpec { return m.spec }

func (m *rabbitMessage) Attempts() int {
	if m.delivery.Headers == nil {
		return 1
	}
	// AMQP clients disagree on integer widths in headers.
	switch v := m.delivery.Headers[attemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 1
	}
}

func (m *rabbitMessage) Ack() error {
	return m.delivery.Ack(false)
}

// Requeue republishes with an incremented attempt counter and settles the
// original delivery. A plain broker nack/requeue would not carry the count.
func (m *rabbitMessage) Requeue(ctx context.Context) error {
	err := m.queue.ch.PublishWithContext(ctx,
		"",
		m.queue.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{attemptsHeader: int32(m.Attempts() + 1)},
			Body:         m.delivery.Body,
		})
	if err != nil {
		// Leave the original unsettled; the broker redelivers it when the
		// channel closes, so the message is not lost.
		return fmt.Errorf("failed to republish message: %w", err)
	}
	return m.delivery.Ack(false)
}

// DeadLetter moves the message to the operator queue with a reason header.
func (m *rabbitMessage) DeadLetter(ctx context.Context, reason string) error {
	if err := m.deadLetterRaw(ctx, m.delivery.Body, reason); err != nil {
		return err
	}
	m.queue.logger.Error("Quiz request dead-lettered",
		zap.String("reason", reason),
		zap.Int("attempts", m.Attempts()),
	)
	return nil
}

func (m *rabbitMessage) deadLetterRaw(ctx context.Context, body []byte, reason string) error {
	err := m.queue.ch.PublishWithContext(ctx,
		"",
		m.queue.queueName+deadLetterSuffix,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers: amqp.Table{
				attemptsHeader: int32(m.Attempts()),
				reasonHeader:   reason,
			},
			Body: body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish to dead-letter queue: %w", err)
	}
	return m.delivery.Ack(false)
}

// Static assertions
var (
	_ domain.RequestQueue = (*RabbitMQQueue)(nil)
	_ domain.QueueMessage = (*rabbitMessage)(nil)
)

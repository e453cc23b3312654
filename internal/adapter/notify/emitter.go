// Package notify delivers user notifications produced by the marketplace.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

// Emitter accepts notifications. Emit never fails the caller: delivery problems are logged.
type Emitter interface {
	Emit(ctx context.Context, n model.Notification)
}

// Log writes notifications to the application log only.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Emit(_ context.Context, n model.Notification) {
	l.logger.Info("notification",
		slog.String("kind", string(n.Kind)),
		slog.String("order", n.OrderNumber),
		slog.String("role", string(n.RecipientRole)),
		slog.String("message", n.Message),
	)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ErrClosed is returned by Start after Stop.
var ErrClosed = errors.New("emitter closed")

const defaultQueueSize = 256

// Kafka publishes notifications to a topic from a background goroutine.
// The queue is bounded; when it is full the notification is dropped.
type Kafka struct {
	writer messageWriter
	logger *slog.Logger
	queue  chan model.Notification

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
}

// NewKafka builds an emitter writing to topic on brokers.
func NewKafka(brokers []string, topic string, logger *slog.Logger) *Kafka {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafka(w, logger, defaultQueueSize)
}

func newKafka(w messageWriter, logger *slog.Logger, size int) *Kafka {
	return &Kafka{
		writer: w,
		logger: logger,
		queue:  make(chan model.Notification, size),
		done:   make(chan struct{}),
	}
}

func (k *Kafka) Emit(_ context.Context, n model.Notification) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		k.logger.Warn("notification dropped, emitter closed", slog.String("kind", string(n.Kind)))
		return
	}
	select {
	case k.queue <- n:
	default:
		k.logger.Warn("notification dropped, queue full", slog.String("kind", string(n.Kind)))
	}
}

// Start launches the publishing loop.
func (k *Kafka) Start() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return ErrClosed
	}
	if k.started {
		return nil
	}
	k.started = true
	go k.run()
	return nil
}

// Stop drains queued notifications and closes the writer.
func (k *Kafka) Stop(ctx context.Context) error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	started := k.started
	close(k.queue)
	k.mu.Unlock()

	if started {
		select {
		case <-k.done:
		case <-ctx.Done():
			k.logger.Warn("notification queue not drained before shutdown")
		}
	}
	return k.writer.Close()
}

func (k *Kafka) run() {
	defer close(k.done)
	for n := range k.queue {
		k.publish(n)
	}
}

func (k *Kafka) publish(n model.Notification) {
	value, err := json.Marshal(n)
	if err != nil {
		k.logger.Error("failed to encode notification", slog.String("error", err.Error()))
		return
	}

	msg := kafka.Message{
		Key:   []byte(messageKey(n)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	}
	if err := k.writer.WriteMessages(context.Background(), msg); err != nil {
		k.logger.Error("failed to publish notification",
			slog.String("kind", string(n.Kind)),
			slog.String("error", err.Error()),
		)
	}
}

func messageKey(n model.Notification) string {
	switch {
	case n.OrderNumber != "":
		return n.OrderNumber
	case n.RecipientID != nil:
		return "user-" + strconv.FormatInt(*n.RecipientID, 10)
	default:
		return n.RecipientEmail
	}
}

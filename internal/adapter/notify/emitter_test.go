package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/scribemart/internal/config"
	"github.com/polkiloo/scribemart/internal/domain/model"
	testhelpers "github.com/polkiloo/scribemart/internal/test"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestKafkaPublishesQueuedNotifications(t *testing.T) {
	w := &recordingWriter{}
	k := newKafka(w, discard(), 8)
	require.NoError(t, k.Start())

	id := int64(4)
	k.Emit(context.Background(), model.Notification{Kind: model.NotifyOrderCreated, OrderNumber: "SM-1", Message: "created"})
	k.Emit(context.Background(), model.Notification{Kind: model.NotifyWithdrawalApproved, RecipientID: &id, Message: "approved"})

	require.NoError(t, k.Stop(context.Background()))
	assert.True(t, w.closed)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "SM-1", string(w.msgs[0].Key))
	assert.Equal(t, "user-4", string(w.msgs[1].Key))
	assert.Equal(t, "withdrawal.approved", string(w.msgs[1].Headers[0].Value))

	var decoded model.Notification
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, model.NotifyOrderCreated, decoded.Kind)
}

func TestKafkaSwallowsWriteErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	k := newKafka(w, discard(), 1)
	require.NoError(t, k.Start())

	k.Emit(context.Background(), model.Notification{Kind: model.NotifyOrderCancelled})
	require.NoError(t, k.Stop(context.Background()))
	assert.Len(t, w.msgs, 1)
}

func TestKafkaDropsWhenFullOrClosed(t *testing.T) {
	w := &recordingWriter{}
	k := newKafka(w, discard(), 1)

	k.Emit(context.Background(), model.Notification{Kind: model.NotifyOrderCreated})
	k.Emit(context.Background(), model.Notification{Kind: model.NotifyOrderTaken})
	assert.Len(t, k.queue, 1)

	require.NoError(t, k.Stop(context.Background()))
	k.Emit(context.Background(), model.Notification{Kind: model.NotifyOrderCreated})
	assert.ErrorIs(t, k.Start(), ErrClosed)
	assert.Empty(t, w.msgs)
}

func TestNewEmitterSelectsImplementation(t *testing.T) {
	lc := &testhelpers.LifecycleRecorder{}
	e := newEmitter(emitterParams{Lifecycle: lc, Config: &config.Config{}, Logger: discard()})
	assert.IsType(t, &Log{}, e)
	assert.Empty(t, lc.Hooks)

	e = newEmitter(emitterParams{
		Lifecycle: lc,
		Config:    &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "t"},
		Logger:    discard(),
	})
	assert.IsType(t, &Kafka{}, e)
	assert.Len(t, lc.Hooks, 1)
}

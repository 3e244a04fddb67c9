package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/config"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []integration.SyncEvent
	err    error
	panics bool
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, events ...integration.SyncEvent) error {
	if p.panics {
		panic("boom")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestBus_RoutesByType(t *testing.T) {
	bus := NewBus(zap.NewNop())
	all := &recordingPublisher{}
	ordersOnly := &recordingPublisher{}
	bus.Subscribe(all)
	bus.Subscribe(ordersOnly, integration.EventOrdersIngested)

	err := bus.Publish(context.Background(),
		integration.NewSyncEvent(integration.EventProductSynced, "SKU-1", ""),
		integration.NewSyncEvent(integration.EventOrdersIngested, "", "uk"),
	)
	require.NoError(t, err)

	assert.Len(t, all.events, 2)
	require.Len(t, ordersOnly.events, 1)
	assert.Equal(t, integration.EventOrdersIngested, ordersOnly.events[0].Type)
}

func TestBus_IsolatesFailingPublishers(t *testing.T) {
	bus := NewBus(zap.NewNop())
	failing := &recordingPublisher{err: errors.New("broker down")}
	panicking := &recordingPublisher{panics: true}
	healthy := &recordingPublisher{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), integration.NewSyncEvent(integration.EventProductDeleted, "SKU-1", ""))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Contains(t, err.Error(), "panicked")
	assert.Len(t, healthy.events, 1)
}

func TestBus_Close(t *testing.T) {
	bus := NewBus(zap.NewNop())
	p := &recordingPublisher{}
	bus.Subscribe(p)

	require.NoError(t, bus.Close())
	assert.True(t, p.closed)
	assert.NoError(t, bus.Publish(context.Background(), integration.NewSyncEvent(integration.EventProductSynced, "x", "")))
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "shopsync.sync-events", zap.NewNop())

	e := integration.NewSyncEvent(integration.EventProductSynced, "ABC-2425-HOM-X1Y2Z", "")
	e.Results = []shared.SiteResult{shared.SiteOk("com"), shared.SiteOk("uk")}
	sweep := integration.NewSyncEvent(integration.EventOrdersIngested, "", "de")

	require.NoError(t, p.Publish(context.Background(), e, sweep))
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "ABC-2425-HOM-X1Y2Z", string(w.msgs[0].Key))
	assert.Equal(t, "de", string(w.msgs[1].Key))
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, "product.synced", string(w.msgs[0].Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "product.synced", decoded["type"])
	assert.Len(t, decoded["results"], 2)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := newKafkaPublisher(&fakeWriter{err: errors.New("leader not available")}, "t", zap.NewNop())

	err := p.Publish(context.Background(), integration.NewSyncEvent(integration.EventProductSynced, "x", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")

	assert.NoError(t, p.Publish(context.Background()))
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	_, err := NewKafkaPublisher(config.KafkaConfig{Topic: "t"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewKafkaPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, zap.NewNop())
	assert.Error(t, err)

	p, err := NewKafkaPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	e := integration.NewSyncEvent(integration.EventProductSynced, "SKU-1", "")
	e.Results = []shared.SiteResult{shared.SiteOk("com"), shared.SiteErr("uk", errors.New("x"))}
	require.NoError(t, p.Publish(context.Background(), e))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "product.synced", fields["type"])
	assert.Equal(t, int64(1), fields["failed_sites"])
}

package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"chenil/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder collects handled events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []models.MutationEvent
}

func (r *eventRecorder) handle(_ context.Context, event models.MutationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *eventRecorder) first() models.MutationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[0]
}

func TestBusDeliversInProcessWithoutRedis(t *testing.T) {
	rec := &eventRecorder{}
	bus := NewBus(nil, rec.handle)

	bus.PublishMutation(context.Background(), testEvent())

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Rex", rec.first().EntityName)
}

func TestBusRoundTripsThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := &eventRecorder{}
	bus := NewBus(rdb, rec.handle)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	bus.Start(ctx)

	// Give the subscriber a moment to register before publishing.
	require.Eventually(t, func() bool {
		return rdb.PubSubNumSub(ctx, MutationChannel).Val()[MutationChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	bus.PublishMutation(ctx, testEvent())

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	got := rec.first()
	assert.Equal(t, models.EntityDog, got.EntityKind)
	assert.Equal(t, models.AuditStatusPending, got.Status)
	assert.Equal(t, "Rex: Robe: black → brindle", got.Summary)
}

func TestBusContainsHandlerPanic(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	bus := NewBus(nil, func(_ context.Context, _ models.MutationEvent) {
		mu.Lock()
		calls++
		mu.Unlock()
		panic("handler blew up")
	})

	bus.PublishMutation(context.Background(), testEvent())
	bus.PublishMutation(context.Background(), testEvent())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, 2*time.Second, 10*time.Millisecond)
}

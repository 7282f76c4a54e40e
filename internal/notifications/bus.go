// Package notifications carries mutation events from the pipeline to their
// consumers: administrator web-push delivery and the static site rebuild.
package notifications

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"time"

	"chenil/internal/models"
	"chenil/internal/observability"

	"github.com/redis/go-redis/v9"
)

// MutationChannel is the Redis channel mutation events travel on.
const MutationChannel = "chenil:mutations"

// deliveryTimeout bounds one event's fan-out (push plus build hook).
const deliveryTimeout = 30 * time.Second

// Handler consumes one mutation event.
type Handler func(ctx context.Context, event models.MutationEvent)

// Bus decouples the mutation pipeline from event delivery. With Redis the
// event goes through pub/sub and a worker started by Start consumes it; any
// server instance can then carry the fan-out. Without Redis the handler
// runs in a detached in-process task, so a failing or slow delivery still
// never touches the caller.
type Bus struct {
	rdb     *redis.Client
	handler Handler
}

// NewBus returns a Bus delivering events to handler.
func NewBus(rdb *redis.Client, handler Handler) *Bus {
	return &Bus{rdb: rdb, handler: handler}
}

// PublishMutation hands one event to the fan-out. It never blocks on
// delivery and never reports delivery errors; a dropped notification must
// not fail the mutation that produced it.
func (b *Bus) PublishMutation(ctx context.Context, event models.MutationEvent) {
	if b.rdb == nil {
		b.dispatch(event)
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "Mutation event marshal failed", "error", err)
		return
	}
	if err := b.rdb.Publish(ctx, MutationChannel, payload).Err(); err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "Mutation event publish failed, delivering in-process", "error", err)
		b.dispatch(event)
	}
}

// Start subscribes to the mutation channel and consumes events until ctx is
// cancelled. A no-op without Redis; PublishMutation already delivered
// in-process.
func (b *Bus) Start(ctx context.Context) {
	if b.rdb == nil {
		return
	}

	sub := b.rdb.Subscribe(ctx, MutationChannel)
	// Confirm the subscription before returning so no event published after
	// Start is missed.
	if _, err := sub.Receive(ctx); err != nil {
		observability.GlobalLogger.Error("Mutation channel subscribe failed", "error", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event models.MutationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					observability.GlobalLogger.Error("Mutation event decode failed", "error", err)
					continue
				}
				b.run(ctx, event)
			}
		}
	}()
}

// dispatch runs the handler in a detached task with its own deadline.
func (b *Bus) dispatch(event models.MutationEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		b.run(ctx, event)
	}()
}

// run invokes the handler, containing panics so one bad event cannot take
// down the subscriber loop.
func (b *Bus) run(ctx context.Context, event models.MutationEvent) {
	if b.handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			observability.GlobalLogger.Error("PANIC in mutation event handler",
				"entity_kind", event.EntityKind, "entity_id", event.EntityID, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	b.handler(ctx, event)
}

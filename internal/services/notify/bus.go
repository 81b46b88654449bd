package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jeffrey-enterN/entern-match/internal/realtime"
)

// Deliverer hands a frame to the live sessions of one user in this process.
type Deliverer interface {
	Deliver(userID uuid.UUID, frame []byte) int
}

// Relay forwards frames to sibling serving processes.
type Relay interface {
	Publish(ctx context.Context, recipients []uuid.UUID, frame []byte) error
}

type Event struct {
	Type       string
	Recipients []uuid.UUID
	Payload    any
}

type Option func(*Bus)

func WithRelay(relay Relay) Option {
	return func(b *Bus) { b.relay = relay }
}

func WithLogger(log *zap.Logger) Option {
	return func(b *Bus) {
		if log != nil {
			b.log = log
		}
	}
}

// Bus turns domain events into best-effort deliveries to live connections.
// Nothing is queued for offline recipients.
type Bus struct {
	local Deliverer
	relay Relay
	log   *zap.Logger
	now   func() time.Time
}

func New(local Deliverer, opts ...Option) *Bus {
	b := &Bus{
		local: local,
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish returns the number of local sessions that accepted the frame.
// Failures are logged and never reach the caller.
func (b *Bus) Publish(ctx context.Context, event Event) int {
	if b == nil {
		return 0
	}

	recipients := dedupe(event.Recipients)
	if len(recipients) == 0 {
		return 0
	}

	env, err := realtime.NewEnvelope(event.Type, event.Payload, b.now())
	if err != nil {
		b.log.Warn("drop notification", zap.String("type", event.Type), zap.Error(err))
		return 0
	}
	frame, err := env.Encode()
	if err != nil {
		b.log.Warn("drop notification", zap.String("type", event.Type), zap.Error(err))
		return 0
	}

	delivered := b.deliverLocal(recipients, frame)

	if b.relay != nil {
		if err := b.relay.Publish(ctx, recipients, frame); err != nil {
			b.log.Warn("notification relay failed", zap.String("type", event.Type), zap.Error(err))
		}
	}

	return delivered
}

// DeliverRelayed is the sink for frames arriving from sibling processes.
func (b *Bus) DeliverRelayed(recipients []uuid.UUID, frame []byte) {
	b.deliverLocal(dedupe(recipients), frame)
}

func (b *Bus) deliverLocal(recipients []uuid.UUID, frame []byte) int {
	if b.local == nil {
		return 0
	}
	delivered := 0
	for _, userID := range recipients {
		delivered += b.local.Deliver(userID, frame)
	}
	return delivered
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

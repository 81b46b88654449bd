package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultRelayChannel = "realtime:notifications"

// RelayHandler receives frames published by other serving processes.
type RelayHandler func(recipients []uuid.UUID, frame []byte)

// NotifyRelay fans notification frames out to every serving process through a
// single pub/sub channel. Messages carry the publishing instance id so that a
// process never re-delivers its own frames.
type NotifyRelay struct {
	client     *goredis.Client
	channel    string
	instanceID string
	log        *zap.Logger
}

type relayMessage struct {
	Origin     string          `json:"origin"`
	Recipients []uuid.UUID     `json:"recipients"`
	Frame      json.RawMessage `json:"frame"`
}

func NewNotifyRelay(client *goredis.Client, channel string, log *zap.Logger) *NotifyRelay {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultRelayChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NotifyRelay{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		log:        log,
	}
}

func (r *NotifyRelay) InstanceID() string {
	return r.instanceID
}

func (r *NotifyRelay) Publish(ctx context.Context, recipients []uuid.UUID, frame []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if len(recipients) == 0 || len(frame) == 0 {
		return nil
	}
	if !json.Valid(frame) {
		return fmt.Errorf("relay frame is not valid json")
	}

	body, err := json.Marshal(relayMessage{
		Origin:     r.instanceID,
		Recipients: recipients,
		Frame:      frame,
	})
	if err != nil {
		return fmt.Errorf("encode relay message: %w", err)
	}

	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		return fmt.Errorf("publish relay message: %w", err)
	}
	return nil
}

// RelaySubscription is an acknowledged subscription to the relay channel.
type RelaySubscription struct {
	relay  *NotifyRelay
	pubsub *goredis.PubSub
}

// Subscribe returns once Redis has confirmed the subscription, so frames
// published after it returns are guaranteed to be observed.
func (r *NotifyRelay) Subscribe(ctx context.Context) (*RelaySubscription, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe relay channel: %w", err)
	}

	return &RelaySubscription{relay: r, pubsub: pubsub}, nil
}

// Forward blocks until ctx is cancelled or the subscription is closed, handing
// every foreign frame to handle.
func (s *RelaySubscription) Forward(ctx context.Context, handle RelayHandler) error {
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.dispatch(msg.Payload, handle)
		}
	}
}

func (s *RelaySubscription) Close() error {
	err := s.pubsub.Close()
	if err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}

func (s *RelaySubscription) dispatch(payload string, handle RelayHandler) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		s.relay.log.Warn("drop malformed relay message", zap.Error(err))
		return
	}
	if msg.Origin == s.relay.instanceID {
		return
	}
	if len(msg.Recipients) == 0 || len(msg.Frame) == 0 {
		return
	}
	handle(msg.Recipients, msg.Frame)
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type relayDelivery struct {
	recipients []uuid.UUID
	frame      string
}

func TestNotifyRelayDeliversForeignFramesOnly(t *testing.T) {
	_, client := newMiniRedisClient(t)

	local := NewNotifyRelay(client, "test:relay", nil)
	remote := NewNotifyRelay(client, "test:relay", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := local.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer func() { _ = sub.Close() }()

	got := make(chan relayDelivery, 4)
	go func() {
		_ = sub.Forward(ctx, func(recipients []uuid.UUID, frame []byte) {
			got <- relayDelivery{recipients: recipients, frame: string(frame)}
		})
	}()

	userID := uuid.New()
	if err := local.Publish(ctx, []uuid.UUID{userID}, []byte(`{"type":"own"}`)); err != nil {
		t.Fatalf("publish own: %v", err)
	}
	if err := remote.Publish(ctx, []uuid.UUID{userID}, []byte(`{"type":"new_match"}`)); err != nil {
		t.Fatalf("publish remote: %v", err)
	}

	select {
	case d := <-got:
		if d.frame != `{"type":"new_match"}` {
			t.Fatalf("unexpected frame: %s", d.frame)
		}
		if len(d.recipients) != 1 || d.recipients[0] != userID {
			t.Fatalf("unexpected recipients: %v", d.recipients)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for relayed frame")
	}

	select {
	case d := <-got:
		t.Fatalf("unexpected extra delivery: %s", d.frame)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifyRelayPublishRejectsInvalidFrame(t *testing.T) {
	_, client := newMiniRedisClient(t)
	relay := NewNotifyRelay(client, "", nil)

	err := relay.Publish(context.Background(), []uuid.UUID{uuid.New()}, []byte("not-json"))
	if err == nil {
		t.Fatalf("expected error for invalid frame")
	}
}

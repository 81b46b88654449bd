package jobinterest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
	"github.com/Jeffrey-enterN/entern-match/internal/realtime"
	pgrepo "github.com/Jeffrey-enterN/entern-match/internal/repo/postgres"
	"github.com/Jeffrey-enterN/entern-match/internal/services/notify"
)

type interestKey struct {
	jobseeker uuid.UUID
	posting   uuid.UUID
}

type interestStoreStub struct {
	mu   sync.Mutex
	rows map[interestKey]model.JobInterest
	err  error
}

func newInterestStoreStub() *interestStoreStub {
	return &interestStoreStub{rows: map[interestKey]model.JobInterest{}}
}

func (s *interestStoreStub) Upsert(_ context.Context, jobseekerID, postingID uuid.UUID, interested bool) (model.JobInterest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.JobInterest{}, false, s.err
	}

	now := time.Now().UTC()
	key := interestKey{jobseekerID, postingID}
	rec, ok := s.rows[key]
	if ok && rec.Interested == interested {
		return rec, false, nil
	}
	if !ok {
		rec = model.JobInterest{JobseekerID: jobseekerID, JobPostingID: postingID, CreatedAt: now}
	}
	rec.Interested = interested
	rec.UpdatedAt = now
	s.rows[key] = rec
	return rec, true, nil
}

func (s *interestStoreStub) ListDecidedPostings(_ context.Context, jobseekerID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, 0)
	for key := range s.rows {
		if key.jobseeker == jobseekerID {
			out = append(out, key.posting)
		}
	}
	return out, nil
}

type ownersStub map[uuid.UUID]uuid.UUID

func (o ownersStub) PostingOwner(_ context.Context, postingID uuid.UUID) (uuid.UUID, error) {
	owner, ok := o[postingID]
	if !ok {
		return uuid.Nil, pgrepo.ErrPostingNotFound
	}
	return owner, nil
}

type notifierStub struct {
	events []notify.Event
}

func (n *notifierStub) Publish(_ context.Context, event notify.Event) int {
	n.events = append(n.events, event)
	return 1
}

func TestRecordInterestOverwritesDecision(t *testing.T) {
	store := newInterestStoreStub()
	tracker := NewTracker(Dependencies{Store: store})
	ctx := context.Background()
	jobseekerID, postingID := uuid.New(), uuid.New()

	first, err := tracker.RecordInterest(ctx, jobseekerID, postingID, true)
	if err != nil {
		t.Fatalf("record #1: %v", err)
	}
	second, err := tracker.RecordInterest(ctx, jobseekerID, postingID, false)
	if err != nil {
		t.Fatalf("record #2: %v", err)
	}

	if len(store.rows) != 1 {
		t.Fatalf("unexpected rows: got %d want 1", len(store.rows))
	}
	if second.Interested || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected in-place overwrite, got %+v", second)
	}
}

func TestRecordInterestValidation(t *testing.T) {
	tracker := NewTracker(Dependencies{Store: newInterestStoreStub()})
	if _, err := tracker.RecordInterest(context.Background(), uuid.Nil, uuid.New(), true); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRecordInterestNotifiesPostingOwner(t *testing.T) {
	postingID, ownerID := uuid.New(), uuid.New()
	notifier := &notifierStub{}
	tracker := NewTracker(Dependencies{
		Store:    newInterestStoreStub(),
		Postings: ownersStub{postingID: ownerID},
		Notifier: notifier,
	})
	ctx := context.Background()

	if _, err := tracker.RecordInterest(ctx, uuid.New(), postingID, true); err != nil {
		t.Fatalf("record positive: %v", err)
	}
	if _, err := tracker.RecordInterest(ctx, uuid.New(), postingID, false); err != nil {
		t.Fatalf("record negative: %v", err)
	}
	if _, err := tracker.RecordInterest(ctx, uuid.New(), uuid.New(), true); err != nil {
		t.Fatalf("unknown posting must not fail the record: %v", err)
	}

	if len(notifier.events) != 1 {
		t.Fatalf("unexpected notifications: got %d want 1", len(notifier.events))
	}
	event := notifier.events[0]
	if event.Type != realtime.TypeJobInterest || event.Recipients[0] != ownerID {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestRecordInterestNotifiesOnlyOnTransition(t *testing.T) {
	postingID, ownerID := uuid.New(), uuid.New()
	notifier := &notifierStub{}
	tracker := NewTracker(Dependencies{
		Store:    newInterestStoreStub(),
		Postings: ownersStub{postingID: ownerID},
		Notifier: notifier,
	})
	ctx := context.Background()
	jobseekerID := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := tracker.RecordInterest(ctx, jobseekerID, postingID, true); err != nil {
			t.Fatalf("record #%d: %v", i+1, err)
		}
	}
	if len(notifier.events) != 1 {
		t.Fatalf("identical resubmissions must notify once: got %d events", len(notifier.events))
	}

	if _, err := tracker.RecordInterest(ctx, jobseekerID, postingID, false); err != nil {
		t.Fatalf("record negative: %v", err)
	}
	if _, err := tracker.RecordInterest(ctx, jobseekerID, postingID, true); err != nil {
		t.Fatalf("record positive again: %v", err)
	}
	if len(notifier.events) != 2 {
		t.Fatalf("flip back to interested must notify again: got %d events", len(notifier.events))
	}
}

func TestExclusionsListsDecidedPostings(t *testing.T) {
	tracker := NewTracker(Dependencies{Store: newInterestStoreStub()})
	ctx := context.Background()
	jobseekerID := uuid.New()

	for _, interested := range []bool{true, false} {
		if _, err := tracker.RecordInterest(ctx, jobseekerID, uuid.New(), interested); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if _, err := tracker.RecordInterest(ctx, uuid.New(), uuid.New(), true); err != nil {
		t.Fatalf("record other: %v", err)
	}

	ids, err := tracker.Exclusions(ctx, jobseekerID)
	if err != nil {
		t.Fatalf("exclusions: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("unexpected exclusions: got %d want 2", len(ids))
	}
}

func TestRecordInterestStoreFailure(t *testing.T) {
	store := newInterestStoreStub()
	store.err = errors.New("db down")
	tracker := NewTracker(Dependencies{Store: store})

	if _, err := tracker.RecordInterest(context.Background(), uuid.New(), uuid.New(), true); err == nil {
		t.Fatalf("expected store error")
	}
}

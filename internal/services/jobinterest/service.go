package jobinterest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
	"github.com/Jeffrey-enterN/entern-match/internal/realtime"
	"github.com/Jeffrey-enterN/entern-match/internal/services/notify"
)

var ErrValidation = errors.New("validation error")

type InterestStore interface {
	// Upsert reports changed=false when the stored decision already equals
	// interested.
	Upsert(ctx context.Context, jobseekerID, postingID uuid.UUID, interested bool) (model.JobInterest, bool, error)
	ListDecidedPostings(ctx context.Context, jobseekerID uuid.UUID) ([]uuid.UUID, error)
}

type PostingOwners interface {
	PostingOwner(ctx context.Context, postingID uuid.UUID) (uuid.UUID, error)
}

type Notifier interface {
	Publish(ctx context.Context, event notify.Event) int
}

type Dependencies struct {
	Store    InterestStore
	Postings PostingOwners
	Notifier Notifier
	Logger   *zap.Logger
}

// Tracker records a jobseeker's decision on individual job postings. There is
// no reciprocity: decisions only filter the jobseeker's job feed.
type Tracker struct {
	store    InterestStore
	postings PostingOwners
	notifier Notifier
	log      *zap.Logger
}

func NewTracker(deps Dependencies) *Tracker {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		store:    deps.Store,
		postings: deps.Postings,
		notifier: deps.Notifier,
		log:      log,
	}
}

func (t *Tracker) RecordInterest(ctx context.Context, jobseekerID, postingID uuid.UUID, interested bool) (model.JobInterest, error) {
	if jobseekerID == uuid.Nil || postingID == uuid.Nil {
		return model.JobInterest{}, ErrValidation
	}
	if t.store == nil {
		return model.JobInterest{}, fmt.Errorf("job interest store is nil")
	}

	rec, changed, err := t.store.Upsert(ctx, jobseekerID, postingID, interested)
	if err != nil {
		return model.JobInterest{}, fmt.Errorf("record job interest: %w", err)
	}

	// Only the transition to interested notifies, so retries stay silent.
	if interested && changed {
		t.notifyOwner(ctx, rec)
	}
	return rec, nil
}

// Exclusions lists postings the jobseeker has already decided on.
func (t *Tracker) Exclusions(ctx context.Context, jobseekerID uuid.UUID) ([]uuid.UUID, error) {
	if jobseekerID == uuid.Nil {
		return nil, ErrValidation
	}
	if t.store == nil {
		return nil, fmt.Errorf("job interest store is nil")
	}
	return t.store.ListDecidedPostings(ctx, jobseekerID)
}

func (t *Tracker) notifyOwner(ctx context.Context, rec model.JobInterest) {
	if t.postings == nil || t.notifier == nil {
		return
	}

	owner, err := t.postings.PostingOwner(ctx, rec.JobPostingID)
	if err != nil {
		t.log.Debug("skip job interest notification",
			zap.String("job_posting_id", rec.JobPostingID.String()),
			zap.Error(err),
		)
		return
	}

	t.notifier.Publish(ctx, notify.Event{
		Type:       realtime.TypeJobInterest,
		Recipients: []uuid.UUID{owner},
		Payload: map[string]any{
			"jobseeker_id":   rec.JobseekerID,
			"job_posting_id": rec.JobPostingID,
		},
	})
}

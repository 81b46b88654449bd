package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
	"github.com/Jeffrey-enterN/entern-match/internal/realtime"
	pgrepo "github.com/Jeffrey-enterN/entern-match/internal/repo/postgres"
	"github.com/Jeffrey-enterN/entern-match/internal/services/notify"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrRetryable          = errors.New("match evaluation failed, retry the request")
	ErrMatchNotFound      = errors.New("match not found")
	ErrForbidden          = errors.New("match action not allowed")
	ErrSchedulingDisabled = errors.New("interview scheduling is not enabled")
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type SwipeLookup interface {
	GetReciprocal(ctx context.Context, tx pgx.Tx, actorID uuid.UUID, role enums.Role, targetID uuid.UUID) (model.Swipe, error)
}

type MatchStore interface {
	InsertIfAbsent(ctx context.Context, tx pgx.Tx, jobseekerID, employerID uuid.UUID) (model.Match, bool, error)
	GetByID(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.Match, error)
	ListForUser(ctx context.Context, userID uuid.UUID, role enums.Role, limit int) ([]model.Match, error)
	AddSharedJob(ctx context.Context, tx pgx.Tx, matchID, postingID uuid.UUID) (model.Match, error)
	SetSchedulingEnabled(ctx context.Context, tx pgx.Tx, matchID uuid.UUID, enabled bool) (model.Match, error)
	SetInterview(ctx context.Context, tx pgx.Tx, matchID uuid.UUID, at time.Time, status enums.InterviewStatus) (model.Match, error)
}

type Notifier interface {
	Publish(ctx context.Context, event notify.Event) int
}

// EventSink receives committed match facts for downstream consumers.
type EventSink interface {
	MatchCreated(ctx context.Context, match model.Match) error
}

// Outcome reports the match for the pair, if any. Created is true only for the
// evaluation that inserted the row.
type Outcome struct {
	Match   *model.Match
	Created bool
}

type ArbiterDependencies struct {
	Tx       Transactor
	Swipes   SwipeLookup
	Matches  MatchStore
	Notifier Notifier
	Events   EventSink
	Logger   *zap.Logger
}

type Arbiter struct {
	tx       Transactor
	swipes   SwipeLookup
	matches  MatchStore
	notifier Notifier
	events   EventSink
	log      *zap.Logger
}

func NewArbiter(deps ArbiterDependencies) *Arbiter {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Arbiter{
		tx:       deps.Tx,
		swipes:   deps.Swipes,
		matches:  deps.Matches,
		notifier: deps.Notifier,
		events:   deps.Events,
		log:      log,
	}
}

// Evaluate decides whether swipe completes a mutual pair and creates the match
// if so. The unique (jobseeker_id, employer_id) constraint settles concurrent
// evaluations of the same pair; only the inserting caller notifies.
func (a *Arbiter) Evaluate(ctx context.Context, swipe model.Swipe) (Outcome, error) {
	if !swipe.Interested {
		return Outcome{}, nil
	}
	if swipe.ActorID == uuid.Nil || swipe.TargetID == uuid.Nil || !swipe.ActorRole.Valid() {
		return Outcome{}, ErrValidation
	}
	if a.tx == nil || a.swipes == nil || a.matches == nil {
		return Outcome{}, fmt.Errorf("arbiter is not configured")
	}

	var outcome Outcome
	err := a.tx.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		outcome = Outcome{}

		reciprocal, err := a.swipes.GetReciprocal(ctx, tx, swipe.ActorID, swipe.ActorRole, swipe.TargetID)
		if errors.Is(err, pgrepo.ErrSwipeNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get reciprocal swipe: %w", err)
		}
		if !reciprocal.Interested {
			return nil
		}

		jobseekerID, employerID := swipe.Pair()
		match, created, err := a.matches.InsertIfAbsent(ctx, tx, jobseekerID, employerID)
		if err != nil {
			return err
		}
		outcome = Outcome{Match: &match, Created: created}
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrRetryable, err)
	}

	if outcome.Created {
		a.log.Info("match created",
			zap.String("match_id", outcome.Match.ID.String()),
			zap.String("jobseeker_id", outcome.Match.JobseekerID.String()),
			zap.String("employer_id", outcome.Match.EmployerID.String()),
		)
		a.announce(ctx, *outcome.Match)
	}

	return outcome, nil
}

func (a *Arbiter) announce(ctx context.Context, match model.Match) {
	if a.notifier != nil {
		a.notifier.Publish(ctx, notify.Event{
			Type:       realtime.TypeNewMatch,
			Recipients: match.Participants(),
			Payload:    newMatchPayload(match),
		})
	}
	if a.events != nil {
		if err := a.events.MatchCreated(ctx, match); err != nil {
			a.log.Warn("publish match created event failed",
				zap.String("match_id", match.ID.String()),
				zap.Error(err),
			)
		}
	}
}

type matchPayload struct {
	MatchID           uuid.UUID `json:"match_id"`
	JobseekerID       uuid.UUID `json:"jobseeker_id"`
	EmployerID        uuid.UUID `json:"employer_id"`
	MessagingEnabled  bool      `json:"messaging_enabled"`
	SchedulingEnabled bool      `json:"scheduling_enabled"`
	CreatedAt         time.Time `json:"created_at"`
}

func newMatchPayload(match model.Match) matchPayload {
	return matchPayload{
		MatchID:           match.ID,
		JobseekerID:       match.JobseekerID,
		EmployerID:        match.EmployerID,
		MessagingEnabled:  match.MessagingEnabled,
		SchedulingEnabled: match.SchedulingEnabled,
		CreatedAt:         match.CreatedAt,
	}
}

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

const defaultListLimit = 100

// PostingOwners resolves who published a job posting.
type PostingOwners interface {
	PostingOwner(ctx context.Context, postingID uuid.UUID) (uuid.UUID, error)
}

type Dependencies struct {
	Tx       Transactor
	Matches  MatchStore
	Postings PostingOwners
	Notifier Notifier
	Logger   *zap.Logger
}

// Service covers the post-match operations: listing, job sharing and
// interview scheduling.
type Service struct {
	tx       Transactor
	matches  MatchStore
	postings PostingOwners
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		tx:       deps.Tx,
		matches:  deps.Matches,
		postings: deps.Postings,
		notifier: deps.Notifier,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, role enums.Role, limit int) ([]model.Match, error) {
	if userID == uuid.Nil || !role.Valid() {
		return nil, ErrValidation
	}
	if s.matches == nil {
		return nil, fmt.Errorf("match store is nil")
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	return s.matches.ListForUser(ctx, userID, role, limit)
}

// ShareJob adds postingID to the match's shared jobs. Sharing the same posting
// twice leaves the set unchanged and notifies only once.
func (s *Service) ShareJob(ctx context.Context, employerID, matchID, postingID uuid.UUID) (model.Match, error) {
	if employerID == uuid.Nil || matchID == uuid.Nil || postingID == uuid.Nil {
		return model.Match{}, ErrValidation
	}
	if s.postings != nil {
		owner, err := s.postings.PostingOwner(ctx, postingID)
		if errors.Is(err, pgrepo.ErrPostingNotFound) {
			return model.Match{}, ErrValidation
		}
		if err != nil {
			return model.Match{}, fmt.Errorf("resolve posting owner: %w", err)
		}
		if owner != employerID {
			return model.Match{}, ErrForbidden
		}
	}

	var (
		updated model.Match
		added   bool
	)
	err := s.withMatch(ctx, matchID, func(ctx context.Context, tx pgx.Tx, match model.Match) error {
		if match.EmployerID != employerID {
			return ErrForbidden
		}
		added = !match.HasSharedJob(postingID)
		if !added {
			updated = match
			return nil
		}

		var err error
		updated, err = s.matches.AddSharedJob(ctx, tx, matchID, postingID)
		return err
	})
	if err != nil {
		return model.Match{}, err
	}

	if added {
		s.publish(ctx, realtime.TypeJobShared, []uuid.UUID{updated.JobseekerID}, map[string]any{
			"match_id":       updated.ID,
			"job_posting_id": postingID,
			"employer_id":    updated.EmployerID,
		})
	}
	return updated, nil
}

func (s *Service) EnableScheduling(ctx context.Context, employerID, matchID uuid.UUID) (model.Match, error) {
	if employerID == uuid.Nil || matchID == uuid.Nil {
		return model.Match{}, ErrValidation
	}

	var updated model.Match
	err := s.withMatch(ctx, matchID, func(ctx context.Context, tx pgx.Tx, match model.Match) error {
		if match.EmployerID != employerID {
			return ErrForbidden
		}
		if match.SchedulingEnabled {
			updated = match
			return nil
		}

		var err error
		updated, err = s.matches.SetSchedulingEnabled(ctx, tx, matchID, true)
		return err
	})
	if err != nil {
		return model.Match{}, err
	}
	return updated, nil
}

// ScheduleInterview books an interview on a match whose scheduling is enabled.
// Either participant may book; both are notified.
func (s *Service) ScheduleInterview(ctx context.Context, actorID, matchID uuid.UUID, at time.Time) (model.Match, error) {
	if actorID == uuid.Nil || matchID == uuid.Nil || at.IsZero() || !at.After(s.now()) {
		return model.Match{}, ErrValidation
	}

	var updated model.Match
	err := s.withMatch(ctx, matchID, func(ctx context.Context, tx pgx.Tx, match model.Match) error {
		if !match.HasParticipant(actorID) {
			return ErrForbidden
		}
		if !match.SchedulingEnabled {
			return ErrSchedulingDisabled
		}

		var err error
		updated, err = s.matches.SetInterview(ctx, tx, matchID, at, enums.InterviewStatusScheduled)
		return err
	})
	if err != nil {
		return model.Match{}, err
	}

	s.publish(ctx, realtime.TypeInterviewScheduled, updated.Participants(), map[string]any{
		"match_id":               updated.ID,
		"interview_scheduled_at": at.UTC(),
		"interview_status":       enums.InterviewStatusScheduled,
		"scheduled_by":           actorID,
	})
	return updated, nil
}

func (s *Service) withMatch(ctx context.Context, matchID uuid.UUID, fn func(context.Context, pgx.Tx, model.Match) error) error {
	if s.tx == nil || s.matches == nil {
		return fmt.Errorf("match service is not configured")
	}

	return s.tx.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		match, err := s.matches.GetByID(ctx, tx, matchID)
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		if err != nil {
			return err
		}
		return fn(ctx, tx, match)
	})
}

func (s *Service) publish(ctx context.Context, typ string, recipients []uuid.UUID, payload any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, notify.Event{Type: typ, Recipients: recipients, Payload: payload})
}

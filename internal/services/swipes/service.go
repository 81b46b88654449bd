package swipes

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
	pgrepo "github.com/Jeffrey-enterN/entern-match/internal/repo/postgres"
	authsvc "github.com/Jeffrey-enterN/entern-match/internal/services/auth"
	matchsvc "github.com/Jeffrey-enterN/entern-match/internal/services/matches"
)

const defaultNegativeHideFor = 24 * time.Hour

var (
	ErrValidation    = errors.New("validation error")
	ErrSelfSwipe     = errors.New("cannot swipe on yourself")
	ErrSwipeNotFound = errors.New("swipe not found")
)

type SwipeStore interface {
	Upsert(ctx context.Context, tx pgx.Tx, swipe model.Swipe) (model.Swipe, error)
	GetReciprocal(ctx context.Context, tx pgx.Tx, actorID uuid.UUID, role enums.Role, targetID uuid.UUID) (model.Swipe, error)
	DeleteNegativeByActor(ctx context.Context, actorID uuid.UUID, role enums.Role) (int64, error)
	ListExcludedTargets(ctx context.Context, actorID uuid.UUID, role enums.Role, now time.Time) ([]uuid.UUID, error)
}

type Arbiter interface {
	Evaluate(ctx context.Context, swipe model.Swipe) (matchsvc.Outcome, error)
}

type RateLimiter interface {
	AllowSwipe(ctx context.Context, userID uuid.UUID) error
}

type Config struct {
	// NegativeHideFor is applied to negative swipes submitted without an
	// explicit hide_until. Zero keeps them hidden indefinitely.
	NegativeHideFor time.Duration
}

func DefaultConfig() Config {
	return Config{NegativeHideFor: defaultNegativeHideFor}
}

type Dependencies struct {
	Store   SwipeStore
	Arbiter Arbiter
	Limiter RateLimiter
	Logger  *zap.Logger
}

type Service struct {
	store   SwipeStore
	arbiter Arbiter
	limiter RateLimiter
	cfg     Config
	log     *zap.Logger
	now     func() time.Time
}

type SubmitResult struct {
	Swipe        model.Swipe
	Match        *model.Match
	MatchCreated bool
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.NegativeHideFor < 0 {
		cfg.NegativeHideFor = 0
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store:   deps.Store,
		arbiter: deps.Arbiter,
		limiter: deps.Limiter,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// RecordSwipe stores the actor's latest decision for the target. Repeating the
// call overwrites the previous decision.
func (s *Service) RecordSwipe(ctx context.Context, actorID uuid.UUID, role enums.Role, targetID uuid.UUID, interested bool, hideUntil *time.Time) (model.Swipe, error) {
	if actorID == uuid.Nil || targetID == uuid.Nil || !role.Valid() {
		return model.Swipe{}, ErrValidation
	}
	if actorID == targetID {
		return model.Swipe{}, ErrSelfSwipe
	}
	if s.store == nil {
		return model.Swipe{}, fmt.Errorf("swipe store is nil")
	}

	swipe := model.Swipe{
		ActorID:    actorID,
		ActorRole:  role,
		TargetID:   targetID,
		Interested: interested,
		HideUntil:  s.resolveHideUntil(interested, hideUntil),
	}

	saved, err := s.store.Upsert(ctx, nil, swipe)
	if err != nil {
		return model.Swipe{}, fmt.Errorf("record swipe: %w", err)
	}
	return saved, nil
}

func (s *Service) GetReciprocal(ctx context.Context, actorID uuid.UUID, role enums.Role, targetID uuid.UUID) (model.Swipe, error) {
	if actorID == uuid.Nil || targetID == uuid.Nil || !role.Valid() {
		return model.Swipe{}, ErrValidation
	}
	if s.store == nil {
		return model.Swipe{}, fmt.Errorf("swipe store is nil")
	}

	swipe, err := s.store.GetReciprocal(ctx, nil, actorID, role, targetID)
	if errors.Is(err, pgrepo.ErrSwipeNotFound) {
		return model.Swipe{}, ErrSwipeNotFound
	}
	if err != nil {
		return model.Swipe{}, err
	}
	return swipe, nil
}

// ResetNegativeSwipes drops the actor's negative decisions except those on a
// pair that already has a match.
func (s *Service) ResetNegativeSwipes(ctx context.Context, actorID uuid.UUID, role enums.Role) (int64, error) {
	if actorID == uuid.Nil || !role.Valid() {
		return 0, ErrValidation
	}
	if s.store == nil {
		return 0, fmt.Errorf("swipe store is nil")
	}

	removed, err := s.store.DeleteNegativeByActor(ctx, actorID, role)
	if err != nil {
		return 0, fmt.Errorf("reset negative swipes: %w", err)
	}
	s.log.Info("negative swipes reset",
		zap.String("actor_id", actorID.String()),
		zap.String("role", string(role)),
		zap.Int64("removed", removed),
	)
	return removed, nil
}

// Exclusions lists targets the actor's feed should skip right now.
func (s *Service) Exclusions(ctx context.Context, actorID uuid.UUID, role enums.Role) ([]uuid.UUID, error) {
	if actorID == uuid.Nil || !role.Valid() {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("swipe store is nil")
	}

	return s.store.ListExcludedTargets(ctx, actorID, role, s.now().UTC())
}

// Submit is the request-level flow: throttle, record, then arbitrate. The swipe
// is committed before arbitration so a concurrent reciprocal evaluation always
// observes it; an arbitration failure leaves the swipe in place and the request
// can be retried as is.
func (s *Service) Submit(ctx context.Context, identity authsvc.Identity, targetID uuid.UUID, interested bool, hideUntil *time.Time) (SubmitResult, error) {
	if identity.UserID == uuid.Nil || !identity.Role.Valid() {
		return SubmitResult{}, ErrValidation
	}
	if s.limiter != nil {
		if err := s.limiter.AllowSwipe(ctx, identity.UserID); err != nil {
			return SubmitResult{}, err
		}
	}

	swipe, err := s.RecordSwipe(ctx, identity.UserID, identity.Role, targetID, interested, hideUntil)
	if err != nil {
		return SubmitResult{}, err
	}

	result := SubmitResult{Swipe: swipe}
	if s.arbiter == nil {
		return result, nil
	}

	outcome, err := s.arbiter.Evaluate(ctx, swipe)
	if err != nil {
		s.log.Warn("match evaluation failed",
			zap.String("actor_id", identity.UserID.String()),
			zap.String("target_id", targetID.String()),
			zap.Error(err),
		)
		return result, err
	}

	result.Match = outcome.Match
	result.MatchCreated = outcome.Created
	return result, nil
}

func (s *Service) resolveHideUntil(interested bool, explicit *time.Time) *time.Time {
	if interested {
		return nil
	}
	if explicit != nil {
		at := explicit.UTC()
		return &at
	}
	if s.cfg.NegativeHideFor <= 0 {
		return nil
	}
	at := s.now().UTC().Add(s.cfg.NegativeHideFor)
	return &at
}

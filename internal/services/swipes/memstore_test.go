package swipes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
	pgrepo "github.com/Jeffrey-enterN/entern-match/internal/repo/postgres"
)

type swipeKey struct {
	jobseeker uuid.UUID
	employer  uuid.UUID
	swipedBy  enums.Role
}

type pairKey struct {
	jobseeker uuid.UUID
	employer  uuid.UUID
}

// memStore mirrors the swipes and matches tables with their unique keys.
type memStore struct {
	mu      sync.Mutex
	swipes  map[swipeKey]model.Swipe
	matches map[pairKey]model.Match
	upserts int
}

func newMemStore() *memStore {
	return &memStore{swipes: map[swipeKey]model.Swipe{}, matches: map[pairKey]model.Match{}}
}

func keyOf(swipe model.Swipe) swipeKey {
	jobseekerID, employerID := swipe.Pair()
	return swipeKey{jobseekerID, employerID, swipe.ActorRole}
}

func (m *memStore) Upsert(_ context.Context, _ pgx.Tx, swipe model.Swipe) (model.Swipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++

	now := time.Now().UTC()
	key := keyOf(swipe)
	if existing, ok := m.swipes[key]; ok {
		swipe.CreatedAt = existing.CreatedAt
	} else {
		swipe.CreatedAt = now
	}
	swipe.UpdatedAt = now
	m.swipes[key] = swipe
	return swipe, nil
}

func (m *memStore) GetReciprocal(_ context.Context, _ pgx.Tx, actorID uuid.UUID, role enums.Role, targetID uuid.UUID) (model.Swipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	probe := model.Swipe{ActorID: targetID, ActorRole: role.Opposite(), TargetID: actorID}
	swipe, ok := m.swipes[keyOf(probe)]
	if !ok {
		return model.Swipe{}, pgrepo.ErrSwipeNotFound
	}
	return swipe, nil
}

func (m *memStore) DeleteNegativeByActor(_ context.Context, actorID uuid.UUID, role enums.Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for key, swipe := range m.swipes {
		if swipe.ActorID != actorID || swipe.ActorRole != role || swipe.Interested {
			continue
		}
		if _, matched := m.matches[pairKey{key.jobseeker, key.employer}]; matched {
			continue
		}
		delete(m.swipes, key)
		removed++
	}
	return removed, nil
}

func (m *memStore) ListExcludedTargets(_ context.Context, actorID uuid.UUID, role enums.Role, now time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]uuid.UUID, 0)
	for _, swipe := range m.swipes {
		if swipe.ActorID != actorID || swipe.ActorRole != role {
			continue
		}
		if swipe.Interested || swipe.HideUntil == nil || swipe.HideUntil.After(now) {
			out = append(out, swipe.TargetID)
		}
	}
	return out, nil
}

func (m *memStore) swipeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.swipes)
}

func (m *memStore) matchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matches)
}

func (m *memStore) InsertIfAbsent(_ context.Context, _ pgx.Tx, jobseekerID, employerID uuid.UUID) (model.Match, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey{jobseekerID, employerID}
	if existing, ok := m.matches[key]; ok {
		return existing, false, nil
	}
	now := time.Now().UTC()
	match := model.Match{
		ID:               uuid.New(),
		JobseekerID:      jobseekerID,
		EmployerID:       employerID,
		Status:           enums.MatchStatusMatched,
		MessagingEnabled: true,
		JobsShared:       []uuid.UUID{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.matches[key] = match
	return match, true, nil
}

func (m *memStore) GetByID(_ context.Context, _ pgx.Tx, matchID uuid.UUID) (model.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, match := range m.matches {
		if match.ID == matchID {
			return match, nil
		}
	}
	return model.Match{}, pgrepo.ErrMatchNotFound
}

func (m *memStore) ListForUser(context.Context, uuid.UUID, enums.Role, int) ([]model.Match, error) {
	return nil, nil
}

func (m *memStore) AddSharedJob(ctx context.Context, tx pgx.Tx, matchID, _ uuid.UUID) (model.Match, error) {
	return m.GetByID(ctx, tx, matchID)
}

func (m *memStore) SetSchedulingEnabled(ctx context.Context, tx pgx.Tx, matchID uuid.UUID, _ bool) (model.Match, error) {
	return m.GetByID(ctx, tx, matchID)
}

func (m *memStore) SetInterview(ctx context.Context, tx pgx.Tx, matchID uuid.UUID, _ time.Time, _ enums.InterviewStatus) (model.Match, error) {
	return m.GetByID(ctx, tx, matchID)
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return fn(ctx, nil)
}

package matches

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
	pgrepo "github.com/Jeffrey-enterN/entern-match/internal/repo/postgres"
	"github.com/Jeffrey-enterN/entern-match/internal/services/notify"
)

type txStub struct {
	mu        sync.Mutex
	calls     int
	commitErr error
}

func (s *txStub) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		return err
	}
	return s.commitErr
}

type swipeKey struct {
	actor  uuid.UUID
	role   enums.Role
	target uuid.UUID
}

type swipeLookupStub struct {
	mu     sync.Mutex
	swipes map[swipeKey]model.Swipe
	err    error
}

func newSwipeLookupStub() *swipeLookupStub {
	return &swipeLookupStub{swipes: map[swipeKey]model.Swipe{}}
}

func (s *swipeLookupStub) put(swipe model.Swipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swipes[swipeKey{swipe.ActorID, swipe.ActorRole, swipe.TargetID}] = swipe
}

func (s *swipeLookupStub) GetReciprocal(_ context.Context, _ pgx.Tx, actorID uuid.UUID, role enums.Role, targetID uuid.UUID) (model.Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.Swipe{}, s.err
	}
	swipe, ok := s.swipes[swipeKey{targetID, role.Opposite(), actorID}]
	if !ok {
		return model.Swipe{}, pgrepo.ErrSwipeNotFound
	}
	return swipe, nil
}

type pairKey struct {
	jobseeker uuid.UUID
	employer  uuid.UUID
}

// matchStoreStub enforces pair uniqueness under its mutex the way the table
// constraint does.
type matchStoreStub struct {
	mu        sync.Mutex
	byPair    map[pairKey]uuid.UUID
	byID      map[uuid.UUID]model.Match
	inserts   int
	insertErr error
}

func newMatchStoreStub() *matchStoreStub {
	return &matchStoreStub{byPair: map[pairKey]uuid.UUID{}, byID: map[uuid.UUID]model.Match{}}
}

func (s *matchStoreStub) InsertIfAbsent(_ context.Context, _ pgx.Tx, jobseekerID, employerID uuid.UUID) (model.Match, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return model.Match{}, false, s.insertErr
	}
	if id, ok := s.byPair[pairKey{jobseekerID, employerID}]; ok {
		return s.byID[id], false, nil
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
	s.byPair[pairKey{jobseekerID, employerID}] = match.ID
	s.byID[match.ID] = match
	s.inserts++
	return match, true, nil
}

func (s *matchStoreStub) GetByID(_ context.Context, _ pgx.Tx, matchID uuid.UUID) (model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.byID[matchID]
	if !ok {
		return model.Match{}, pgrepo.ErrMatchNotFound
	}
	return match, nil
}

func (s *matchStoreStub) ListForUser(_ context.Context, userID uuid.UUID, role enums.Role, _ int) ([]model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Match, 0)
	for _, match := range s.byID {
		if (role == enums.RoleJobseeker && match.JobseekerID == userID) || (role == enums.RoleEmployer && match.EmployerID == userID) {
			out = append(out, match)
		}
	}
	return out, nil
}

func (s *matchStoreStub) AddSharedJob(_ context.Context, _ pgx.Tx, matchID, postingID uuid.UUID) (model.Match, error) {
	return s.update(matchID, func(m *model.Match) {
		if !m.HasSharedJob(postingID) {
			m.JobsShared = append(m.JobsShared, postingID)
		}
	})
}

func (s *matchStoreStub) SetSchedulingEnabled(_ context.Context, _ pgx.Tx, matchID uuid.UUID, enabled bool) (model.Match, error) {
	return s.update(matchID, func(m *model.Match) { m.SchedulingEnabled = enabled })
}

func (s *matchStoreStub) SetInterview(_ context.Context, _ pgx.Tx, matchID uuid.UUID, at time.Time, status enums.InterviewStatus) (model.Match, error) {
	return s.update(matchID, func(m *model.Match) {
		ts := at.UTC()
		st := string(status)
		m.InterviewScheduledAt = &ts
		m.InterviewStatus = &st
	})
}

func (s *matchStoreStub) update(matchID uuid.UUID, fn func(*model.Match)) (model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.byID[matchID]
	if !ok {
		return model.Match{}, pgrepo.ErrMatchNotFound
	}
	fn(&match)
	s.byID[matchID] = match
	return match, nil
}

type notifierStub struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *notifierStub) Publish(_ context.Context, event notify.Event) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return len(event.Recipients)
}

func (n *notifierStub) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type sinkStub struct {
	mu      sync.Mutex
	created []model.Match
	err     error
}

func (s *sinkStub) MatchCreated(_ context.Context, match model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, match)
	return s.err
}

type postingOwnersStub map[uuid.UUID]uuid.UUID

func (p postingOwnersStub) PostingOwner(_ context.Context, postingID uuid.UUID) (uuid.UUID, error) {
	owner, ok := p[postingID]
	if !ok {
		return uuid.Nil, pgrepo.ErrPostingNotFound
	}
	return owner, nil
}

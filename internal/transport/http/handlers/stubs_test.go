package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
	pgrepo "github.com/Jeffrey-enterN/entern-match/internal/repo/postgres"
	authsvc "github.com/Jeffrey-enterN/entern-match/internal/services/auth"
	swipesvc "github.com/Jeffrey-enterN/entern-match/internal/services/swipes"
)

type swipeServiceStub struct {
	result  swipesvc.SubmitResult
	err     error
	removed int64
	ids     []uuid.UUID
}

func (s swipeServiceStub) Submit(_ context.Context, identity authsvc.Identity, targetID uuid.UUID, interested bool, hideUntil *time.Time) (swipesvc.SubmitResult, error) {
	if s.err != nil {
		return swipesvc.SubmitResult{}, s.err
	}
	result := s.result
	if result.Swipe.ActorID == uuid.Nil {
		result.Swipe = model.Swipe{
			ActorID:    identity.UserID,
			ActorRole:  identity.Role,
			TargetID:   targetID,
			Interested: interested,
			HideUntil:  hideUntil,
		}
	}
	return result, nil
}

func (s swipeServiceStub) ResetNegativeSwipes(context.Context, uuid.UUID, enums.Role) (int64, error) {
	return s.removed, s.err
}

func (s swipeServiceStub) Exclusions(context.Context, uuid.UUID, enums.Role) ([]uuid.UUID, error) {
	return s.ids, s.err
}

// swipeStoreStub satisfies swipes.SwipeStore without arbitration data.
type swipeStoreStub struct{}

func (swipeStoreStub) Upsert(_ context.Context, _ pgx.Tx, swipe model.Swipe) (model.Swipe, error) {
	swipe.CreatedAt = time.Now().UTC()
	swipe.UpdatedAt = swipe.CreatedAt
	return swipe, nil
}

func (swipeStoreStub) GetReciprocal(context.Context, pgx.Tx, uuid.UUID, enums.Role, uuid.UUID) (model.Swipe, error) {
	return model.Swipe{}, pgrepo.ErrSwipeNotFound
}

func (swipeStoreStub) DeleteNegativeByActor(context.Context, uuid.UUID, enums.Role) (int64, error) {
	return 0, nil
}

func (swipeStoreStub) ListExcludedTargets(context.Context, uuid.UUID, enums.Role, time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

type matchServiceStub struct {
	match   model.Match
	items   []model.Match
	err     error
	calls   int
	lastAt  time.Time
	lastJob uuid.UUID
}

func (s *matchServiceStub) List(context.Context, uuid.UUID, enums.Role, int) ([]model.Match, error) {
	s.calls++
	return s.items, s.err
}

func (s *matchServiceStub) ShareJob(_ context.Context, _, _, postingID uuid.UUID) (model.Match, error) {
	s.calls++
	s.lastJob = postingID
	return s.match, s.err
}

func (s *matchServiceStub) EnableScheduling(context.Context, uuid.UUID, uuid.UUID) (model.Match, error) {
	s.calls++
	return s.match, s.err
}

func (s *matchServiceStub) ScheduleInterview(_ context.Context, _, _ uuid.UUID, at time.Time) (model.Match, error) {
	s.calls++
	s.lastAt = at
	return s.match, s.err
}

type jobInterestServiceStub struct {
	err   error
	calls int
}

func (s *jobInterestServiceStub) RecordInterest(_ context.Context, jobseekerID, postingID uuid.UUID, interested bool) (model.JobInterest, error) {
	s.calls++
	if s.err != nil {
		return model.JobInterest{}, s.err
	}
	now := time.Now().UTC()
	return model.JobInterest{
		JobseekerID:  jobseekerID,
		JobPostingID: postingID,
		Interested:   interested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *jobInterestServiceStub) Exclusions(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	s.calls++
	return nil, s.err
}

func withIdentity(req *http.Request, userID uuid.UUID, role enums.Role) *http.Request {
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: userID, Role: role}))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

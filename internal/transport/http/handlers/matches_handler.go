package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
	authsvc "github.com/Jeffrey-enterN/entern-match/internal/services/auth"
	"github.com/Jeffrey-enterN/entern-match/internal/transport/http/dto"
	httperrors "github.com/Jeffrey-enterN/entern-match/internal/transport/http/errors"
)

const defaultMatchesLimit = 100

type MatchService interface {
	List(ctx context.Context, userID uuid.UUID, role enums.Role, limit int) ([]model.Match, error)
	ShareJob(ctx context.Context, employerID, matchID, postingID uuid.UUID) (model.Match, error)
	EnableScheduling(ctx context.Context, employerID, matchID uuid.UUID) (model.Match, error)
	ScheduleInterview(ctx context.Context, actorID, matchID uuid.UUID, at time.Time) (model.Match, error)
}

type MatchesHandler struct {
	service MatchService
}

func NewMatchesHandler(service MatchService) *MatchesHandler {
	return &MatchesHandler{service: service}
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), defaultMatchesLimit)
	items, err := h.service.List(r.Context(), identity.UserID, identity.Role, limit)
	if err != nil {
		writeServiceError(w, err, "failed to load matches")
		return
	}

	resp := dto.MatchesResponse{Items: make([]dto.MatchResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, mapMatch(item, identity.UserID))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MatchesHandler) ShareJob(w http.ResponseWriter, r *http.Request) {
	identity, matchID, ok := h.employerMatch(w, r)
	if !ok {
		return
	}

	var req dto.ShareJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.JobPostingID == uuid.Nil {
		writeBadRequest(w, "VALIDATION_ERROR", "job_posting_id is required")
		return
	}

	match, err := h.service.ShareJob(r.Context(), identity.UserID, matchID, req.JobPostingID)
	if err != nil {
		writeServiceError(w, err, "failed to share job")
		return
	}
	httperrors.Write(w, http.StatusOK, mapMatch(match, identity.UserID))
}

func (h *MatchesHandler) EnableScheduling(w http.ResponseWriter, r *http.Request) {
	identity, matchID, ok := h.employerMatch(w, r)
	if !ok {
		return
	}

	match, err := h.service.EnableScheduling(r.Context(), identity.UserID, matchID)
	if err != nil {
		writeServiceError(w, err, "failed to enable scheduling")
		return
	}
	httperrors.Write(w, http.StatusOK, mapMatch(match, identity.UserID))
}

func (h *MatchesHandler) ScheduleInterview(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	matchID, ok := uuidURLParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	var req dto.ScheduleInterviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.ScheduledAt.IsZero() {
		writeBadRequest(w, "VALIDATION_ERROR", "scheduled_at is required")
		return
	}

	match, err := h.service.ScheduleInterview(r.Context(), identity.UserID, matchID, req.ScheduledAt)
	if err != nil {
		writeServiceError(w, err, "failed to schedule interview")
		return
	}
	httperrors.Write(w, http.StatusOK, mapMatch(match, identity.UserID))
}

func (h *MatchesHandler) identity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func (h *MatchesHandler) employerMatch(w http.ResponseWriter, r *http.Request) (authsvc.Identity, uuid.UUID, bool) {
	identity, ok := h.identity(w, r)
	if !ok {
		return authsvc.Identity{}, uuid.Nil, false
	}
	if identity.Role != enums.RoleEmployer {
		writeForbidden(w, "FORBIDDEN", "only the employer of a match can do this")
		return authsvc.Identity{}, uuid.Nil, false
	}
	matchID, ok := uuidURLParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return authsvc.Identity{}, uuid.Nil, false
	}
	return identity, matchID, true
}

func mapMatch(m model.Match, viewerID uuid.UUID) dto.MatchResponse {
	shared := m.JobsShared
	if shared == nil {
		shared = []uuid.UUID{}
	}
	return dto.MatchResponse{
		ID:                   m.ID,
		JobseekerID:          m.JobseekerID,
		EmployerID:           m.EmployerID,
		CounterpartID:        m.Counterpart(viewerID),
		Status:               string(m.Status),
		MessagingEnabled:     m.MessagingEnabled,
		SchedulingEnabled:    m.SchedulingEnabled,
		JobsShared:           shared,
		InterviewScheduledAt: m.InterviewScheduledAt,
		InterviewStatus:      m.InterviewStatus,
		CreatedAt:            m.CreatedAt,
	}
}

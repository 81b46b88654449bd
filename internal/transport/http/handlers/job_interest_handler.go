package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
	authsvc "github.com/Jeffrey-enterN/entern-match/internal/services/auth"
	"github.com/Jeffrey-enterN/entern-match/internal/transport/http/dto"
	httperrors "github.com/Jeffrey-enterN/entern-match/internal/transport/http/errors"
)

type JobInterestService interface {
	RecordInterest(ctx context.Context, jobseekerID, postingID uuid.UUID, interested bool) (model.JobInterest, error)
	Exclusions(ctx context.Context, jobseekerID uuid.UUID) ([]uuid.UUID, error)
}

type JobInterestHandler struct {
	service JobInterestService
}

func NewJobInterestHandler(service JobInterestService) *JobInterestHandler {
	return &JobInterestHandler{service: service}
}

func (h *JobInterestHandler) Record(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.jobseeker(w, r)
	if !ok {
		return
	}

	var req dto.JobInterestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.JobPostingID == uuid.Nil || req.Interested == nil {
		writeBadRequest(w, "VALIDATION_ERROR", "job_posting_id and interested are required")
		return
	}

	rec, err := h.service.RecordInterest(r.Context(), identity.UserID, req.JobPostingID, *req.Interested)
	if err != nil {
		writeServiceError(w, err, "failed to record job interest")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.JobInterestResponse{
		JobPostingID: rec.JobPostingID,
		Interested:   rec.Interested,
		UpdatedAt:    rec.UpdatedAt,
	})
}

func (h *JobInterestHandler) Exclusions(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.jobseeker(w, r)
	if !ok {
		return
	}

	ids, err := h.service.Exclusions(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to load job exclusions")
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	httperrors.Write(w, http.StatusOK, dto.ExclusionsResponse{Items: ids})
}

func (h *JobInterestHandler) jobseeker(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	if identity.Role != enums.RoleJobseeker {
		writeForbidden(w, "FORBIDDEN", "only jobseekers can record job interest")
		return authsvc.Identity{}, false
	}
	if h.service == nil {
		writeInternal(w, "JOB_INTEREST_SERVICE_UNAVAILABLE", "job interest service is unavailable")
		return authsvc.Identity{}, false
	}
	return identity, true
}

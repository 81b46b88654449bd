package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
	authsvc "github.com/Jeffrey-enterN/entern-match/internal/services/auth"
	swipesvc "github.com/Jeffrey-enterN/entern-match/internal/services/swipes"
	"github.com/Jeffrey-enterN/entern-match/internal/transport/http/dto"
	httperrors "github.com/Jeffrey-enterN/entern-match/internal/transport/http/errors"
)

type SwipeService interface {
	Submit(ctx context.Context, identity authsvc.Identity, targetID uuid.UUID, interested bool, hideUntil *time.Time) (swipesvc.SubmitResult, error)
	ResetNegativeSwipes(ctx context.Context, actorID uuid.UUID, role enums.Role) (int64, error)
	Exclusions(ctx context.Context, actorID uuid.UUID, role enums.Role) ([]uuid.UUID, error)
}

type SwipeHandler struct {
	service SwipeService
}

func NewSwipeHandler(service SwipeService) *SwipeHandler {
	return &SwipeHandler{service: service}
}

func (h *SwipeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.TargetID == uuid.Nil || req.Interested == nil {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and interested are required")
		return
	}

	result, err := h.service.Submit(r.Context(), identity, req.TargetID, *req.Interested, req.HideUntil)
	if err != nil {
		writeServiceError(w, err, "failed to process swipe")
		return
	}

	resp := dto.SwipeResponse{
		OK:           true,
		Swipe:        mapSwipe(result.Swipe),
		MatchCreated: result.MatchCreated,
	}
	if result.Match != nil {
		m := mapMatch(*result.Match, identity.UserID)
		resp.Match = &m
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *SwipeHandler) Reset(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	removed, err := h.service.ResetNegativeSwipes(r.Context(), identity.UserID, identity.Role)
	if err != nil {
		writeServiceError(w, err, "failed to reset swipes")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.ResetSwipesResponse{OK: true, Removed: removed})
}

func (h *SwipeHandler) Exclusions(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	ids, err := h.service.Exclusions(r.Context(), identity.UserID, identity.Role)
	if err != nil {
		writeServiceError(w, err, "failed to load exclusions")
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	httperrors.Write(w, http.StatusOK, dto.ExclusionsResponse{Items: ids})
}

func mapSwipe(s model.Swipe) dto.SwipeItem {
	return dto.SwipeItem{
		TargetID:   s.TargetID,
		Direction:  string(s.Direction()),
		Interested: s.Interested,
		HideUntil:  s.HideUntil,
		UpdatedAt:  s.UpdatedAt,
	}
}

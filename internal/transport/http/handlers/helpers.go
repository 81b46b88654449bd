package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	jobinterestsvc "github.com/Jeffrey-enterN/entern-match/internal/services/jobinterest"
	matchessvc "github.com/Jeffrey-enterN/entern-match/internal/services/matches"
	ratesvc "github.com/Jeffrey-enterN/entern-match/internal/services/rate"
	swipesvc "github.com/Jeffrey-enterN/entern-match/internal/services/swipes"
	httperrors "github.com/Jeffrey-enterN/entern-match/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

// writeServiceError maps service sentinels onto HTTP statuses. Anything
// unrecognised becomes a 500 with the given fallback message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var tooFast *ratesvc.TooFastError
	switch {
	case errors.As(err, &tooFast):
		w.Header().Set("Retry-After", strconv.FormatInt(tooFast.RetryAfterSec, 10))
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "TOO_FAST",
			Message:       "too many swipes, slow down",
			RetryAfterSec: tooFast.RetryAfterSec,
		})
	case errors.Is(err, matchessvc.ErrRetryable):
		httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{
			Code:    "MATCH_EVALUATION_RETRYABLE",
			Message: "swipe recorded but match evaluation failed, retry the request",
		})
	case errors.Is(err, swipesvc.ErrSelfSwipe):
		writeBadRequest(w, "SELF_SWIPE", "cannot swipe on yourself")
	case errors.Is(err, swipesvc.ErrValidation),
		errors.Is(err, matchessvc.ErrValidation),
		errors.Is(err, jobinterestsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
	case errors.Is(err, matchessvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "action not allowed for this match")
	case errors.Is(err, matchessvc.ErrMatchNotFound):
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
			Code:    "MATCH_NOT_FOUND",
			Message: "match not found",
		})
	case errors.Is(err, matchessvc.ErrSchedulingDisabled):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "SCHEDULING_DISABLED",
			Message: "interview scheduling is not enabled for this match",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", fallback)
	}
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func uuidURLParam(r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, key)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

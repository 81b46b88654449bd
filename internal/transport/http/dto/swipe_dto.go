package dto

import (
	"time"

	"github.com/google/uuid"
)

type SwipeRequest struct {
	TargetID   uuid.UUID  `json:"target_id"`
	Interested *bool      `json:"interested"`
	HideUntil  *time.Time `json:"hide_until,omitempty"`
}

type SwipeResponse struct {
	OK           bool           `json:"ok"`
	Swipe        SwipeItem      `json:"swipe"`
	MatchCreated bool           `json:"match_created"`
	Match        *MatchResponse `json:"match,omitempty"`
}

type SwipeItem struct {
	TargetID   uuid.UUID  `json:"target_id"`
	Direction  string     `json:"direction"`
	Interested bool       `json:"interested"`
	HideUntil  *time.Time `json:"hide_until,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type ResetSwipesResponse struct {
	OK      bool  `json:"ok"`
	Removed int64 `json:"removed"`
}

type ExclusionsResponse struct {
	Items []uuid.UUID `json:"items"`
}

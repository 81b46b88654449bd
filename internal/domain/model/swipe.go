package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
)

type Swipe struct {
	ActorID    uuid.UUID  `json:"actor_id"`
	ActorRole  enums.Role `json:"actor_role"`
	TargetID   uuid.UUID  `json:"target_id"`
	Interested bool       `json:"interested"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	HideUntil  *time.Time `json:"hide_until,omitempty"`
}

// Pair orders the swipe participants as (jobseeker, employer) regardless of who swiped.
func (s Swipe) Pair() (jobseekerID, employerID uuid.UUID) {
	if s.ActorRole == enums.RoleEmployer {
		return s.TargetID, s.ActorID
	}
	return s.ActorID, s.TargetID
}

func (s Swipe) Direction() enums.SwipeDirection {
	return enums.DirectionFor(s.Interested)
}

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
)

type Match struct {
	ID                   uuid.UUID         `json:"id"`
	JobseekerID          uuid.UUID         `json:"jobseeker_id"`
	EmployerID           uuid.UUID         `json:"employer_id"`
	Status               enums.MatchStatus `json:"status"`
	MessagingEnabled     bool              `json:"messaging_enabled"`
	SchedulingEnabled    bool              `json:"scheduling_enabled"`
	JobsShared           []uuid.UUID       `json:"jobs_shared"`
	InterviewScheduledAt *time.Time        `json:"interview_scheduled_at,omitempty"`
	InterviewStatus      *string           `json:"interview_status,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func (m Match) Participants() []uuid.UUID {
	return []uuid.UUID{m.JobseekerID, m.EmployerID}
}

// Counterpart returns the other participant for userID.
func (m Match) Counterpart(userID uuid.UUID) uuid.UUID {
	if userID == m.JobseekerID {
		return m.EmployerID
	}
	return m.JobseekerID
}

func (m Match) HasParticipant(userID uuid.UUID) bool {
	return userID == m.JobseekerID || userID == m.EmployerID
}

func (m Match) HasSharedJob(postingID uuid.UUID) bool {
	for _, id := range m.JobsShared {
		if id == postingID {
			return true
		}
	}
	return false
}

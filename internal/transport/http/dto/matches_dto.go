package dto

import (
	"time"

	"github.com/google/uuid"
)

type MatchResponse struct {
	ID                   uuid.UUID   `json:"id"`
	JobseekerID          uuid.UUID   `json:"jobseeker_id"`
	EmployerID           uuid.UUID   `json:"employer_id"`
	CounterpartID        uuid.UUID   `json:"counterpart_id"`
	Status               string      `json:"status"`
	MessagingEnabled     bool        `json:"messaging_enabled"`
	SchedulingEnabled    bool        `json:"scheduling_enabled"`
	JobsShared           []uuid.UUID `json:"jobs_shared"`
	InterviewScheduledAt *time.Time  `json:"interview_scheduled_at,omitempty"`
	InterviewStatus      *string     `json:"interview_status,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
}

type MatchesResponse struct {
	Items []MatchResponse `json:"items"`
}

type ShareJobRequest struct {
	JobPostingID uuid.UUID `json:"job_posting_id"`
}

type ScheduleInterviewRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

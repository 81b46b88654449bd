package model

import (
	"time"

	"github.com/google/uuid"
)

type JobInterest struct {
	JobseekerID  uuid.UUID `json:"jobseeker_id"`
	JobPostingID uuid.UUID `json:"job_posting_id"`
	Interested   bool      `json:"interested"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

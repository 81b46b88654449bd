package dto

import (
	"time"

	"github.com/google/uuid"
)

type JobInterestRequest struct {
	JobPostingID uuid.UUID `json:"job_posting_id"`
	Interested   *bool     `json:"interested"`
}

type JobInterestResponse struct {
	JobPostingID uuid.UUID `json:"job_posting_id"`
	Interested   bool      `json:"interested"`
	UpdatedAt    time.Time `json:"updated_at"`
}

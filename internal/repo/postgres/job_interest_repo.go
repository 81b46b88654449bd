package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
)

var ErrPostingNotFound = errors.New("job posting not found")

type JobInterestRepo struct {
	pool *pgxpool.Pool
}

func NewJobInterestRepo(pool *pgxpool.Pool) *JobInterestRepo {
	return &JobInterestRepo{pool: pool}
}

// Upsert stores the decision and reports whether the stored value changed. An
// identical resubmission leaves the row untouched and returns changed=false;
// the conditional DO UPDATE locks the row, so concurrent identical writes see
// exactly one change.
func (r *JobInterestRepo) Upsert(ctx context.Context, jobseekerID, postingID uuid.UUID, interested bool) (model.JobInterest, bool, error) {
	if jobseekerID == uuid.Nil || postingID == uuid.Nil {
		return model.JobInterest{}, false, fmt.Errorf("invalid job interest payload")
	}
	if r.pool == nil {
		return model.JobInterest{}, false, fmt.Errorf("postgres pool is nil")
	}

	var rec model.JobInterest
	err := r.pool.QueryRow(ctx, `
INSERT INTO job_interests (
	jobseeker_id,
	job_posting_id,
	interested,
	created_at,
	updated_at
) VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (jobseeker_id, job_posting_id) DO UPDATE SET
	interested = EXCLUDED.interested,
	updated_at = NOW()
WHERE job_interests.interested IS DISTINCT FROM EXCLUDED.interested
RETURNING jobseeker_id, job_posting_id, interested, created_at, updated_at
`, jobseekerID, postingID, interested).Scan(
		&rec.JobseekerID,
		&rec.JobPostingID,
		&rec.Interested,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.JobInterest{}, false, fmt.Errorf("upsert job interest: %w", err)
	}

	rec, err = r.get(ctx, jobseekerID, postingID)
	if err != nil {
		return model.JobInterest{}, false, err
	}
	return rec, false, nil
}

func (r *JobInterestRepo) get(ctx context.Context, jobseekerID, postingID uuid.UUID) (model.JobInterest, error) {
	var rec model.JobInterest
	err := r.pool.QueryRow(ctx, `
SELECT jobseeker_id, job_posting_id, interested, created_at, updated_at
FROM job_interests
WHERE jobseeker_id = $1 AND job_posting_id = $2
`, jobseekerID, postingID).Scan(
		&rec.JobseekerID,
		&rec.JobPostingID,
		&rec.Interested,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return model.JobInterest{}, fmt.Errorf("get job interest: %w", err)
	}
	return rec, nil
}

func (r *JobInterestRepo) ListDecidedPostings(ctx context.Context, jobseekerID uuid.UUID) ([]uuid.UUID, error) {
	if jobseekerID == uuid.Nil {
		return nil, fmt.Errorf("invalid jobseeker id")
	}
	if r.pool == nil {
		return []uuid.UUID{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT job_posting_id
FROM job_interests
WHERE jobseeker_id = $1
ORDER BY updated_at DESC
`, jobseekerID)
	if err != nil {
		return nil, fmt.Errorf("list decided postings: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan decided posting: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate decided postings: %w", rows.Err())
	}

	return ids, nil
}

// PostingOwner resolves the employer that published the posting.
func (r *JobInterestRepo) PostingOwner(ctx context.Context, postingID uuid.UUID) (uuid.UUID, error) {
	if r.pool == nil {
		return uuid.Nil, fmt.Errorf("postgres pool is nil")
	}

	var employerID uuid.UUID
	err := r.pool.QueryRow(ctx, `
SELECT employer_id
FROM job_postings
WHERE id = $1
`, postingID).Scan(&employerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrPostingNotFound
		}
		return uuid.Nil, fmt.Errorf("get posting owner: %w", err)
	}
	return employerID, nil
}

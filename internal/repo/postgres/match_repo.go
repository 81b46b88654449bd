package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepo struct {
	pool  *pgxpool.Pool
	newID func() uuid.UUID
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool, newID: uuid.New}
}

const matchColumns = `id, jobseeker_id, employer_id, status, messaging_enabled, scheduling_enabled,
	jobs_shared, interview_scheduled_at, interview_status, created_at, updated_at`

// InsertIfAbsent creates the match for the pair unless one already exists. The
// (jobseeker_id, employer_id) unique constraint is the only arbiter between
// concurrent callers: exactly one of them observes created == true.
func (r *MatchRepo) InsertIfAbsent(ctx context.Context, tx pgx.Tx, jobseekerID, employerID uuid.UUID) (model.Match, bool, error) {
	if jobseekerID == uuid.Nil || employerID == uuid.Nil {
		return model.Match{}, false, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return model.Match{}, false, fmt.Errorf("transaction is required")
	}

	row := tx.QueryRow(ctx, `
INSERT INTO matches (
	id,
	jobseeker_id,
	employer_id,
	status,
	messaging_enabled,
	scheduling_enabled,
	jobs_shared,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, TRUE, FALSE, '[]'::jsonb, NOW(), NOW())
ON CONFLICT (jobseeker_id, employer_id) DO NOTHING
RETURNING `+matchColumns,
		r.newID(), jobseekerID, employerID, string(enums.MatchStatusMatched))

	rec, err := scanMatch(row)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Match{}, false, fmt.Errorf("create match: %w", err)
	}

	existing, err := r.GetByPair(ctx, tx, jobseekerID, employerID)
	if err != nil {
		return model.Match{}, false, err
	}
	return existing, false, nil
}

func (r *MatchRepo) GetByPair(ctx context.Context, tx pgx.Tx, jobseekerID, employerID uuid.UUID) (model.Match, error) {
	q, ok := pick(r.pool, tx)
	if !ok {
		return model.Match{}, fmt.Errorf("postgres pool is nil")
	}

	rec, err := scanMatch(q.QueryRow(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE jobseeker_id = $1 AND employer_id = $2
`, jobseekerID, employerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match by pair: %w", err)
	}
	return rec, nil
}

func (r *MatchRepo) GetByID(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.Match, error) {
	q, ok := pick(r.pool, tx)
	if !ok {
		return model.Match{}, fmt.Errorf("postgres pool is nil")
	}

	query := `
SELECT ` + matchColumns + `
FROM matches
WHERE id = $1`
	// Inside a transaction the row is locked until commit so read-modify-write
	// updates of jobs_shared and the scheduling flags serialize.
	if tx != nil {
		query += ` FOR UPDATE`
	}

	rec, err := scanMatch(q.QueryRow(ctx, query, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match by id: %w", err)
	}
	return rec, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID uuid.UUID, role enums.Role, limit int) ([]model.Match, error) {
	if userID == uuid.Nil || !role.Valid() {
		return nil, fmt.Errorf("invalid match list payload")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []model.Match{}, nil
	}

	column := "jobseeker_id"
	if role == enums.RoleEmployer {
		column = "employer_id"
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE `+column+` = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	items := make([]model.Match, 0, limit)
	for rows.Next() {
		item, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate matches: %w", rows.Err())
	}

	return items, nil
}

// AddSharedJob appends postingID to jobs_shared unless it is already present.
func (r *MatchRepo) AddSharedJob(ctx context.Context, tx pgx.Tx, matchID, postingID uuid.UUID) (model.Match, error) {
	if tx == nil {
		return model.Match{}, fmt.Errorf("transaction is required")
	}

	rec, err := scanMatch(tx.QueryRow(ctx, `
UPDATE matches
SET
	jobs_shared = CASE
		WHEN jobs_shared @> jsonb_build_array($2::text) THEN jobs_shared
		ELSE jobs_shared || jsonb_build_array($2::text)
	END,
	updated_at = NOW()
WHERE id = $1
RETURNING `+matchColumns,
		matchID, postingID.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("add shared job: %w", err)
	}
	return rec, nil
}

func (r *MatchRepo) SetSchedulingEnabled(ctx context.Context, tx pgx.Tx, matchID uuid.UUID, enabled bool) (model.Match, error) {
	if tx == nil {
		return model.Match{}, fmt.Errorf("transaction is required")
	}

	rec, err := scanMatch(tx.QueryRow(ctx, `
UPDATE matches
SET scheduling_enabled = $2, updated_at = NOW()
WHERE id = $1
RETURNING `+matchColumns,
		matchID, enabled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("set scheduling flag: %w", err)
	}
	return rec, nil
}

func (r *MatchRepo) SetInterview(ctx context.Context, tx pgx.Tx, matchID uuid.UUID, at time.Time, status enums.InterviewStatus) (model.Match, error) {
	if tx == nil {
		return model.Match{}, fmt.Errorf("transaction is required")
	}

	rec, err := scanMatch(tx.QueryRow(ctx, `
UPDATE matches
SET
	interview_scheduled_at = $2,
	interview_status = $3,
	updated_at = NOW()
WHERE id = $1
RETURNING `+matchColumns,
		matchID, at.UTC(), string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("set interview: %w", err)
	}
	return rec, nil
}

func scanMatch(row pgx.Row) (model.Match, error) {
	var (
		rec    model.Match
		status string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.JobseekerID,
		&rec.EmployerID,
		&status,
		&rec.MessagingEnabled,
		&rec.SchedulingEnabled,
		&rec.JobsShared,
		&rec.InterviewScheduledAt,
		&rec.InterviewStatus,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return model.Match{}, err
	}
	rec.Status = enums.MatchStatus(status)
	if rec.JobsShared == nil {
		rec.JobsShared = []uuid.UUID{}
	}
	return rec, nil
}

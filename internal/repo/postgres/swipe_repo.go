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

var ErrSwipeNotFound = errors.New("swipe not found")

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

const swipeColumns = `jobseeker_id, employer_id, swiped_by, interested, hide_until, created_at, updated_at`

// Upsert records the actor's latest decision for the pair. Repeated calls for the
// same (jobseeker, employer, swiped_by) key overwrite the row in place.
func (r *SwipeRepo) Upsert(ctx context.Context, tx pgx.Tx, swipe model.Swipe) (model.Swipe, error) {
	if swipe.ActorID == uuid.Nil || swipe.TargetID == uuid.Nil || !swipe.ActorRole.Valid() {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}
	q, ok := pick(r.pool, tx)
	if !ok {
		return model.Swipe{}, fmt.Errorf("postgres pool is nil")
	}

	jobseekerID, employerID := swipe.Pair()
	row := q.QueryRow(ctx, `
INSERT INTO swipes (
	jobseeker_id,
	employer_id,
	swiped_by,
	direction,
	interested,
	hide_until,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
ON CONFLICT (jobseeker_id, employer_id, swiped_by) DO UPDATE SET
	direction = EXCLUDED.direction,
	interested = EXCLUDED.interested,
	hide_until = EXCLUDED.hide_until,
	updated_at = NOW()
RETURNING `+swipeColumns,
		jobseekerID,
		employerID,
		string(swipe.ActorRole),
		string(swipe.Direction()),
		swipe.Interested,
		swipe.HideUntil,
	)

	rec, err := scanSwipe(row)
	if err != nil {
		return model.Swipe{}, fmt.Errorf("upsert swipe: %w", err)
	}
	return rec, nil
}

// GetReciprocal loads the swipe the opposite role recorded for the same pair.
// tx may be nil for reads outside a transaction.
func (r *SwipeRepo) GetReciprocal(ctx context.Context, tx pgx.Tx, actorID uuid.UUID, role enums.Role, targetID uuid.UUID) (model.Swipe, error) {
	if actorID == uuid.Nil || targetID == uuid.Nil || !role.Valid() {
		return model.Swipe{}, fmt.Errorf("invalid reciprocal lookup payload")
	}
	q, ok := pick(r.pool, tx)
	if !ok {
		return model.Swipe{}, fmt.Errorf("postgres pool is nil")
	}

	jobseekerID, employerID := model.Swipe{ActorID: actorID, ActorRole: role, TargetID: targetID}.Pair()
	row := q.QueryRow(ctx, `
SELECT `+swipeColumns+`
FROM swipes
WHERE jobseeker_id = $1 AND employer_id = $2 AND swiped_by = $3
`, jobseekerID, employerID, string(role.Opposite()))

	rec, err := scanSwipe(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Swipe{}, ErrSwipeNotFound
		}
		return model.Swipe{}, fmt.Errorf("get reciprocal swipe: %w", err)
	}
	return rec, nil
}

// DeleteNegativeByActor removes the actor's negative decisions, skipping every pair
// that already has a match row.
func (r *SwipeRepo) DeleteNegativeByActor(ctx context.Context, actorID uuid.UUID, role enums.Role) (int64, error) {
	if actorID == uuid.Nil || !role.Valid() {
		return 0, fmt.Errorf("invalid reset payload")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	actorColumn := "jobseeker_id"
	if role == enums.RoleEmployer {
		actorColumn = "employer_id"
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM swipes s
WHERE s.`+actorColumn+` = $1
	AND s.swiped_by = $2
	AND s.interested = FALSE
	AND NOT EXISTS (
		SELECT 1
		FROM matches m
		WHERE m.jobseeker_id = s.jobseeker_id
			AND m.employer_id = s.employer_id
	)
`, actorID, string(role))
	if err != nil {
		return 0, fmt.Errorf("delete negative swipes: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListExcludedTargets returns targets the actor has decided on and that should stay out
// of the feed at the given instant.
func (r *SwipeRepo) ListExcludedTargets(ctx context.Context, actorID uuid.UUID, role enums.Role, now time.Time) ([]uuid.UUID, error) {
	if actorID == uuid.Nil || !role.Valid() {
		return nil, fmt.Errorf("invalid exclusion payload")
	}
	if r.pool == nil {
		return []uuid.UUID{}, nil
	}

	actorColumn, targetColumn := "jobseeker_id", "employer_id"
	if role == enums.RoleEmployer {
		actorColumn, targetColumn = "employer_id", "jobseeker_id"
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+targetColumn+`
FROM swipes
WHERE `+actorColumn+` = $1
	AND swiped_by = $2
	AND (interested OR hide_until IS NULL OR hide_until > $3)
ORDER BY updated_at DESC
`, actorID, string(role), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("list excluded targets: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan excluded target: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate excluded targets: %w", rows.Err())
	}

	return ids, nil
}

func scanSwipe(row pgx.Row) (model.Swipe, error) {
	var (
		jobseekerID uuid.UUID
		employerID  uuid.UUID
		swipedBy    string
		rec         model.Swipe
	)
	if err := row.Scan(
		&jobseekerID,
		&employerID,
		&swipedBy,
		&rec.Interested,
		&rec.HideUntil,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return model.Swipe{}, err
	}

	rec.ActorRole = enums.Role(swipedBy)
	if rec.ActorRole == enums.RoleEmployer {
		rec.ActorID, rec.TargetID = employerID, jobseekerID
	} else {
		rec.ActorID, rec.TargetID = jobseekerID, employerID
	}
	return rec, nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"membership-portal/internal/domain"
	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/repository"
)

var _ repository.AttemptRepository = (*attemptRepo)(nil)

// attemptRepo journals upstream interactions in registration_attempts. It is
// append-mostly; nothing user-facing reads it.
type attemptRepo struct {
	pool *pgxpool.Pool
}

func NewAttemptRepo(pool *pgxpool.Pool) repository.AttemptRepository {
	return &attemptRepo{pool: pool}
}

func (r *attemptRepo) Record(ctx context.Context, tx repository.Tx, a *model.Attempt) error {
	if a == nil {
		return domain.ErrInvalidArgument
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	const q = `
INSERT INTO registration_attempts (id, draft_id, member_type, kind, field, outcome, http_status, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := execSQL(ctx, r.pool, tx, q,
		a.ID, a.DraftID, string(a.MemberType), string(a.Kind), a.Field, a.Outcome, a.HTTPStatus, a.Detail, a.CreatedAt)
	return err
}

func (r *attemptRepo) ListByDraft(ctx context.Context, tx repository.Tx, draftID string) ([]*model.Attempt, error) {
	const q = `
SELECT id, draft_id, member_type, kind, field, outcome, http_status, detail, created_at
FROM registration_attempts
WHERE draft_id = $1
ORDER BY created_at`

	rows, err := pickRows(ctx, r.pool, tx, q, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Attempt
	for rows.Next() {
		var a model.Attempt
		var mt, kind string
		if err := rows.Scan(&a.ID, &a.DraftID, &mt, &kind, &a.Field, &a.Outcome, &a.HTTPStatus, &a.Detail, &a.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		a.MemberType = model.MemberType(mt)
		a.Kind = model.AttemptKind(kind)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *attemptRepo) CountByOutcome(ctx context.Context, tx repository.Tx, kind model.AttemptKind, outcome string) (int, error) {
	const q = `SELECT COUNT(*) FROM registration_attempts WHERE kind = $1 AND outcome = $2`

	row, err := pickRow(ctx, r.pool, tx, q, string(kind), outcome)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

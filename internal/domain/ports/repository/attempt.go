package repository

import (
	"context"

	"membership-portal/internal/domain/model"
)

// AttemptRepository journals upstream interactions (availability checks that
// hit connection errors, submission outcomes). Operational visibility only;
// no user-facing flow reads from it.
type AttemptRepository interface {
	Record(ctx context.Context, tx Tx, a *model.Attempt) error
	ListByDraft(ctx context.Context, tx Tx, draftID string) ([]*model.Attempt, error)
	CountByOutcome(ctx context.Context, tx Tx, kind model.AttemptKind, outcome string) (int, error)
}

package repository

import (
	"context"

	"membership-portal/internal/domain/model"
)

// DraftRepository is the port for the per-flow registration draft. One draft
// per opened flow; drafts are short-lived and expire with their store's TTL.
type DraftRepository interface {
	Save(ctx context.Context, d *model.RegistrationDraft) error
	Find(ctx context.Context, id string) (*model.RegistrationDraft, error)
	Delete(ctx context.Context, id string) error
}

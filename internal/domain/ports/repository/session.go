package repository

import (
	"context"

	"membership-portal/internal/domain/model"
)

// SessionRepository stores portal sessions (active view + success payload +
// mocked profile).
type SessionRepository interface {
	Save(ctx context.Context, s *model.PortalSession) error
	Find(ctx context.Context, id string) (*model.PortalSession, error)
	Delete(ctx context.Context, id string) error
}

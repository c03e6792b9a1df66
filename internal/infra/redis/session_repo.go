package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"membership-portal/internal/domain"
	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo stores portal sessions (active view, success payload, mocked
// profile) the same way DraftRepo stores drafts.
type SessionRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionRepo(client RedisClient, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepo{client: client, ttl: ttl}
}

func (r *SessionRepo) key(id string) string {
	return fmt.Sprintf("portal_session:%s", id)
}

func (r *SessionRepo) Save(ctx context.Context, s *model.PortalSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(s.ID), data, r.ttl)
}

func (r *SessionRepo) Find(ctx context.Context, id string) (*model.PortalSession, error) {
	data, err := r.client.Get(ctx, r.key(id))
	if err != nil {
		if IsNotFound(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var s model.PortalSession
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id))
}

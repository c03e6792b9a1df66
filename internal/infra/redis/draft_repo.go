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

// Ensure the adapter implements the port interface.
var _ repository.DraftRepository = (*DraftRepo)(nil)

// DraftRepo keeps registration drafts as TTL'd JSON blobs, one key per draft.
// The TTL doubles as the abandoned-draft cleanup: navigating away and never
// coming back simply lets the key expire.
type DraftRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewDraftRepo(client RedisClient, ttl time.Duration) repository.DraftRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DraftRepo{client: client, ttl: ttl}
}

func (r *DraftRepo) key(id string) string {
	return fmt.Sprintf("reg_draft:%s", id)
}

func (r *DraftRepo) Save(ctx context.Context, d *model.RegistrationDraft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(d.ID), data, r.ttl)
}

func (r *DraftRepo) Find(ctx context.Context, id string) (*model.RegistrationDraft, error) {
	data, err := r.client.Get(ctx, r.key(id))
	if err != nil {
		if IsNotFound(err) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, err
	}

	var d model.RegistrationDraft
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DraftRepo) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id))
}

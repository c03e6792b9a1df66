package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"membership-portal/internal/domain"
	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/repository"
)

var _ ViewUseCase = (*viewUC)(nil)

// ViewUseCase owns the session's single active view. Navigation is free-form
// (any view may follow any other); only the registration-complete transition
// carries extra behavior.
type ViewUseCase interface {
	OpenSession(ctx context.Context) (*model.PortalSession, error)
	Current(ctx context.Context, sessionID string) (*model.PortalSession, error)
	SetView(ctx context.Context, sessionID string, v model.ViewState) (*model.PortalSession, error)
	// CompleteRegistration routes to the success view after the configured
	// settle delay, remembering whether the finished flow was the foreign one
	// so the success screen can pick its language.
	CompleteRegistration(ctx context.Context, sessionID string, t model.MemberType) (*model.PortalSession, error)
}

type viewUC struct {
	sessions     repository.SessionRepository
	successDelay time.Duration
	sleep        func(time.Duration)
	log          *zerolog.Logger
}

func NewViewUseCase(sessions repository.SessionRepository, successDelay time.Duration, logger *zerolog.Logger) *viewUC {
	return &viewUC{
		sessions:     sessions,
		successDelay: successDelay,
		sleep:        time.Sleep,
		log:          logger,
	}
}

func (u *viewUC) OpenSession(ctx context.Context) (*model.PortalSession, error) {
	s := model.NewPortalSession()
	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *viewUC) Current(ctx context.Context, sessionID string) (*model.PortalSession, error) {
	return u.sessions.Find(ctx, sessionID)
}

func (u *viewUC) SetView(ctx context.Context, sessionID string, v model.ViewState) (*model.PortalSession, error) {
	if !v.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	s, err := u.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.View = v
	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *viewUC) CompleteRegistration(ctx context.Context, sessionID string, t model.MemberType) (*model.PortalSession, error) {
	s, err := u.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if u.successDelay > 0 {
		u.sleep(u.successDelay)
	}
	s.View = model.ViewSuccess
	s.IsForeign = t == model.MemberForeign
	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	u.log.Info().Str("session_id", s.ID).Str("member_type", string(t)).Msg("registration flow completed")
	return s, nil
}

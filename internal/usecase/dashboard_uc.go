package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/repository"
	"membership-portal/internal/infra/i18n"
)

var _ DashboardUseCase = (*dashboardUC)(nil)

// Activity is one row of the dashboard's recent-activity list. The data is
// mocked; there is no member account system behind the portal yet.
type Activity struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

// MemberCard is the digital card widget state. Ready flips once the card
// generation window has elapsed since the dashboard was first opened.
type MemberCard struct {
	Ready    bool   `json:"ready"`
	MemberID string `json:"member_id"`
	Message  string `json:"message"`
}

// CardNotification is the one-shot toast announcing the finished card.
type CardNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type DashboardOverview struct {
	Profile      model.Profile     `json:"profile"`
	Status       string            `json:"status"`
	ExpiresAt    string            `json:"expires_at"`
	Activities   []Activity        `json:"activities"`
	Card         MemberCard        `json:"card"`
	Notification *CardNotification `json:"notification,omitempty"`
}

// DashboardUseCase serves the mocked member area: overview, card readiness
// and the profile editor.
type DashboardUseCase interface {
	Overview(ctx context.Context, sessionID string) (*DashboardOverview, error)
	Profile(ctx context.Context, sessionID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, sessionID string, p model.Profile) (*model.Profile, error)
}

type dashboardUC struct {
	sessions       repository.SessionRepository
	cardReadyAfter time.Duration
	now            func() time.Time
	tr             *i18n.Translator
	log            *zerolog.Logger
}

func NewDashboardUseCase(sessions repository.SessionRepository, cardReadyAfter time.Duration, tr *i18n.Translator, logger *zerolog.Logger) *dashboardUC {
	return &dashboardUC{
		sessions:       sessions,
		cardReadyAfter: cardReadyAfter,
		now:            time.Now,
		tr:             tr,
		log:            logger,
	}
}

func (u *dashboardUC) Overview(ctx context.Context, sessionID string) (*DashboardOverview, error) {
	s, err := u.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := u.now()
	if s.DashboardOpenedAt == nil {
		// First visit starts the card-generation clock.
		opened := now
		s.DashboardOpenedAt = &opened
		if err := u.sessions.Save(ctx, s); err != nil {
			return nil, err
		}
	}

	ov := &DashboardOverview{
		Profile:   s.Profile,
		Status:    "active",
		ExpiresAt: now.AddDate(1, 0, 0).Format("2006-01-02"),
		Activities: []Activity{
			{Title: "Annual General Meeting 2026", Date: now.AddDate(0, 1, 0).Format("2006-01-02")},
			{Title: "Member Networking Night", Date: now.AddDate(0, 2, 0).Format("2006-01-02")},
		},
		Card: MemberCard{
			MemberID: s.Profile.MemberID,
			Message:  u.tr.T("dashboard.card_pending"),
		},
	}
	if now.Sub(*s.DashboardOpenedAt) >= u.cardReadyAfter {
		ov.Card.Ready = true
		ov.Card.Message = u.tr.T("dashboard.card_ready.title")
		ov.Notification = &CardNotification{
			Title: u.tr.T("dashboard.card_ready.title"),
			Body:  u.tr.T("dashboard.card_ready.body"),
		}
	}
	return ov, nil
}

func (u *dashboardUC) Profile(ctx context.Context, sessionID string) (*model.Profile, error) {
	s, err := u.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p := s.Profile
	return &p, nil
}

func (u *dashboardUC) UpdateProfile(ctx context.Context, sessionID string, p model.Profile) (*model.Profile, error) {
	s, err := u.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// The member ID is assigned, never edited.
	p.MemberID = s.Profile.MemberID
	s.Profile = p
	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	u.log.Info().Str("session_id", s.ID).Msg("profile updated")
	out := s.Profile
	return &out, nil
}

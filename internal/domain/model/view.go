package model

import (
	"time"

	"github.com/google/uuid"
)

// ViewState enumerates the portal screens. Exactly one is active per session;
// any view may transition to any other (linear wizard, no transition table).
type ViewState string

const (
	ViewLanding           ViewState = "LANDING"
	ViewRegisterLocal     ViewState = "REGISTER_LOCAL"
	ViewRegisterLocalStud ViewState = "REGISTER_LOCAL_STUDENT"
	ViewRegisterForeign   ViewState = "REGISTER_FOREIGN"
	ViewRegisterCorporate ViewState = "REGISTER_CORPORATE"
	ViewDashboard         ViewState = "DASHBOARD"
	ViewSuccess           ViewState = "SUCCESS"
	ViewEditProfile       ViewState = "EDIT_PROFILE"
)

func (v ViewState) Valid() bool {
	switch v {
	case ViewLanding, ViewRegisterLocal, ViewRegisterLocalStud, ViewRegisterForeign,
		ViewRegisterCorporate, ViewDashboard, ViewSuccess, ViewEditProfile:
		return true
	}
	return false
}

// Profile is the mocked post-login profile backing the dashboard and the
// profile editor. There is no real account store behind it.
type Profile struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Workplace string `json:"workplace"`
	Address   string `json:"address"`
	MemberID  string `json:"member_id"`
}

// PortalSession carries the single active view plus the minimal cross-screen
// payload the Success screen needs (whether the completed flow was foreign).
type PortalSession struct {
	ID        string    `json:"id"`
	View      ViewState `json:"view"`
	IsForeign bool      `json:"is_foreign"`
	Profile   Profile   `json:"profile"`
	// DashboardOpenedAt is set the first time the dashboard view is served;
	// the digital member card reads "ready" once enough time has elapsed.
	DashboardOpenedAt *time.Time `json:"dashboard_opened_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func NewPortalSession() *PortalSession {
	return &PortalSession{
		ID:   uuid.NewString(),
		View: ViewLanding,
		Profile: Profile{
			FullName: "John Doe",
			Email:    "john.doe@example.com",
			MemberID: "883-9921-00",
		},
		CreatedAt: time.Now(),
	}
}

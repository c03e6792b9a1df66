package model

import "time"

// SubmissionStatus distinguishes the three ways a registration POST can end.
// The old client equated transport failure with success; here a failure is
// reported as pending so the caller can show "submitted, awaiting
// confirmation" instead of a false success.
type SubmissionStatus string

const (
	// SubmissionConfirmed: the backend acknowledged the registration (2xx).
	SubmissionConfirmed SubmissionStatus = "confirmed"
	// SubmissionPending: the request never got a definitive answer
	// (connection error). The flow still proceeds to the success screen.
	SubmissionPending SubmissionStatus = "pending"
	// SubmissionRejected: the backend answered with an explicit error.
	SubmissionRejected SubmissionStatus = "rejected"
)

// SubmissionResult is what one submit attempt produced. Reference is a member
// reference code minted on confirmed submissions.
type SubmissionResult struct {
	Status     SubmissionStatus `json:"status"`
	MemberType MemberType       `json:"member_type"`
	Reference  string           `json:"reference,omitempty"`
	HTTPStatus int              `json:"http_status,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// Succeeded reports whether the result may drive the success view.
func (r *SubmissionResult) Succeeded() bool {
	return r != nil && (r.Status == SubmissionConfirmed || r.Status == SubmissionPending)
}

// AttemptKind classifies journal entries.
type AttemptKind string

const (
	AttemptAvailabilityCheck AttemptKind = "availability_check"
	AttemptSubmission        AttemptKind = "submission"
)

// Attempt is one journaled interaction with the upstream membership API, kept
// for operational visibility (the UI never blocks on it).
type Attempt struct {
	ID         string
	DraftID    string
	MemberType MemberType
	Kind       AttemptKind
	Field      string
	Outcome    string
	HTTPStatus int
	Detail     string
	CreatedAt  time.Time
}

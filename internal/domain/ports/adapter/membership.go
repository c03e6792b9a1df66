package adapter

import (
	"context"

	"membership-portal/internal/domain/model"
)

// AvailabilityReason explains a non-definitive or negative check result.
type AvailabilityReason string

const (
	ReasonNone            AvailabilityReason = ""
	ReasonInvalidFormat   AvailabilityReason = "invalid_format"
	ReasonTaken           AvailabilityReason = "taken"
	ReasonConnectionError AvailabilityReason = "connection_error"
)

// AvailabilityResult is the classified answer of one remote lookup. On
// connection errors Available is true (fail-open) and Reason reports the
// failure so callers can log it without blocking the user.
type AvailabilityResult struct {
	Available bool
	Reason    AvailabilityReason
	Message   string
}

// MemberDirectory checks whether a candidate value is already registered.
// Stateless request/response; safe for concurrent use.
type MemberDirectory interface {
	CheckAvailability(ctx context.Context, kind model.FieldKind, value string) AvailabilityResult
}

// FormField is one key/value pair of the outgoing registration body. Order is
// preserved so multipart bodies match what the backend expects.
type FormField struct {
	Key   string
	Value string
}

// RegistrationPayload is the fully assembled request for one member type.
// When File is non-nil the transport sends multipart form data, otherwise a
// flat body (JSON for the foreign flow, urlencoded elsewhere).
type RegistrationPayload struct {
	MemberType model.MemberType
	Fields     []FormField
	FileField  string
	File       *model.FileAttachment
	AsJSON     bool
}

// MemberRegistrar posts an assembled registration to the membership backend.
// The returned result is always non-nil on nil error: transport failures are
// classified as pending, explicit backend errors as rejected.
type MemberRegistrar interface {
	Submit(ctx context.Context, p RegistrationPayload) (*model.SubmissionResult, error)
}

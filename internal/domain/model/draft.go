package model

import (
	"time"

	"membership-portal/internal/domain"

	"github.com/google/uuid"
)

// FieldStatus tracks a remote-checked field through its lifecycle. It is
// reset to FieldIdle whenever the underlying value changes, so a previously
// confirmed value can never carry stale approval.
type FieldStatus string

const (
	FieldIdle          FieldStatus = "idle"
	FieldChecking      FieldStatus = "checking"
	FieldAvailable     FieldStatus = "available"
	FieldTaken         FieldStatus = "taken"
	FieldInvalidFormat FieldStatus = "invalid_format"
	FieldConnError     FieldStatus = "connection_error"
)

// CheckedField is the per-field validation state for email/phone/tax-id
// inputs. Seq is bumped on every value change; a check result whose seq no
// longer matches is stale and must be dropped.
type CheckedField struct {
	Kind    FieldKind   `json:"kind"`
	Status  FieldStatus `json:"status"`
	Seq     uint64      `json:"seq"`
	Message string      `json:"message,omitempty"`
}

// Valid reports whether the field may gate step advancement or submission.
// Only a confirmed-available value passes, plus the deliberate fail-open case
// where the lookup endpoint was unreachable.
func (f *CheckedField) Valid() bool {
	if f == nil {
		return false
	}
	return f.Status == FieldAvailable || f.Status == FieldConnError
}

// FileAttachment holds an uploaded file for the draft's lifetime. Data is
// kept with the draft; drafts are TTL'd so abandoned uploads age out.
type FileAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"data"`
}

// RegistrationDraft is the in-progress state of one registration flow. It is
// owned by exactly one flow instance and mutated on every field change; it is
// never shared across member types.
type RegistrationDraft struct {
	ID         string                     `json:"id"`
	Type       MemberType                 `json:"type"`
	Step       int                        `json:"step"`
	Values     map[string]string          `json:"values"`
	Checks     map[string]*CheckedField   `json:"checks"`
	Files      map[string]*FileAttachment `json:"files"`
	Submitting bool                       `json:"submitting"`
	Submitted  bool                       `json:"submitted"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

// NewRegistrationDraft opens a draft at step 1 with the flow's checked fields
// pre-registered in idle state.
func NewRegistrationDraft(t MemberType, checked map[string]FieldKind) (*RegistrationDraft, error) {
	if !t.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	d := &RegistrationDraft{
		ID:        uuid.NewString(),
		Type:      t,
		Step:      1,
		Values:    map[string]string{},
		Checks:    map[string]*CheckedField{},
		Files:     map[string]*FileAttachment{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for name, kind := range checked {
		d.Checks[name] = &CheckedField{Kind: kind, Status: FieldIdle}
	}
	return d, nil
}

// SetValue stores a field value. For checked fields it also forces the status
// back to idle and bumps the sequence so any in-flight check result for the
// previous value is discarded on arrival.
func (d *RegistrationDraft) SetValue(name, value string) {
	d.Values[name] = value
	if cf, ok := d.Checks[name]; ok {
		cf.Status = FieldIdle
		cf.Message = ""
		cf.Seq++
	}
	d.UpdatedAt = time.Now()
}

// Value returns the stored value for a field, "" when unset.
func (d *RegistrationDraft) Value(name string) string { return d.Values[name] }

// ConsentGiven reports the pdpa checkbox, stored as "1"/"0".
func (d *RegistrationDraft) ConsentGiven(field string) bool { return d.Values[field] == "1" }

func (d *RegistrationDraft) Touch() { d.UpdatedAt = time.Now() }

package usecase

import (
	"context"

	"membership-portal/internal/domain"
	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/adapter"
	"membership-portal/internal/domain/ports/repository"
	"membership-portal/internal/infra/i18n"
	"membership-portal/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ FieldUseCase = (*fieldUC)(nil)

// FieldUseCase is the remote-checked field workflow shared by email, phone
// and tax-id inputs. One implementation, parameterized by the field's kind;
// the three field types differ only in checker endpoint and message text.
type FieldUseCase interface {
	// ChangeField stores a new value. For checked fields the status drops
	// back to idle and the previous value's pending check (if any) is
	// invalidated.
	ChangeField(ctx context.Context, draftID, field, value string) (*model.RegistrationDraft, error)
	// BlurField runs the availability workflow for a checked field: local
	// format check, then the remote lookup, then available/taken. A stale
	// result (the value changed while the lookup ran) is discarded.
	BlurField(ctx context.Context, draftID, field string) (*model.CheckedField, error)
}

type fieldUC struct {
	drafts    repository.DraftRepository
	directory adapter.MemberDirectory
	attempts  repository.AttemptRepository
	trTH      *i18n.Translator
	trEN      *i18n.Translator
	log       *zerolog.Logger
}

func NewFieldUseCase(
	drafts repository.DraftRepository,
	directory adapter.MemberDirectory,
	attempts repository.AttemptRepository,
	trTH, trEN *i18n.Translator,
	logger *zerolog.Logger,
) *fieldUC {
	return &fieldUC{
		drafts:    drafts,
		directory: directory,
		attempts:  attempts,
		trTH:      trTH,
		trEN:      trEN,
		log:       logger,
	}
}

func (u *fieldUC) tr(t model.MemberType) *i18n.Translator {
	if t == model.MemberForeign {
		return u.trEN
	}
	return u.trTH
}

func (u *fieldUC) ChangeField(ctx context.Context, draftID, field, value string) (*model.RegistrationDraft, error) {
	d, err := u.drafts.Find(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.Submitted {
		return nil, domain.ErrAlreadySubmitted
	}
	d.SetValue(field, value)
	if err := u.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (u *fieldUC) BlurField(ctx context.Context, draftID, field string) (*model.CheckedField, error) {
	defer logging.TraceDuration(u.log, "FieldUC.BlurField")()

	d, err := u.drafts.Find(ctx, draftID)
	if err != nil {
		return nil, err
	}
	cf, ok := d.Checks[field]
	if !ok {
		return nil, domain.ErrUnknownField
	}

	value := d.Value(field)
	if value == "" {
		// Empty required fields never pass; blur on empty just resets.
		cf.Status = model.FieldIdle
		cf.Message = ""
		d.Touch()
		if err := u.drafts.Save(ctx, d); err != nil {
			return nil, err
		}
		return cf, nil
	}

	seq := cf.Seq
	cf.Status = model.FieldChecking
	cf.Message = ""
	d.Touch()
	if err := u.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	res := u.directory.CheckAvailability(ctx, cf.Kind, value)

	// Reload: the value may have changed while the lookup was in flight.
	// A response for a superseded value must be dropped, never applied.
	d, err = u.drafts.Find(ctx, draftID)
	if err != nil {
		return nil, err
	}
	cf, ok = d.Checks[field]
	if !ok {
		return nil, domain.ErrUnknownField
	}
	if cf.Seq != seq || d.Value(field) != value {
		u.log.Debug().Str("field", field).Msg("discarding stale availability result")
		return cf, nil
	}

	applyAvailability(cf, res, u.tr(d.Type))
	if cf.Status == model.FieldConnError {
		// Fail open: the user may proceed, but the miss is journaled for
		// operational visibility.
		u.journalConnError(ctx, d, field)
	}
	d.Touch()
	if err := u.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return cf, nil
}

func (u *fieldUC) journalConnError(ctx context.Context, d *model.RegistrationDraft, field string) {
	if u.attempts == nil {
		return
	}
	a := &model.Attempt{
		DraftID:    d.ID,
		MemberType: d.Type,
		Kind:       model.AttemptAvailabilityCheck,
		Field:      field,
		Outcome:    "connection_error",
	}
	if err := u.attempts.Record(ctx, repository.NoTX, a); err != nil {
		u.log.Warn().Err(err).Msg("failed to journal availability connection error")
	}
}

// applyAvailability maps a classified lookup result onto the field's state
// with the flow language's message text.
func applyAvailability(cf *model.CheckedField, res adapter.AvailabilityResult, tr *i18n.Translator) {
	switch {
	case res.Reason == adapter.ReasonInvalidFormat:
		cf.Status = model.FieldInvalidFormat
		cf.Message = tr.T("field.invalid_format")
	case res.Reason == adapter.ReasonConnectionError:
		cf.Status = model.FieldConnError
		cf.Message = tr.T("field.connection_error")
	case res.Available:
		cf.Status = model.FieldAvailable
		cf.Message = tr.T(availableKey(cf.Kind))
	default:
		cf.Status = model.FieldTaken
		cf.Message = tr.T(takenKey(cf.Kind))
	}
}

func availableKey(k model.FieldKind) string {
	switch k {
	case model.KindEmail:
		return "field.email.available"
	case model.KindPhone:
		return "field.phone.available"
	default:
		return "field.taxid.available"
	}
}

func takenKey(k model.FieldKind) string {
	switch k {
	case model.KindEmail:
		return "field.email.taken"
	case model.KindPhone:
		return "field.phone.taken"
	default:
		return "field.taxid.taken"
	}
}

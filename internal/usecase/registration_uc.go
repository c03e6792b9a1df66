package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"membership-portal/internal/domain"
	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/adapter"
	"membership-portal/internal/domain/ports/repository"
	"membership-portal/internal/infra/i18n"
	"membership-portal/internal/infra/logging"
	"membership-portal/internal/infra/metrics"
)

var _ RegistrationUseCase = (*registrationUC)(nil)

// RegistrationUseCase drives the three two-step registration flows. Step 1
// collects identity/contact data, step 2 affiliation and account data; every
// gate failure is returned as a *GateError with a localized message, first
// failing rule wins.
type RegistrationUseCase interface {
	Open(ctx context.Context, t model.MemberType, student bool) (*model.RegistrationDraft, error)
	Get(ctx context.Context, draftID string) (*model.RegistrationDraft, error)
	AttachFile(ctx context.Context, draftID, field, name, contentType string, data []byte) (*model.RegistrationDraft, error)
	Advance(ctx context.Context, draftID string) (*model.RegistrationDraft, error)
	Back(ctx context.Context, draftID string) (*model.RegistrationDraft, error)
	Submit(ctx context.Context, draftID string) (*model.SubmissionResult, error)
}

type registrationUC struct {
	drafts    repository.DraftRepository
	directory adapter.MemberDirectory
	registrar adapter.MemberRegistrar
	attempts  repository.AttemptRepository
	tm        repository.TransactionManager
	locks     repository.Locker
	trTH      *i18n.Translator
	trEN      *i18n.Translator
	log       *zerolog.Logger
}

func NewRegistrationUseCase(
	drafts repository.DraftRepository,
	directory adapter.MemberDirectory,
	registrar adapter.MemberRegistrar,
	attempts repository.AttemptRepository,
	tm repository.TransactionManager,
	locks repository.Locker,
	trTH, trEN *i18n.Translator,
	logger *zerolog.Logger,
) *registrationUC {
	return &registrationUC{
		drafts:    drafts,
		directory: directory,
		registrar: registrar,
		attempts:  attempts,
		tm:        tm,
		locks:     locks,
		trTH:      trTH,
		trEN:      trEN,
		log:       logger,
	}
}

const submitLockTTL = time.Minute

func submitLockKey(draftID string) string { return "submit_lock:" + draftID }

func (u *registrationUC) tr(t model.MemberType) *i18n.Translator {
	if t == model.MemberForeign {
		return u.trEN
	}
	return u.trTH
}

func (u *registrationUC) Open(ctx context.Context, t model.MemberType, student bool) (*model.RegistrationDraft, error) {
	spec, ok := flowFor(t)
	if !ok {
		return nil, domain.ErrInvalidArgument
	}
	d, err := model.NewRegistrationDraft(t, spec.Checked)
	if err != nil {
		return nil, err
	}
	if t == model.MemberLocal {
		status := model.EducationProfessional
		if student {
			status = model.EducationStudent
		}
		d.SetValue("education_status", status)
	}
	if err := u.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (u *registrationUC) Get(ctx context.Context, draftID string) (*model.RegistrationDraft, error) {
	return u.drafts.Find(ctx, draftID)
}

func (u *registrationUC) AttachFile(ctx context.Context, draftID, field, name, contentType string, data []byte) (*model.RegistrationDraft, error) {
	d, err := u.drafts.Find(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.Submitted {
		return nil, domain.ErrAlreadySubmitted
	}
	spec, _ := flowFor(d.Type)
	if spec.FileField == "" || field != spec.FileField {
		return nil, domain.ErrUnknownField
	}
	tr := u.tr(d.Type)
	if int64(len(data)) > model.MaxAttachmentBytes {
		// An oversized pick also clears any previously accepted file so a
		// stale attachment cannot ride along on submit.
		delete(d.Files, field)
		d.Touch()
		if err := u.drafts.Save(ctx, d); err != nil {
			return nil, err
		}
		metrics.IncStepBlock(string(d.Type), "file_too_large")
		return nil, &GateError{Gate: "file_too_large", Message: tr.T("error.file_too_large")}
	}
	// Drafts stored before the file slot was first used come back with a nil
	// map from the JSON round trip.
	if d.Files == nil {
		d.Files = map[string]*model.FileAttachment{}
	}
	d.Files[field] = &model.FileAttachment{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
	d.Touch()
	if err := u.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (u *registrationUC) Advance(ctx context.Context, draftID string) (*model.RegistrationDraft, error) {
	d, err := u.drafts.Find(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.Submitted {
		return nil, domain.ErrAlreadySubmitted
	}
	spec, _ := flowFor(d.Type)
	tr := u.tr(d.Type)
	if d.Step != 1 {
		return d, nil
	}
	if err := u.gateRules(d, spec.Step1, tr); err != nil {
		return nil, err
	}
	if d.Type == model.MemberCorporate {
		if err := gateBusinessType(d, tr); err != nil {
			metrics.IncStepBlock(string(d.Type), err.(*GateError).Gate)
			return nil, err
		}
	}
	for _, f := range spec.Step1Checked {
		if err := u.gateChecked(ctx, d, f, tr); err != nil {
			return nil, err
		}
	}
	d.Step = 2
	d.Touch()
	if err := u.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (u *registrationUC) Back(ctx context.Context, draftID string) (*model.RegistrationDraft, error) {
	d, err := u.drafts.Find(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.Step > 1 {
		// Entered data survives; only the step pointer moves.
		d.Step--
		d.Touch()
		if err := u.drafts.Save(ctx, d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (u *registrationUC) Submit(ctx context.Context, draftID string) (*model.SubmissionResult, error) {
	defer logging.TraceDuration(u.log, "RegistrationUC.Submit")()

	// The Submitting flag alone is a read-check-save over Redis; two racing
	// submits could both observe it clear. The distributed lock serializes
	// the whole section per draft.
	if u.locks != nil {
		token, err := u.locks.TryLock(ctx, submitLockKey(draftID), submitLockTTL)
		if err != nil {
			return nil, domain.ErrSubmitInFlight
		}
		defer func() {
			if err := u.locks.Unlock(ctx, submitLockKey(draftID), token); err != nil {
				u.log.Warn().Err(err).Str("draft_id", draftID).Msg("failed to release submit lock")
			}
		}()
	}

	d, err := u.drafts.Find(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.Submitted {
		return nil, domain.ErrAlreadySubmitted
	}
	if d.Submitting {
		return nil, domain.ErrSubmitInFlight
	}
	spec, _ := flowFor(d.Type)
	tr := u.tr(d.Type)

	if d.Step != 2 {
		metrics.IncStepBlock(string(d.Type), "step")
		return nil, &GateError{Gate: "step", Message: tr.T("error.step")}
	}
	if err := u.gateRules(d, spec.step2Required(d), tr); err != nil {
		return nil, err
	}
	for _, name := range spec.AllChecked {
		if err := u.gateChecked(ctx, d, name, tr); err != nil {
			return nil, err
		}
	}
	if err := u.gateFile(d, spec, tr); err != nil {
		return nil, err
	}
	if err := u.gateAccount(d, spec, tr); err != nil {
		return nil, err
	}

	// Lock the draft before the upstream call so a double click cannot fire
	// two registrations.
	d.Submitting = true
	d.Touch()
	if err := u.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	payload := adapter.RegistrationPayload{
		MemberType: d.Type,
		Fields:     spec.payloadFields(d),
		AsJSON:     spec.AsJSON,
	}
	if spec.FileField != "" {
		if f := d.Files[spec.FileField]; f != nil {
			renamed := *f
			renamed.Name = attachmentName(spec.registrantLabel(d), spec.affiliationLabel(d), f.Name)
			payload.FileField = spec.FileField
			payload.File = &renamed
		}
	}

	metrics.SubmissionStarted()
	result, err := u.registrar.Submit(ctx, payload)
	metrics.SubmissionFinished()
	if err != nil {
		d.Submitting = false
		d.Touch()
		if saveErr := u.drafts.Save(ctx, d); saveErr != nil {
			u.log.Error().Err(saveErr).Msg("failed to unlock draft after submit error")
		}
		return nil, err
	}

	switch result.Status {
	case model.SubmissionConfirmed:
		result.Reference = ulid.Make().String()
		result.Message = tr.T("submit.confirmed")
		d.Submitted = true
		d.Submitting = false
	case model.SubmissionPending:
		// No definitive upstream answer. The flow still completes; the
		// journal row is what operations follow up on.
		result.Message = tr.T("submit.pending")
		d.Submitted = true
		d.Submitting = false
	default:
		if result.Message != "" {
			result.Message = tr.T("error.rejected") + ": " + result.Message
		} else {
			result.Message = tr.T("error.rejected")
		}
		d.Submitting = false
	}
	d.Touch()
	if err := u.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	metrics.IncSubmission(string(d.Type), string(result.Status))
	u.journalSubmission(ctx, d, result)
	logging.With(logging.WithDraftID(ctx, d.ID), u.log).Info().
		Str("member_type", string(d.Type)).
		Str("result", string(result.Status)).
		Int("http_status", result.HTTPStatus).
		Msg("registration submitted")
	return result, nil
}

func (u *registrationUC) gateRules(d *model.RegistrationDraft, rules []fieldRule, tr *i18n.Translator) error {
	for _, r := range rules {
		v := strings.TrimSpace(d.Value(r.Key))
		if v == "" {
			metrics.IncStepBlock(string(d.Type), "required")
			return &GateError{Gate: "required:" + r.Key, Message: tr.T("error.required", r.Key)}
		}
		if r.Digits && (!allDigits(v) || (r.DigitLen > 0 && len(v) != r.DigitLen)) {
			metrics.IncStepBlock(string(d.Type), "digits")
			return &GateError{Gate: "digits:" + r.Key, Message: tr.T(digitsErrKey(r.Key))}
		}
	}
	return nil
}

// gateChecked enforces a remote-checked field. A field still idle (the user
// never blurred it) gets a synchronous lookup here so advancing does not slip
// past an unchecked value.
func (u *registrationUC) gateChecked(ctx context.Context, d *model.RegistrationDraft, field string, tr *i18n.Translator) error {
	cf, ok := d.Checks[field]
	if !ok {
		return domain.ErrUnknownField
	}
	v := d.Value(field)
	if v == "" {
		metrics.IncStepBlock(string(d.Type), "required")
		return &GateError{Gate: "required:" + field, Message: tr.T("error.required", field)}
	}
	if cf.Status == model.FieldIdle || cf.Status == model.FieldChecking {
		applyAvailability(cf, u.directory.CheckAvailability(ctx, cf.Kind, v), tr)
		if cf.Status == model.FieldConnError {
			// Same fail-open as the blur path, same journal entry.
			u.journalConnError(ctx, d, field)
		}
		d.Touch()
		if err := u.drafts.Save(ctx, d); err != nil {
			return err
		}
	}
	switch cf.Status {
	case model.FieldTaken:
		metrics.IncStepBlock(string(d.Type), "taken")
		return &GateError{Gate: "taken:" + field, Message: tr.T(takenErrKey(cf.Kind))}
	case model.FieldInvalidFormat:
		metrics.IncStepBlock(string(d.Type), "format")
		return &GateError{Gate: "format:" + field, Message: tr.T("field.invalid_format")}
	}
	return nil
}

func (u *registrationUC) gateFile(d *model.RegistrationDraft, spec *flowSpec, tr *i18n.Translator) error {
	if spec.FileField == "" {
		return nil
	}
	f := d.Files[spec.FileField]
	if f == nil {
		if spec.FileRequired != nil && spec.FileRequired(d) {
			metrics.IncStepBlock(string(d.Type), "file_required")
			return &GateError{Gate: "file_required", Message: tr.T("error.file_required")}
		}
		return nil
	}
	if f.Size > model.MaxAttachmentBytes {
		metrics.IncStepBlock(string(d.Type), "file_too_large")
		return &GateError{Gate: "file_too_large", Message: tr.T("error.file_too_large")}
	}
	return nil
}

func (u *registrationUC) gateAccount(d *model.RegistrationDraft, spec *flowSpec, tr *i18n.Translator) error {
	pw := d.Value(spec.PasswordField)
	if len(pw) < model.MinPasswordLength {
		metrics.IncStepBlock(string(d.Type), "password_short")
		return &GateError{Gate: "password_short", Message: tr.T("error.password_short")}
	}
	if spec.ConfirmField != "" && d.Value(spec.ConfirmField) != pw {
		metrics.IncStepBlock(string(d.Type), "password_mismatch")
		return &GateError{Gate: "password_mismatch", Message: tr.T("error.password_mismatch")}
	}
	if !model.ValidSecurityQuestion(d.Value(spec.QuestionField)) || strings.TrimSpace(d.Value(spec.AnswerField)) == "" {
		metrics.IncStepBlock(string(d.Type), "security_question")
		return &GateError{Gate: "security_question", Message: tr.T("error.security_question")}
	}
	// Consent is only meaningful against a readable policy text; without one
	// the box must not be acceptable.
	if tr.Policy() == "" {
		metrics.IncStepBlock(string(d.Type), "policy_unavailable")
		return &GateError{Gate: "policy_unavailable", Message: tr.T("error.consent_unavailable")}
	}
	if !d.ConsentGiven(spec.ConsentField) {
		metrics.IncStepBlock(string(d.Type), "consent")
		return &GateError{Gate: "consent", Message: tr.T("error.consent_required")}
	}
	return nil
}

func gateBusinessType(d *model.RegistrationDraft, tr *i18n.Translator) error {
	bt := d.Value("business-type")
	if !model.ValidBusinessType(bt) {
		return &GateError{Gate: "business_type", Message: tr.T("error.business_type")}
	}
	if bt == model.BusinessTypeOther && strings.TrimSpace(d.Value("business-type-other")) == "" {
		return &GateError{Gate: "business_type_other", Message: tr.T("error.business_type_other")}
	}
	return nil
}

func (u *registrationUC) journalConnError(ctx context.Context, d *model.RegistrationDraft, field string) {
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

func (u *registrationUC) journalSubmission(ctx context.Context, d *model.RegistrationDraft, res *model.SubmissionResult) {
	if u.attempts == nil {
		return
	}
	record := func(ctx context.Context, tx repository.Tx) error {
		return u.attempts.Record(ctx, tx, &model.Attempt{
			DraftID:    d.ID,
			MemberType: d.Type,
			Kind:       model.AttemptSubmission,
			Outcome:    string(res.Status),
			HTTPStatus: res.HTTPStatus,
			Detail:     res.Message,
		})
	}
	var err error
	if u.tm != nil {
		err = u.tm.WithTx(ctx, pgx.TxOptions{}, record)
	} else {
		err = record(ctx, repository.NoTX)
	}
	if err != nil {
		u.log.Warn().Err(err).Str("draft_id", d.ID).Msg("failed to journal submission")
	}
}

func digitsErrKey(field string) string {
	switch {
	case strings.Contains(field, "phone"):
		return "error.phone_digits"
	case strings.Contains(field, "tax"):
		return "error.taxid_digits"
	default:
		return "error.national_id_digits"
	}
}

func takenErrKey(k model.FieldKind) string {
	switch k {
	case model.KindEmail:
		return "error.email_taken"
	case model.KindPhone:
		return "error.phone_taken"
	default:
		return "error.taxid_taken"
	}
}

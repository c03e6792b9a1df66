package usecase

import (
	"regexp"
	"strings"

	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/adapter"
)

// GateError reports which gating rule blocked a step advance or a submission.
// Message is already localized for the flow's language.
type GateError struct {
	Gate    string
	Message string
}

func (e *GateError) Error() string { return e.Message }

// fieldRule is one required input of a step. Digits-only rules reject any
// non-digit character; DigitLen additionally pins the exact length.
type fieldRule struct {
	Key      string
	Digits   bool
	DigitLen int
}

// flowSpec describes one member type's form: which fields exist on which
// step, which of them are remote-checked, and how the outgoing payload is
// assembled. The three flows share every mechanism and differ only in data.
type flowSpec struct {
	MemberType model.MemberType

	// Checked maps field name to its lookup kind. All checked fields are
	// pre-registered on the draft in idle state.
	Checked map[string]model.FieldKind

	// Step1 lists step-1 required fields in display order. Step1Checked
	// names the checked fields that must pass before advancing; AllChecked
	// is the full ordered list re-verified at submit.
	Step1        []fieldRule
	Step1Checked []string
	AllChecked   []string

	PasswordField string
	ConfirmField  string // must match the password; never transmitted
	QuestionField string
	AnswerField   string
	ConsentField  string

	// FileField is the upload slot ("" when the flow never uploads). The
	// student ID card is only required when the local flow is in student
	// mode, hence the predicate.
	FileField    string
	FileRequired func(d *model.RegistrationDraft) bool

	AsJSON bool
}

// step2Required returns the step-2 required fields, which for the local flow
// depend on the education toggle.
func (s *flowSpec) step2Required(d *model.RegistrationDraft) []fieldRule {
	switch s.MemberType {
	case model.MemberLocal:
		if d.Value("education_status") == model.EducationStudent {
			return []fieldRule{
				{Key: "institution"}, {Key: "faculty"}, {Key: "major"},
				{Key: "degree"}, {Key: "year_of_entry"}, {Key: "student_id"},
			}
		}
		return []fieldRule{
			{Key: "workplace_name"}, {Key: "position"},
			{Key: "job_nature"}, {Key: "work_address"},
		}
	case model.MemberForeign:
		return []fieldRule{
			{Key: "workplace-name"}, {Key: "job-position"},
			{Key: "nature-of-work"}, {Key: "work-address"},
		}
	default: // corporate
		return []fieldRule{
			{Key: "representative-name"}, {Key: "national-id", Digits: true, DigitLen: 13},
			{Key: "representative-phone", Digits: true}, {Key: "representative-email"},
			{Key: "representative-address"},
		}
	}
}

var localFlow = flowSpec{
	MemberType: model.MemberLocal,
	Checked: map[string]model.FieldKind{
		"phone": model.KindPhone,
		"email": model.KindEmail,
	},
	Step1: []fieldRule{
		{Key: "name_surname"},
		{Key: "national_id", Digits: true, DigitLen: 13},
		{Key: "nationality"},
		{Key: "date_of_birth"},
		{Key: "gender"},
		{Key: "phone", Digits: true},
		{Key: "email"},
		{Key: "address"},
	},
	Step1Checked:  []string{"phone", "email"},
	AllChecked:    []string{"phone", "email"},
	PasswordField: "password",
	ConfirmField:  "confirm_password",
	QuestionField: "security_question",
	AnswerField:   "security_answer",
	ConsentField:  "pdpa_consent",
	FileField:     "student_id_card",
	FileRequired: func(d *model.RegistrationDraft) bool {
		return d.Value("education_status") == model.EducationStudent
	},
}

var foreignFlow = flowSpec{
	MemberType: model.MemberForeign,
	Checked: map[string]model.FieldKind{
		"phone-number": model.KindPhone,
		"email":        model.KindEmail,
	},
	Step1: []fieldRule{
		{Key: "full-name"},
		{Key: "passport-number"},
		{Key: "nationality"},
		{Key: "date-of-birth"},
		{Key: "gender"},
		{Key: "phone-number", Digits: true},
		{Key: "email"},
		{Key: "residential-address"},
	},
	Step1Checked:  []string{"phone-number", "email"},
	AllChecked:    []string{"phone-number", "email"},
	PasswordField: "password",
	ConfirmField:  "confirm-password",
	QuestionField: "security-question",
	AnswerField:   "security-answer",
	ConsentField:  "pdpa-consent",
	AsJSON:        true,
}

var corporateFlow = flowSpec{
	MemberType: model.MemberCorporate,
	Checked: map[string]model.FieldKind{
		"tax-id":               model.KindTaxID,
		"corporate-email":      model.KindEmail,
		"representative-phone": model.KindPhone,
		"representative-email": model.KindEmail,
	},
	Step1: []fieldRule{
		{Key: "organization-name"},
		{Key: "tax-id", Digits: true, DigitLen: 13},
		{Key: "business-type"},
		{Key: "corporate-email"},
		{Key: "corporate-address"},
	},
	Step1Checked:  []string{"tax-id", "corporate-email"},
	AllChecked:    []string{"tax-id", "corporate-email", "representative-phone", "representative-email"},
	PasswordField: "password",
	ConfirmField:  "confirm-password",
	QuestionField: "security-question",
	AnswerField:   "security-answer",
	ConsentField:  "pdpa-consent",
	FileField:     "company-certificate",
	FileRequired:  func(*model.RegistrationDraft) bool { return true },
}

func flowFor(t model.MemberType) (*flowSpec, bool) {
	switch t {
	case model.MemberLocal:
		return &localFlow, true
	case model.MemberForeign:
		return &foreignFlow, true
	case model.MemberCorporate:
		return &corporateFlow, true
	}
	return nil, false
}

// payloadFields assembles the outgoing key/value pairs in transmission order.
// The backend expects the full per-type key list, empty strings for inputs the
// registrant never saw (the inactive education branch). The consent value goes
// out under "pdpa-consent" regardless of how the flow stores it, and the
// corporate "other" choice is replaced by its freeform description.
func (s *flowSpec) payloadFields(d *model.RegistrationDraft) []adapter.FormField {
	var keys []string
	switch s.MemberType {
	case model.MemberLocal:
		keys = []string{
			"name_surname", "national_id", "nationality", "date_of_birth",
			"gender", "phone", "email", "address", "education_status",
			"workplace_name", "position", "job_nature", "work_address",
			"degree", "faculty", "major", "year_of_entry", "institution",
			"student_id", "security_question", "security_answer", "password",
		}
	case model.MemberForeign:
		keys = []string{
			"full-name", "passport-number", "nationality", "date-of-birth",
			"gender", "phone-number", "email", "residential-address",
			"workplace-name", "job-position", "nature-of-work", "work-address",
			"password", "confirm-password", "security-question", "security-answer",
		}
	default: // corporate
		keys = []string{
			"organization-name", "tax-id", "business-type", "business-scope",
			"corporate-email", "corporate-address",
			"representative-name", "national-id", "representative-phone",
			"representative-email", "representative-address",
			"security-question", "security-answer", "password",
		}
	}

	out := make([]adapter.FormField, 0, len(keys)+1)
	for _, k := range keys {
		v := d.Value(k)
		if k == "business-type" && v == model.BusinessTypeOther {
			v = d.Value("business-type-other")
		}
		out = append(out, adapter.FormField{Key: k, Value: v})
	}
	consent := "0"
	if d.ConsentGiven(s.ConsentField) {
		consent = "1"
	}
	return append(out, adapter.FormField{Key: "pdpa-consent", Value: consent})
}

// registrantLabel and affiliationLabel feed the attachment rename so upstream
// staff can tell files apart without opening them.
func (s *flowSpec) registrantLabel(d *model.RegistrationDraft) string {
	if s.MemberType == model.MemberCorporate {
		return d.Value("organization-name")
	}
	return d.Value("name_surname")
}

func (s *flowSpec) affiliationLabel(d *model.RegistrationDraft) string {
	if s.MemberType == model.MemberCorporate {
		return d.Value("representative-name")
	}
	if d.Value("education_status") == model.EducationStudent {
		return d.Value("institution")
	}
	return d.Value("workplace_name")
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}.\-]+`)

// attachmentName builds "<registrant>_<affiliation>_<original>" with
// filesystem-hostile characters collapsed to dashes.
func attachmentName(registrant, affiliation, original string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{registrant, affiliation, original} {
		p = unsafeFileChars.ReplaceAllString(strings.TrimSpace(p), "-")
		p = strings.Trim(p, "-")
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_")
}

var digitsRE = regexp.MustCompile(`^[0-9]+$`)

func allDigits(v string) bool { return digitsRE.MatchString(v) }

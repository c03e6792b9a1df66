package model

// MemberType selects one of the three registration flows. The string values
// are part of the portal API surface, the upstream endpoint is derived from
// them.
type MemberType string

const (
	MemberLocal     MemberType = "local"
	MemberForeign   MemberType = "foreign"
	MemberCorporate MemberType = "corporate"
)

func (t MemberType) Valid() bool {
	switch t {
	case MemberLocal, MemberForeign, MemberCorporate:
		return true
	}
	return false
}

// FieldKind identifies which remote lookup a checked field maps to.
type FieldKind string

const (
	KindEmail FieldKind = "email"
	KindPhone FieldKind = "phone"
	KindTaxID FieldKind = "tax-id"
)

// SecurityQuestions is the fixed list the account section offers. Answers are
// freeform; the chosen key must be one of these.
var SecurityQuestions = []string{
	"province_of_birth",
	"high_school_name",
	"mother_nickname",
	"first_pet_name",
}

func ValidSecurityQuestion(q string) bool {
	for _, s := range SecurityQuestions {
		if s == q {
			return true
		}
	}
	return false
}

// Corporate business types. The values are the upstream backend's literals;
// BusinessTypeOther is a sentinel: choosing it reveals a freeform field whose
// value replaces the sentinel in the submitted payload.
const BusinessTypeOther = "อื่นๆ"

var BusinessTypes = []string{
	"รัฐวิสาหกิจ/ราชการ",
	"บริษัทจำกัด",
	"ห้างหุ้นส่วน",
	BusinessTypeOther,
}

func ValidBusinessType(b string) bool {
	for _, s := range BusinessTypes {
		if s == b {
			return true
		}
	}
	return false
}

// Education status values for the local flow's conditional step-2 section.
const (
	EducationProfessional = "professional"
	EducationStudent      = "student"
)

// MinPasswordLength applies to every flow's account section.
const MinPasswordLength = 8

// MaxAttachmentBytes is the ceiling for uploaded files (student ID card,
// company certificate).
const MaxAttachmentBytes = 10 << 20

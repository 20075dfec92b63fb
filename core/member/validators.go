package member

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/kalimaclub/kalima/core"
)

var (
	clubRoleTag  = "club_role"
	clubRoleText = "invalid role"
)

func init() {
	_ = core.Validate.RegisterValidation(clubRoleTag, clubRoleValidation)
	core.RegisterCustomTranslation(clubRoleTag, clubRoleText)
}

// clubRoleValidation checks that the provided role is one of AllRoles.
func clubRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	sort.Strings(AllRoles)
	if i := sort.SearchStrings(AllRoles, role); i < len(AllRoles) {
		return AllRoles[i] == role
	}
	return false
}

// NewProfile defines what information must be provided at signup. ID is the
// subject assigned by the identity provider; a fresh one is generated when absent.
type NewProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,club_role"`
}

func (np *NewProfile) Validate() error {
	np.Name = core.CleanString(np.Name)
	np.Email = core.CleanString(np.Email, true /* lower */)
	if np.Role == "" {
		np.Role = RoleStudent
	}
	return core.Validate.Struct(np)
}

// NewPayment defines the details of a membership fee payment.
type NewPayment struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod   string  `json:"payment_method" validate:"required"`
	ReferenceNumber string  `json:"reference_number"`
	Name            string  `json:"name"`
	Email           string  `json:"email" validate:"omitempty,email"`
	PhoneNumber     string  `json:"phone_number"`
}

func (np *NewPayment) Validate() error {
	np.Name = core.CleanString(np.Name)
	np.Email = core.CleanString(np.Email, true /* lower */)
	return core.Validate.Struct(np)
}

// NewGrade defines a tutor-authored assessment grade. Grade is a pointer so a
// legitimate 0 still satisfies "required".
type NewGrade struct {
	StudentID      string   `json:"student_id" validate:"required"`
	AssessmentType string   `json:"assessment_type" validate:"required"`
	Grade          *float64 `json:"grade" validate:"required,gte=0,lte=100"`
	Level          int      `json:"level" validate:"required,gte=1,lte=5"`
	GradedBy       string   `json:"graded_by" validate:"required"`
}

func (ng *NewGrade) Validate() error {
	ng.AssessmentType = core.CleanString(ng.AssessmentType)
	return core.Validate.Struct(ng)
}

// LevelUpDecision is a tutor's semester-end promotion decision. Approved is a
// pointer so an explicit "false" still satisfies "required".
type LevelUpDecision struct {
	Approved   *bool  `json:"approved" validate:"required"`
	TutorNotes string `json:"tutor_notes"`
}

func (ld *LevelUpDecision) Validate() error {
	ld.TutorNotes = core.CleanString(ld.TutorNotes)
	return core.Validate.Struct(ld)
}

// ClassAssignment attaches a class and the level it teaches to a tutor.
type ClassAssignment struct {
	ClassName string `json:"class_name" validate:"required"`
	Level     int    `json:"level" validate:"required,gte=1,lte=5"`
}

func (ca *ClassAssignment) Validate() error {
	ca.ClassName = core.CleanString(ca.ClassName)
	return core.Validate.Struct(ca)
}

// RoleUpdate changes a member's role (admin only).
type RoleUpdate struct {
	Role string `json:"role" validate:"required,club_role"`
}

func (ru *RoleUpdate) Validate() error {
	ru.Role = core.CleanString(ru.Role, true /* lower */)
	return core.Validate.Struct(ru)
}

// MemberVerification is an admin's approve/reject decision on a tutor or
// committee account.
type MemberVerification struct {
	Approved *bool `json:"approved" validate:"required"`
}

func (mv *MemberVerification) Validate() error {
	return core.Validate.Struct(mv)
}

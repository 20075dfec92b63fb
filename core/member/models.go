package member

import (
	"fmt"
	"time"
)

// Roles
const (
	RoleStudent   = "student"
	RoleTutor     = "tutor"
	RoleCommittee = "committee"
	RoleAdmin     = "admin"
)

// Verification statuses
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Membership levels and progression rules.
const (
	MinLevel = 1
	MaxLevel = 5

	// PassMark is the grade required to pass an assessment.
	PassMark = 60

	// MembershipTermMonths is how long a single payment keeps a membership active (1 semester).
	MembershipTermMonths = 4
)

// PaymentCompleted is the status stamped on every recorded payment.
const PaymentCompleted = "completed"

var (
	AllRoles = []string{RoleStudent, RoleTutor, RoleCommittee, RoleAdmin}

	rolePriorities = map[string]int{
		RoleAdmin:     30,
		RoleCommittee: 20,
		RoleTutor:     10,
		RoleStudent:   1,
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

// Profile is a club member's record. MembershipLevel only ever changes through
// the level-up verification workflow; payments touch the expiry/active flags only.
type Profile struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	MembershipLevel    int       `json:"membership_level"`
	MembershipExpiry   time.Time `json:"membership_expiry"` // UTC; zero when never paid
	MembershipActive   bool      `json:"membership_active"`
	Verified           bool      `json:"verified"`
	VerificationStatus string    `json:"verification_status"`
	AssignedClass      string    `json:"assigned_class,omitempty"` // tutors only
	AssignedLevel      int       `json:"assigned_level,omitempty"` // tutors only
	CreatedAt          time.Time `json:"created_at"`               // UTC
	UpdatedAt          time.Time `json:"updated_at"`               // UTC
}

func (p Profile) IsStudent() bool   { return p.Role == RoleStudent }
func (p Profile) IsTutor() bool     { return p.Role == RoleTutor }
func (p Profile) IsCommittee() bool { return p.Role == RoleCommittee }
func (p Profile) IsAdmin() bool     { return p.Role == RoleAdmin }

// CurrentLevel defaults a missing level to MinLevel; legacy profiles were
// created before levels existed.
func (p Profile) CurrentLevel() int {
	if p.MembershipLevel < MinLevel {
		return MinLevel
	}
	return p.MembershipLevel
}

// Payment is an append-only ledger entry. Level is the member's level at the
// time of payment; paying never increments it.
type Payment struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Amount          float64   `json:"amount"`
	Level           int       `json:"level"`
	PaymentMethod   string    `json:"payment_method"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	Name            string    `json:"name,omitempty"`
	Email           string    `json:"email,omitempty"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	Status          string    `json:"status"`
	PaidAt          time.Time `json:"paid_at"` // UTC
}

// Grade is an append-only ledger entry authored by a tutor. Recording a grade
// never promotes the student; promotion is a separate manual verification.
type Grade struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	AssessmentType string    `json:"assessment_type"`
	Grade          float64   `json:"grade"` // 0-100
	Level          int       `json:"level"`
	GradedBy       string    `json:"graded_by"`
	GradedAt       time.Time `json:"graded_at"` // UTC
}

func (g Grade) Passed() bool { return g.Grade >= PassMark }

// Certificate is awarded exactly once per successful promotion, for the level
// being left.
type Certificate struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	Level       int       `json:"level"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AwardedAt   time.Time `json:"awarded_at"` // UTC
}

// LevelVerification is the audit record of a tutor's promotion decision,
// approved or not.
type LevelVerification struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	FromLevel  int       `json:"from_level"`
	ToLevel    int       `json:"to_level"`
	Approved   bool      `json:"approved"`
	TutorID    string    `json:"tutor_id"`
	TutorNotes string    `json:"tutor_notes,omitempty"`
	VerifiedAt time.Time `json:"verified_at"` // UTC
}

// GradeStats is a read-side projection over the grade ledger for one
// student+level pair.
type GradeStats struct {
	Average  float64 `json:"average"`
	PassRate float64 `json:"pass_rate"` // percentage of grades >= PassMark
	Count    int     `json:"count"`
}

// Stats feeds the admin dashboard alongside event.Stats.
type Stats struct {
	TotalUsers    int `json:"total_users"`
	TotalStudents int `json:"total_students"`
}

// ClassInfo is a read-side projection of a tutor's class assignment.
type ClassInfo struct {
	TutorID   string `json:"tutor_id"`
	TutorName string `json:"tutor_name"`
	ClassName string `json:"class_name"`
	Level     int    `json:"level"`
}

// VerificationResult is the outcome of a level-up verification call.
// Promoted=false with a nil error is a defined business outcome (rejection or
// already at max level), not a failure.
type VerificationResult struct {
	Promoted bool   `json:"promoted"`
	NewLevel int    `json:"new_level"`
	Message  string `json:"message"`
}

func certificateTitle(level int) string {
	return fmt.Sprintf("Level %d Certification", level)
}

func certificateDescription(level int) string {
	return fmt.Sprintf("Successfully completed Level %d - Verified by tutor", level)
}

package member

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/kalimaclub/kalima/core"
)

var (
	// errors
	ErrNotFound    = errors.New("member profile not found")
	ErrEmailExists = errors.New("a member with this email already exists")
	ErrNotTutor    = errors.New("member is not a tutor")
)

type (
	// QueryFilter applies AND operation on available fields.
	QueryFilter struct {
		Roles    []string
		Verified *bool
	}

	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded []Profile, exec ...core.DBExecutor) error
		CreateProfile(ctx context.Context, prf Profile, exec ...core.DBExecutor) (Profile, error)
		GetProfile(ctx context.Context, id string, exec ...core.DBExecutor) (Profile, error)
		GetProfileByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Profile, error)
		QueryAllProfiles(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Profile, error)
		FilterProfiles(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Profile, error)
		CountProfiles(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) (int, error)
		UpdateProfile(ctx context.Context, prf Profile, exec ...core.DBExecutor) (Profile, error)
		DeleteProfilesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error

		AppendPayment(ctx context.Context, pmt Payment, exec ...core.DBExecutor) (Payment, error)
		ListPayments(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Payment, error)

		AppendGrade(ctx context.Context, grd Grade, exec ...core.DBExecutor) (Grade, error)
		// ListGrades filters the grade ledger by student; level 0 means all levels.
		ListGrades(ctx context.Context, studentID string, level int, exec ...core.DBExecutor) ([]Grade, error)

		AppendCertificate(ctx context.Context, cert Certificate, exec ...core.DBExecutor) (Certificate, error)
		ListCertificates(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]Certificate, error)

		AppendLevelVerification(ctx context.Context, lv LevelVerification, exec ...core.DBExecutor) (LevelVerification, error)
		ListLevelVerifications(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]LevelVerification, error)
	}

	Service struct {
		db      core.DB // nil when the repository is not SQL-backed
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService) *Service {
	return &Service{db: db, repo: repo, mailSvc: mailSvc}
}

// withTx runs fn within a single DB transaction so an operation's writes are
// all-or-nothing. Repositories without transaction support run fn bare.
func (svc *Service) withTx(ctx context.Context, fn func(exec ...core.DBExecutor) error) error {
	if svc.db == nil {
		return fn()
	}
	var tx core.DBTransactor
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return pkgerrors.Wrap(tx.Commit(), "committing transaction")
}

func (svc *Service) Create(ctx context.Context, np NewProfile) (Profile, error) {
	if err := svc.repo.CheckEmailUniqueness(ctx, np.Email, nil); err != nil {
		if err == ErrEmailExists {
			return Profile{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return Profile{}, err
	}

	now := time.Now().UTC()
	prf := Profile{
		ID:              np.ID, // identity provider subject; repos mint one when empty
		Name:            np.Name,
		Email:           np.Email,
		Role:            np.Role,
		MembershipLevel: MinLevel,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	// tutor/committee accounts need admin verification before they can operate
	switch prf.Role {
	case RoleTutor, RoleCommittee:
		prf.Verified = false
		prf.VerificationStatus = VerificationPending
	default:
		prf.Verified = true
		prf.VerificationStatus = VerificationApproved
	}
	return svc.repo.CreateProfile(ctx, prf)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfile(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Profile, error) {
	return svc.repo.GetProfileByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) QueryAll(ctx context.Context, ordering ...core.DBOrdering) ([]Profile, error) {
	return svc.repo.QueryAllProfiles(ctx, ordering)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Profile, error) {
	return svc.repo.FilterProfiles(ctx, filter)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteProfilesByID(ctx, ids)
}

// RecordPayment appends a payment to the ledger and activates the membership
// for MembershipTermMonths from now. The payment carries the member's level at
// the time of payment; paying never changes the level. Each call appends a new
// ledger entry and pushes the expiry forward from its own "now".
func (svc *Service) RecordPayment(ctx context.Context, userID string, np NewPayment) (Payment, error) {
	var pmt Payment
	var prf Profile
	err := svc.withTx(ctx, func(exec ...core.DBExecutor) error {
		var err error
		prf, err = svc.repo.GetProfile(ctx, userID, exec...)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		currentLevel := prf.CurrentLevel()

		pmt = Payment{
			UserID:          userID,
			Amount:          np.Amount,
			Level:           currentLevel, // level at time of payment, never incremented
			PaymentMethod:   np.PaymentMethod,
			ReferenceNumber: np.ReferenceNumber,
			Name:            np.Name,
			Email:           np.Email,
			PhoneNumber:     np.PhoneNumber,
			Status:          PaymentCompleted,
			PaidAt:          now,
		}
		if pmt, err = svc.repo.AppendPayment(ctx, pmt, exec...); err != nil {
			return err
		}

		prf.MembershipLevel = currentLevel
		prf.MembershipActive = true
		prf.MembershipExpiry = now.AddDate(0, MembershipTermMonths, 0)
		prf.UpdatedAt = now
		prf, err = svc.repo.UpdateProfile(ctx, prf, exec...)
		return err
	})
	if err != nil {
		return Payment{}, err
	}

	svc.sendMail(prf, "Payment received",
		fmt.Sprintf(
			"Hi %s,\n\nWe received your payment of %.2f (%s).\nYour Level %d membership is active until %s.\n\nSee you in class!",
			prf.Name, pmt.Amount, pmt.PaymentMethod, pmt.Level, prf.MembershipExpiry.Format("2 January 2006"),
		),
	)
	return pmt, nil
}

func (svc *Service) Payments(ctx context.Context, userID string) ([]Payment, error) {
	return svc.repo.ListPayments(ctx, userID)
}

// RecordGrade appends a tutor-authored grade to the ledger. It never mutates
// the student's profile; level progression is a separate manual verification.
func (svc *Service) RecordGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	if err := ng.Validate(); err != nil {
		return Grade{}, err
	}
	if _, err := svc.repo.GetProfile(ctx, ng.StudentID); err != nil {
		return Grade{}, err
	}
	grd := Grade{
		StudentID:      ng.StudentID,
		AssessmentType: ng.AssessmentType,
		Grade:          *ng.Grade,
		Level:          ng.Level,
		GradedBy:       ng.GradedBy,
		GradedAt:       time.Now().UTC(),
	}
	return svc.repo.AppendGrade(ctx, grd)
}

func (svc *Service) Grades(ctx context.Context, studentID string, level ...int) ([]Grade, error) {
	var lvl int
	if len(level) > 0 {
		lvl = level[0]
	}
	return svc.repo.ListGrades(ctx, studentID, lvl)
}

// GradeStats projects the grade ledger for one student+level pair. An empty
// ledger yields zero values across the board.
func (svc *Service) GradeStats(ctx context.Context, studentID string, level int) (GradeStats, error) {
	grades, err := svc.repo.ListGrades(ctx, studentID, level)
	if err != nil {
		return GradeStats{}, err
	}
	if len(grades) == 0 {
		return GradeStats{}, nil
	}

	var sum float64
	var passed int
	for _, g := range grades {
		sum += g.Grade
		if g.Passed() {
			passed++
		}
	}
	return GradeStats{
		Average:  sum / float64(len(grades)),
		PassRate: float64(passed) / float64(len(grades)) * 100,
		Count:    len(grades),
	}, nil
}

// VerifyLevelUp records a tutor's semester-end promotion decision. This is the
// only path by which MembershipLevel advances; it is decoupled from payments
// and from any single grade.
//
// approved && level < MaxLevel : promote, award a certificate for the level
// being left and append an approved verification record.
// approved && level == MaxLevel: no writes; business-outcome failure result.
// !approved                    : append a rejected verification record only.
func (svc *Service) VerifyLevelUp(ctx context.Context, studentID, tutorID string, approved bool, notes string) (VerificationResult, error) {
	var res VerificationResult
	var prf Profile
	err := svc.withTx(ctx, func(exec ...core.DBExecutor) error {
		var err error
		prf, err = svc.repo.GetProfile(ctx, studentID, exec...)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		currentLevel := prf.CurrentLevel()

		if !approved {
			lv := LevelVerification{
				StudentID:  studentID,
				FromLevel:  currentLevel,
				ToLevel:    currentLevel,
				Approved:   false,
				TutorID:    tutorID,
				TutorNotes: notes,
				VerifiedAt: now,
			}
			if _, err = svc.repo.AppendLevelVerification(ctx, lv, exec...); err != nil {
				return err
			}
			res = VerificationResult{NewLevel: currentLevel, Message: "student remains at current level"}
			return nil
		}

		if currentLevel >= MaxLevel {
			res = VerificationResult{NewLevel: currentLevel, Message: "student is already at maximum level"}
			return nil
		}

		newLevel := currentLevel + 1
		prf.MembershipLevel = newLevel
		prf.UpdatedAt = now
		if prf, err = svc.repo.UpdateProfile(ctx, prf, exec...); err != nil {
			return err
		}

		cert := Certificate{
			StudentID:   studentID,
			Level:       currentLevel, // the level just completed
			Title:       certificateTitle(currentLevel),
			Description: certificateDescription(currentLevel),
			AwardedAt:   now,
		}
		if _, err = svc.repo.AppendCertificate(ctx, cert, exec...); err != nil {
			return err
		}

		lv := LevelVerification{
			StudentID:  studentID,
			FromLevel:  currentLevel,
			ToLevel:    newLevel,
			Approved:   true,
			TutorID:    tutorID,
			TutorNotes: notes,
			VerifiedAt: now,
		}
		if _, err = svc.repo.AppendLevelVerification(ctx, lv, exec...); err != nil {
			return err
		}
		res = VerificationResult{Promoted: true, NewLevel: newLevel, Message: fmt.Sprintf("student promoted to Level %d", newLevel)}
		return nil
	})
	if err != nil {
		return VerificationResult{}, err
	}

	if res.Promoted {
		svc.sendMail(prf, fmt.Sprintf("You reached Level %d!", res.NewLevel),
			fmt.Sprintf(
				"Hi %s,\n\nCongratulations! Your tutor verified your progress and you are now at Level %d.\nYour Level %d certificate is available in your profile.",
				prf.Name, res.NewLevel, res.NewLevel-1,
			),
		)
	}
	return res, nil
}

func (svc *Service) Certificates(ctx context.Context, studentID string) ([]Certificate, error) {
	return svc.repo.ListCertificates(ctx, studentID)
}

func (svc *Service) LevelVerifications(ctx context.Context, studentID string) ([]LevelVerification, error) {
	return svc.repo.ListLevelVerifications(ctx, studentID)
}

// VerifyMember is the admin approval/rejection of a tutor or committee account.
func (svc *Service) VerifyMember(ctx context.Context, userID string, approved bool) (Profile, error) {
	prf, err := svc.repo.GetProfile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	prf.Verified = approved
	if approved {
		prf.VerificationStatus = VerificationApproved
	} else {
		prf.VerificationStatus = VerificationRejected
	}
	prf.UpdatedAt = time.Now().UTC()
	if prf, err = svc.repo.UpdateProfile(ctx, prf); err != nil {
		return Profile{}, err
	}

	subject, body := "Account rejected", fmt.Sprintf("Hi %s,\n\nYour %s account was not approved. Contact the club admins for details.", prf.Name, prf.Role)
	if approved {
		subject = "Account approved"
		body = fmt.Sprintf("Hi %s,\n\nYour %s account has been verified by an admin. You can now sign in and get started.", prf.Name, prf.Role)
	}
	svc.sendMail(prf, subject, body)
	return prf, nil
}

// PendingVerifications lists tutor/committee accounts awaiting admin review.
func (svc *Service) PendingVerifications(ctx context.Context) ([]Profile, error) {
	verified := false
	return svc.repo.FilterProfiles(ctx, QueryFilter{
		Roles:    []string{RoleTutor, RoleCommittee},
		Verified: &verified,
	})
}

func (svc *Service) UpdateRole(ctx context.Context, userID, role string) (Profile, error) {
	prf, err := svc.repo.GetProfile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	prf.Role = role
	prf.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfile(ctx, prf)
}

// AssignClass attaches a class (and the level it teaches) to a tutor's profile.
func (svc *Service) AssignClass(ctx context.Context, tutorID, className string, level int) (Profile, error) {
	prf, err := svc.repo.GetProfile(ctx, tutorID)
	if err != nil {
		return Profile{}, err
	}
	if !prf.IsTutor() {
		return Profile{}, ErrNotTutor
	}
	prf.AssignedClass = className
	prf.AssignedLevel = level
	prf.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfile(ctx, prf)
}

// Stats counts profiles for the admin dashboard.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	total, err := svc.repo.CountProfiles(ctx, QueryFilter{})
	if err != nil {
		return Stats{}, err
	}
	students, err := svc.repo.CountProfiles(ctx, QueryFilter{Roles: []string{RoleStudent}})
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalUsers: total, TotalStudents: students}, nil
}

// Classes projects the class catalog from tutor profiles. Tutors without an
// assignment are skipped; a missing level defaults to MinLevel.
func (svc *Service) Classes(ctx context.Context) ([]ClassInfo, error) {
	tutors, err := svc.repo.FilterProfiles(ctx, QueryFilter{Roles: []string{RoleTutor}})
	if err != nil {
		return nil, err
	}

	classes := make([]ClassInfo, 0, len(tutors))
	for _, prf := range tutors {
		if prf.AssignedClass == "" {
			continue
		}
		level := prf.AssignedLevel
		if level < MinLevel {
			level = MinLevel
		}
		classes = append(classes, ClassInfo{
			TutorID:   prf.ID,
			TutorName: prf.Name,
			ClassName: prf.AssignedClass,
			Level:     level,
		})
	}
	return classes, nil
}

func (svc *Service) sendMail(prf Profile, subject, body string) {
	if svc.mailSvc == nil || prf.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: prf.Name, Address: prf.Email}},
		Subject: subject,
		BodyStr: body,
	})
}

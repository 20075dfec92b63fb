package pgrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/member"
)

const profileColumns = `id, name, email, role, membership_level, membership_expiry, membership_active,
	verified, verification_status, assigned_class, assigned_level, created_at, updated_at`

type memberRepository struct {
	db *sqlx.DB
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db *sqlx.DB) *memberRepository {
	return &memberRepository{db: db}
}

func (repo memberRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(sc scanner) (member.Profile, error) {
	var prf member.Profile
	var expiry null.Time
	var class null.String
	var classLevel null.Int
	err := sc.Scan(
		&prf.ID,
		&prf.Name,
		&prf.Email,
		&prf.Role,
		&prf.MembershipLevel,
		&expiry,
		&prf.MembershipActive,
		&prf.Verified,
		&prf.VerificationStatus,
		&class,
		&classLevel,
		&prf.CreatedAt,
		&prf.UpdatedAt,
	)
	if err != nil {
		return member.Profile{}, err
	}
	prf.MembershipExpiry = expiry.Time
	prf.AssignedClass = class.String
	prf.AssignedLevel = classLevel.Int
	return prf, nil
}

// trapNoRowsErr maps psql "no rows" err to member.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return member.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo memberRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded []member.Profile, exec ...core.DBExecutor) error {
	query := `SELECT EXISTS (SELECT 1 FROM profile WHERE email = $1`
	args := []interface{}{email}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, prf := range excluded {
			ids = append(ids, prf.ID)
		}
		query += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}
	query += `)`

	var exists bool
	if err := repo.getExec(exec).QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return member.ErrEmailExists
	}
	return nil
}

func (repo memberRepository) CreateProfile(ctx context.Context, prf member.Profile, exec ...core.DBExecutor) (member.Profile, error) {
	if prf.ID == "" {
		prf.ID = uuid.New().String()
	}
	query := `
		INSERT INTO profile (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		prf.ID,
		prf.Name,
		prf.Email,
		prf.Role,
		prf.MembershipLevel,
		null.NewTime(prf.MembershipExpiry, !prf.MembershipExpiry.IsZero()),
		prf.MembershipActive,
		prf.Verified,
		prf.VerificationStatus,
		null.NewString(prf.AssignedClass, prf.AssignedClass != ""),
		null.NewInt(prf.AssignedLevel, prf.AssignedLevel != 0),
		prf.CreatedAt.UTC(),
		prf.UpdatedAt.UTC(),
	)
	if err != nil {
		return member.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return prf, nil
}

func (repo memberRepository) GetProfile(ctx context.Context, id string, exec ...core.DBExecutor) (member.Profile, error) {
	row := repo.getExec(exec).QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profile WHERE id = $1`, id)
	prf, err := scanProfile(row)
	if err != nil {
		return member.Profile{}, trapNoRowsErr(err, "getting profile")
	}
	return prf, nil
}

func (repo memberRepository) GetProfileByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (member.Profile, error) {
	row := repo.getExec(exec).QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profile WHERE email = $1`, email)
	prf, err := scanProfile(row)
	if err != nil {
		return member.Profile{}, trapNoRowsErr(err, "getting profile by email")
	}
	return prf, nil
}

// profileOrderColumns whitelists the columns client orderings may reference.
var profileOrderColumns = map[string]bool{
	"name":             true,
	"email":            true,
	"role":             true,
	"membership_level": true,
	"created_at":       true,
}

func (repo memberRepository) QueryAllProfiles(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]member.Profile, error) {
	orderBy := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if profileOrderColumns[ord.Field] {
			orderBy = append(orderBy, ord.String())
		}
	}
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "created_at DESC")
	}

	query := `SELECT ` + profileColumns + ` FROM profile ORDER BY ` + strings.Join(orderBy, ", ")
	rows, err := repo.getExec(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	return collectProfiles(rows)
}

func (repo memberRepository) FilterProfiles(ctx context.Context, filter member.QueryFilter, exec ...core.DBExecutor) ([]member.Profile, error) {
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if len(filter.Roles) > 0 {
		args = append(args, pq.Array(filter.Roles))
		conds = append(conds, `role = ANY($1)`)
	}
	if filter.Verified != nil {
		args = append(args, *filter.Verified)
		if len(args) > 1 {
			conds = append(conds, `verified = $2`)
		} else {
			conds = append(conds, `verified = $1`)
		}
	}

	query := `SELECT ` + profileColumns + ` FROM profile`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := repo.getExec(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "filtering profiles")
	}
	return collectProfiles(rows)
}

func (repo memberRepository) CountProfiles(ctx context.Context, filter member.QueryFilter, exec ...core.DBExecutor) (int, error) {
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if len(filter.Roles) > 0 {
		args = append(args, pq.Array(filter.Roles))
		conds = append(conds, `role = ANY($1)`)
	}
	if filter.Verified != nil {
		args = append(args, *filter.Verified)
		if len(args) > 1 {
			conds = append(conds, `verified = $2`)
		} else {
			conds = append(conds, `verified = $1`)
		}
	}

	query := `SELECT COUNT(*) FROM profile`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}

	var count int
	err := repo.getExec(exec).QueryRowContext(ctx, query, args...).Scan(&count)
	return count, errors.Wrap(err, "counting profiles")
}

func collectProfiles(rows *sql.Rows) ([]member.Profile, error) {
	defer func() { _ = rows.Close() }()

	profiles := make([]member.Profile, 0)
	for rows.Next() {
		prf, err := scanProfile(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning profile")
		}
		profiles = append(profiles, prf)
	}
	return profiles, errors.Wrap(rows.Err(), "iterating profiles")
}

func (repo memberRepository) UpdateProfile(ctx context.Context, prf member.Profile, exec ...core.DBExecutor) (member.Profile, error) {
	query := `
		UPDATE profile
		SET name = $2, email = $3, role = $4, membership_level = $5, membership_expiry = $6,
			membership_active = $7, verified = $8, verification_status = $9,
			assigned_class = $10, assigned_level = $11, updated_at = $12
		WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, query,
		prf.ID,
		prf.Name,
		prf.Email,
		prf.Role,
		prf.MembershipLevel,
		null.NewTime(prf.MembershipExpiry, !prf.MembershipExpiry.IsZero()),
		prf.MembershipActive,
		prf.Verified,
		prf.VerificationStatus,
		null.NewString(prf.AssignedClass, prf.AssignedClass != ""),
		null.NewInt(prf.AssignedLevel, prf.AssignedLevel != 0),
		prf.UpdatedAt.UTC(),
	)
	if err != nil {
		return member.Profile{}, errors.Wrap(err, "updating profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return member.Profile{}, member.ErrNotFound
	}
	return prf, nil
}

func (repo memberRepository) DeleteProfilesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM profile WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	query = repo.db.Rebind(query)
	_, err = repo.getExec(exec).ExecContext(ctx, query, args...)
	return errors.Wrap(err, "deleting profiles")
}

func (repo memberRepository) AppendPayment(ctx context.Context, pmt member.Payment, exec ...core.DBExecutor) (member.Payment, error) {
	pmt.ID = uuid.New().String()
	query := `
		INSERT INTO payment (id, user_id, amount, level, payment_method, reference_number, name, email, phone_number, status, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		pmt.ID,
		pmt.UserID,
		pmt.Amount,
		pmt.Level,
		pmt.PaymentMethod,
		null.NewString(pmt.ReferenceNumber, pmt.ReferenceNumber != ""),
		null.NewString(pmt.Name, pmt.Name != ""),
		null.NewString(pmt.Email, pmt.Email != ""),
		null.NewString(pmt.PhoneNumber, pmt.PhoneNumber != ""),
		pmt.Status,
		pmt.PaidAt.UTC(),
	)
	if err != nil {
		return member.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return pmt, nil
}

func (repo memberRepository) ListPayments(ctx context.Context, userID string, exec ...core.DBExecutor) ([]member.Payment, error) {
	query := `
		SELECT id, user_id, amount, level, payment_method, reference_number, name, email, phone_number, status, paid_at
		FROM payment WHERE user_id = $1 ORDER BY paid_at DESC`
	rows, err := repo.getExec(exec).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	defer func() { _ = rows.Close() }()

	payments := make([]member.Payment, 0)
	for rows.Next() {
		var pmt member.Payment
		var ref, name, email, phone null.String
		err = rows.Scan(&pmt.ID, &pmt.UserID, &pmt.Amount, &pmt.Level, &pmt.PaymentMethod, &ref, &name, &email, &phone, &pmt.Status, &pmt.PaidAt)
		if err != nil {
			return nil, errors.Wrap(err, "scanning payment")
		}
		pmt.ReferenceNumber = ref.String
		pmt.Name = name.String
		pmt.Email = email.String
		pmt.PhoneNumber = phone.String
		payments = append(payments, pmt)
	}
	return payments, errors.Wrap(rows.Err(), "iterating payments")
}

func (repo memberRepository) AppendGrade(ctx context.Context, grd member.Grade, exec ...core.DBExecutor) (member.Grade, error) {
	grd.ID = uuid.New().String()
	query := `
		INSERT INTO grade (id, student_id, assessment_type, grade, level, graded_by, graded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		grd.ID, grd.StudentID, grd.AssessmentType, grd.Grade, grd.Level, grd.GradedBy, grd.GradedAt.UTC())
	if err != nil {
		return member.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return grd, nil
}

func (repo memberRepository) ListGrades(ctx context.Context, studentID string, level int, exec ...core.DBExecutor) ([]member.Grade, error) {
	query := `
		SELECT id, student_id, assessment_type, grade, level, graded_by, graded_at
		FROM grade WHERE student_id = $1`
	args := []interface{}{studentID}
	if level != 0 {
		query += ` AND level = $2`
		args = append(args, level)
	}
	query += ` ORDER BY graded_at DESC`

	rows, err := repo.getExec(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	defer func() { _ = rows.Close() }()

	grades := make([]member.Grade, 0)
	for rows.Next() {
		var grd member.Grade
		if err = rows.Scan(&grd.ID, &grd.StudentID, &grd.AssessmentType, &grd.Grade, &grd.Level, &grd.GradedBy, &grd.GradedAt); err != nil {
			return nil, errors.Wrap(err, "scanning grade")
		}
		grades = append(grades, grd)
	}
	return grades, errors.Wrap(rows.Err(), "iterating grades")
}

func (repo memberRepository) AppendCertificate(ctx context.Context, cert member.Certificate, exec ...core.DBExecutor) (member.Certificate, error) {
	cert.ID = uuid.New().String()
	query := `
		INSERT INTO certificate (id, student_id, level, title, description, awarded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		cert.ID, cert.StudentID, cert.Level, cert.Title, cert.Description, cert.AwardedAt.UTC())
	if err != nil {
		return member.Certificate{}, errors.Wrap(err, "inserting certificate")
	}
	return cert, nil
}

func (repo memberRepository) ListCertificates(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]member.Certificate, error) {
	query := `
		SELECT id, student_id, level, title, description, awarded_at
		FROM certificate WHERE student_id = $1 ORDER BY awarded_at DESC`
	rows, err := repo.getExec(exec).QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying certificates")
	}
	defer func() { _ = rows.Close() }()

	certs := make([]member.Certificate, 0)
	for rows.Next() {
		var cert member.Certificate
		if err = rows.Scan(&cert.ID, &cert.StudentID, &cert.Level, &cert.Title, &cert.Description, &cert.AwardedAt); err != nil {
			return nil, errors.Wrap(err, "scanning certificate")
		}
		certs = append(certs, cert)
	}
	return certs, errors.Wrap(rows.Err(), "iterating certificates")
}

func (repo memberRepository) AppendLevelVerification(ctx context.Context, lv member.LevelVerification, exec ...core.DBExecutor) (member.LevelVerification, error) {
	lv.ID = uuid.New().String()
	query := `
		INSERT INTO level_verification (id, student_id, from_level, to_level, approved, tutor_id, tutor_notes, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		lv.ID,
		lv.StudentID,
		lv.FromLevel,
		lv.ToLevel,
		lv.Approved,
		lv.TutorID,
		null.NewString(lv.TutorNotes, lv.TutorNotes != ""),
		lv.VerifiedAt.UTC(),
	)
	if err != nil {
		return member.LevelVerification{}, errors.Wrap(err, "inserting level verification")
	}
	return lv, nil
}

func (repo memberRepository) ListLevelVerifications(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]member.LevelVerification, error) {
	query := `
		SELECT id, student_id, from_level, to_level, approved, tutor_id, tutor_notes, verified_at
		FROM level_verification WHERE student_id = $1 ORDER BY verified_at DESC`
	rows, err := repo.getExec(exec).QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying level verifications")
	}
	defer func() { _ = rows.Close() }()

	lvs := make([]member.LevelVerification, 0)
	for rows.Next() {
		var lv member.LevelVerification
		var notes null.String
		if err = rows.Scan(&lv.ID, &lv.StudentID, &lv.FromLevel, &lv.ToLevel, &lv.Approved, &lv.TutorID, &notes, &lv.VerifiedAt); err != nil {
			return nil, errors.Wrap(err, "scanning level verification")
		}
		lv.TutorNotes = notes.String
		lvs = append(lvs, lv)
	}
	return lvs, errors.Wrap(rows.Err(), "iterating level verifications")
}

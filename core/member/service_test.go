package member_test

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/member"
	emailsvc "github.com/kalimaclub/kalima/services/email"
	inmemdb "github.com/kalimaclub/kalima/storage/database/inmem"
)

func setup(t *testing.T) *member.Service {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	conf := &core.Config{
		TestMode:         true,
		AppName:          "Kalima",
		DefaultFromEmail: mail.Address{Name: "Kalima", Address: "noreply@localhost"},
	}
	return member.NewService(nil, inmemdb.NewMemberRepository(db), emailsvc.NewConsoleServiceMock(conf))
}

func createMember(t *testing.T, svc *member.Service, name, email, role string) member.Profile {
	t.Helper()
	prf, err := svc.Create(context.Background(), member.NewProfile{Name: name, Email: email, Role: role})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	return prf
}

func recordPayment(t *testing.T, svc *member.Service, userID string) member.Payment {
	t.Helper()
	pmt, err := svc.RecordPayment(context.Background(), userID, member.NewPayment{Amount: 50, PaymentMethod: "mpesa"})
	if err != nil {
		t.Fatalf("RecordPayment(): %v", err)
	}
	return pmt
}

func approveLevelUp(t *testing.T, svc *member.Service, studentID, tutorID string) member.VerificationResult {
	t.Helper()
	res, err := svc.VerifyLevelUp(context.Background(), studentID, tutorID, true, "")
	if err != nil {
		t.Fatalf("VerifyLevelUp(): %v", err)
	}
	return res
}

func TestService_Create(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	t.Run("student is verified on signup", func(t *testing.T) {
		prf := createMember(t, svc, "Awa Traore", "awa@test.cd", "")
		assert.Equal(t, member.RoleStudent, prf.Role)
		assert.Equal(t, member.MinLevel, prf.MembershipLevel)
		assert.False(t, prf.MembershipActive)
		assert.True(t, prf.Verified)
		assert.Equal(t, member.VerificationApproved, prf.VerificationStatus)
		assert.NotEmpty(t, prf.ID)
	})

	t.Run("tutor awaits admin verification", func(t *testing.T) {
		prf := createMember(t, svc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)
		assert.False(t, prf.Verified)
		assert.Equal(t, member.VerificationPending, prf.VerificationStatus)
	})

	t.Run("committee awaits admin verification", func(t *testing.T) {
		prf := createMember(t, svc, "Nadia Yusuf", "nadia@test.cd", member.RoleCommittee)
		assert.False(t, prf.Verified)
		assert.Equal(t, member.VerificationPending, prf.VerificationStatus)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, member.NewProfile{Name: "Awa Again", Email: "awa@test.cd"})
		assert.Error(t, err)
		vErr, ok := err.(*core.ValidationError)
		if assert.True(t, ok) {
			assert.Equal(t, "email", vErr.Fields[0].Field)
		}
	})
}

func TestService_RecordPayment(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	prf := createMember(t, svc, "Awa Traore", "awa@test.cd", "")

	t.Run("unknown member", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, "nope", member.NewPayment{Amount: 50, PaymentMethod: "mpesa"})
		assert.Equal(t, member.ErrNotFound, err)
	})

	t.Run("payment activates membership without touching the level", func(t *testing.T) {
		pmt := recordPayment(t, svc, prf.ID)
		assert.Equal(t, member.MinLevel, pmt.Level)
		assert.Equal(t, "completed", pmt.Status)

		refreshed, err := svc.GetByID(ctx, prf.ID)
		assert.NoError(t, err)
		assert.Equal(t, member.MinLevel, refreshed.MembershipLevel)
		assert.True(t, refreshed.MembershipActive)

		wantExpiry := time.Now().UTC().AddDate(0, member.MembershipTermMonths, 0)
		assert.WithinDuration(t, wantExpiry, refreshed.MembershipExpiry, time.Minute)
	})

	t.Run("each payment appends a ledger entry and pushes the expiry forward", func(t *testing.T) {
		before, err := svc.GetByID(ctx, prf.ID)
		assert.NoError(t, err)

		recordPayment(t, svc, prf.ID)
		payments, err := svc.Payments(ctx, prf.ID)
		assert.NoError(t, err)
		assert.Len(t, payments, 2)

		after, err := svc.GetByID(ctx, prf.ID)
		assert.NoError(t, err)
		assert.True(t, after.MembershipExpiry.After(before.MembershipExpiry))
	})

	t.Run("payment after promotion carries the new level", func(t *testing.T) {
		tutor := createMember(t, svc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)
		approveLevelUp(t, svc, prf.ID, tutor.ID)

		pmt := recordPayment(t, svc, prf.ID)
		assert.Equal(t, 2, pmt.Level)

		refreshed, _ := svc.GetByID(ctx, prf.ID)
		assert.Equal(t, 2, refreshed.MembershipLevel) // still 2; paying never increments
	})
}

func TestService_RecordGrade(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	student := createMember(t, svc, "Awa Traore", "awa@test.cd", "")
	tutor := createMember(t, svc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)

	newGrade := func(grade float64, level int) member.NewGrade {
		return member.NewGrade{
			StudentID:      student.ID,
			AssessmentType: "quiz",
			Grade:          &grade,
			Level:          level,
			GradedBy:       tutor.ID,
		}
	}

	t.Run("unknown student", func(t *testing.T) {
		ng := newGrade(80, 1)
		ng.StudentID = "nope"
		_, err := svc.RecordGrade(ctx, ng)
		assert.Equal(t, member.ErrNotFound, err)
	})

	t.Run("missing grade value is a validation error", func(t *testing.T) {
		ng := newGrade(0, 1)
		ng.Grade = nil
		_, err := svc.RecordGrade(ctx, ng)
		assert.Error(t, err)
		_, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
	})

	t.Run("grades never change the profile", func(t *testing.T) {
		grd, err := svc.RecordGrade(ctx, newGrade(95, 1))
		assert.NoError(t, err)
		assert.Equal(t, 95.0, grd.Grade)

		refreshed, _ := svc.GetByID(ctx, student.ID)
		assert.Equal(t, member.MinLevel, refreshed.MembershipLevel)
	})

	t.Run("grades filter by level", func(t *testing.T) {
		_, err := svc.RecordGrade(ctx, newGrade(40, 2))
		assert.NoError(t, err)

		all, err := svc.Grades(ctx, student.ID)
		assert.NoError(t, err)
		assert.Len(t, all, 2)

		lvl2, err := svc.Grades(ctx, student.ID, 2)
		assert.NoError(t, err)
		assert.Len(t, lvl2, 1)
		assert.Equal(t, 40.0, lvl2[0].Grade)
	})
}

func TestService_GradeStats(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	student := createMember(t, svc, "Awa Traore", "awa@test.cd", "")
	tutor := createMember(t, svc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)

	record := func(grade float64) {
		t.Helper()
		_, err := svc.RecordGrade(ctx, member.NewGrade{
			StudentID:      student.ID,
			AssessmentType: "quiz",
			Grade:          &grade,
			Level:          1,
			GradedBy:       tutor.ID,
		})
		if err != nil {
			t.Fatalf("RecordGrade(): %v", err)
		}
	}

	t.Run("empty ledger yields zero values", func(t *testing.T) {
		stats, err := svc.GradeStats(ctx, student.ID, 1)
		assert.NoError(t, err)
		assert.Equal(t, member.GradeStats{}, stats)
	})

	t.Run("mean and pass rate", func(t *testing.T) {
		record(80)
		record(60) // pass mark is inclusive
		record(40)

		stats, err := svc.GradeStats(ctx, student.ID, 1)
		assert.NoError(t, err)
		assert.Equal(t, 3, stats.Count)
		assert.InDelta(t, 60.0, stats.Average, 0.001)
		assert.InDelta(t, 100.0*2/3, stats.PassRate, 0.001)
	})
}

func TestService_VerifyLevelUp(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	tutor := createMember(t, svc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.VerifyLevelUp(ctx, "nope", tutor.ID, true, "")
		assert.Equal(t, member.ErrNotFound, err)
	})

	t.Run("rejection only appends an audit record", func(t *testing.T) {
		student := createMember(t, svc, "Awa Traore", "awa@test.cd", "")

		res, err := svc.VerifyLevelUp(ctx, student.ID, tutor.ID, false, "needs another semester")
		assert.NoError(t, err)
		assert.False(t, res.Promoted)
		assert.Equal(t, member.MinLevel, res.NewLevel)

		refreshed, _ := svc.GetByID(ctx, student.ID)
		assert.Equal(t, member.MinLevel, refreshed.MembershipLevel)

		certs, _ := svc.Certificates(ctx, student.ID)
		assert.Empty(t, certs)

		lvs, _ := svc.LevelVerifications(ctx, student.ID)
		if assert.Len(t, lvs, 1) {
			assert.False(t, lvs[0].Approved)
			assert.Equal(t, lvs[0].FromLevel, lvs[0].ToLevel)
			assert.Equal(t, "needs another semester", lvs[0].TutorNotes)
		}
	})

	t.Run("approval promotes and awards a certificate for the level left", func(t *testing.T) {
		student := createMember(t, svc, "Binta Diallo", "binta@test.cd", "")

		res := approveLevelUp(t, svc, student.ID, tutor.ID)
		assert.True(t, res.Promoted)
		assert.Equal(t, 2, res.NewLevel)

		refreshed, _ := svc.GetByID(ctx, student.ID)
		assert.Equal(t, 2, refreshed.MembershipLevel)

		certs, _ := svc.Certificates(ctx, student.ID)
		if assert.Len(t, certs, 1) {
			assert.Equal(t, 1, certs[0].Level)
			assert.Equal(t, "Level 1 Certification", certs[0].Title)
		}

		lvs, _ := svc.LevelVerifications(ctx, student.ID)
		if assert.Len(t, lvs, 1) {
			assert.True(t, lvs[0].Approved)
			assert.Equal(t, 1, lvs[0].FromLevel)
			assert.Equal(t, 2, lvs[0].ToLevel)
			assert.Equal(t, tutor.ID, lvs[0].TutorID)
		}
	})

	t.Run("approval at max level writes nothing", func(t *testing.T) {
		student := createMember(t, svc, "Cheikh Ba", "cheikh@test.cd", "")

		// climb to the top
		for lvl := member.MinLevel; lvl < member.MaxLevel; lvl++ {
			res := approveLevelUp(t, svc, student.ID, tutor.ID)
			assert.Equal(t, lvl+1, res.NewLevel)
		}

		res, err := svc.VerifyLevelUp(ctx, student.ID, tutor.ID, true, "")
		assert.NoError(t, err)
		assert.False(t, res.Promoted)
		assert.Equal(t, member.MaxLevel, res.NewLevel)

		refreshed, _ := svc.GetByID(ctx, student.ID)
		assert.Equal(t, member.MaxLevel, refreshed.MembershipLevel)

		certs, _ := svc.Certificates(ctx, student.ID)
		assert.Len(t, certs, member.MaxLevel-member.MinLevel)

		lvs, _ := svc.LevelVerifications(ctx, student.ID)
		assert.Len(t, lvs, member.MaxLevel-member.MinLevel) // max-level attempt left no record
	})
}

func TestService_VerifyMember(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	t.Run("approve", func(t *testing.T) {
		tutor := createMember(t, svc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)

		prf, err := svc.VerifyMember(ctx, tutor.ID, true)
		assert.NoError(t, err)
		assert.True(t, prf.Verified)
		assert.Equal(t, member.VerificationApproved, prf.VerificationStatus)
	})

	t.Run("reject", func(t *testing.T) {
		committee := createMember(t, svc, "Nadia Yusuf", "nadia@test.cd", member.RoleCommittee)

		prf, err := svc.VerifyMember(ctx, committee.ID, false)
		assert.NoError(t, err)
		assert.False(t, prf.Verified)
		assert.Equal(t, member.VerificationRejected, prf.VerificationStatus)
	})

	t.Run("pending verifications lists unverified staff only", func(t *testing.T) {
		createMember(t, svc, "Awa Traore", "awa@test.cd", "") // student, never pending
		pending := createMember(t, svc, "Omar Sy", "omar@test.cd", member.RoleTutor)

		profiles, err := svc.PendingVerifications(ctx)
		assert.NoError(t, err)
		if assert.Len(t, profiles, 1) {
			assert.Equal(t, pending.ID, profiles[0].ID)
		}
	})
}

func TestService_AssignClass(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	tutor := createMember(t, svc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)
	student := createMember(t, svc, "Awa Traore", "awa@test.cd", "")

	t.Run("assigns class and level to a tutor", func(t *testing.T) {
		prf, err := svc.AssignClass(ctx, tutor.ID, "HYB03", 3)
		assert.NoError(t, err)
		assert.Equal(t, "HYB03", prf.AssignedClass)
		assert.Equal(t, 3, prf.AssignedLevel)
	})

	t.Run("rejects non-tutors", func(t *testing.T) {
		_, err := svc.AssignClass(ctx, student.ID, "HYB01", 1)
		assert.Equal(t, member.ErrNotTutor, err)
	})
}

func TestService_QueryAll(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	createMember(t, svc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)
	createMember(t, svc, "Awa Traore", "awa@test.cd", "")
	createMember(t, svc, "Nadia Yusuf", "nadia@test.cd", "")

	profiles, err := svc.QueryAll(ctx, core.DBOrdering{Field: "name", Ascending: true})
	assert.NoError(t, err)
	if assert.Len(t, profiles, 3) {
		assert.Equal(t, "Awa Traore", profiles[0].Name)
		assert.Equal(t, "Moussa Keita", profiles[1].Name)
		assert.Equal(t, "Nadia Yusuf", profiles[2].Name)
	}
}

func TestService_Stats(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	t.Run("empty club", func(t *testing.T) {
		stats, err := svc.Stats(ctx)
		assert.NoError(t, err)
		assert.Equal(t, member.Stats{}, stats)
	})

	t.Run("students counted separately from staff", func(t *testing.T) {
		createMember(t, svc, "Awa Traore", "awa@test.cd", "")
		createMember(t, svc, "Binta Diallo", "binta@test.cd", "")
		createMember(t, svc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)

		stats, err := svc.Stats(ctx)
		assert.NoError(t, err)
		assert.Equal(t, member.Stats{TotalUsers: 3, TotalStudents: 2}, stats)
	})
}

func TestService_Classes(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	assigned := createMember(t, svc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)
	createMember(t, svc, "Omar Sy", "omar@test.cd", member.RoleTutor) // no class yet
	createMember(t, svc, "Awa Traore", "awa@test.cd", "")

	if _, err := svc.AssignClass(ctx, assigned.ID, "HYB02", 2); err != nil {
		t.Fatalf("AssignClass(): %v", err)
	}

	classes, err := svc.Classes(ctx)
	assert.NoError(t, err)
	if assert.Len(t, classes, 1) {
		assert.Equal(t, member.ClassInfo{
			TutorID:   assigned.ID,
			TutorName: "Moussa Keita",
			ClassName: "HYB02",
			Level:     2,
		}, classes[0])
	}
}

func TestService_UpdateRole(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	prf := createMember(t, svc, "Awa Traore", "awa@test.cd", "")

	updated, err := svc.UpdateRole(ctx, prf.ID, member.RoleCommittee)
	assert.NoError(t, err)
	assert.Equal(t, member.RoleCommittee, updated.Role)

	_, err = svc.UpdateRole(ctx, "nope", member.RoleAdmin)
	assert.Equal(t, member.ErrNotFound, err)
}

package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/member"
)

type memberRepository struct {
	db *memberTables
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db *DB) member.Repository {
	return &memberRepository{db: db.member}
}

func (repo *memberRepository) query() []member.Profile {
	profiles := make([]member.Profile, 0, len(repo.db.profiles))
	for _, p := range repo.db.profiles {
		profiles = append(profiles, *p)
	}
	return profiles
}

func (repo *memberRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded []member.Profile, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, prf := range repo.query() {
		if prf.Email == email && !isExcluded(prf, excluded) {
			return member.ErrEmailExists
		}
	}
	return nil
}

func (repo *memberRepository) CreateProfile(ctx context.Context, prf member.Profile, exec ...core.DBExecutor) (member.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if prf.ID == "" {
		prf.ID = uuid.New().String()
	}
	repo.db.profiles[prf.ID] = &prf
	return prf, nil
}

func (repo *memberRepository) GetProfile(ctx context.Context, id string, exec ...core.DBExecutor) (member.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prf, ok := repo.db.profiles[id]; ok {
		return *prf, nil
	}
	return member.Profile{}, member.ErrNotFound
}

func (repo *memberRepository) GetProfileByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (member.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, prf := range repo.query() {
		if prf.Email == email {
			return prf, nil
		}
	}
	return member.Profile{}, member.ErrNotFound
}

func (repo *memberRepository) QueryAllProfiles(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]member.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := repo.query()
	for i := len(ordering) - 1; i >= 0; i-- {
		orderProfiles(profiles, ordering[i])
	}
	return profiles, nil
}

func orderProfiles(profiles []member.Profile, ord core.DBOrdering) {
	var less func(a, b member.Profile) bool
	switch ord.Field {
	case "name":
		less = func(a, b member.Profile) bool { return a.Name < b.Name }
	case "email":
		less = func(a, b member.Profile) bool { return a.Email < b.Email }
	case "role":
		less = func(a, b member.Profile) bool { return a.Role < b.Role }
	case "membership_level":
		less = func(a, b member.Profile) bool { return a.MembershipLevel < b.MembershipLevel }
	case "created_at":
		less = func(a, b member.Profile) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		if ord.Ascending {
			return less(profiles[i], profiles[j])
		}
		return less(profiles[j], profiles[i])
	})
}

func (repo *memberRepository) FilterProfiles(ctx context.Context, filter member.QueryFilter, exec ...core.DBExecutor) ([]member.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := repo.query()

	if len(filter.Roles) > 0 {
		var filtered []member.Profile
		for _, p := range profiles {
			for _, r := range filter.Roles {
				if p.Role == r {
					filtered = append(filtered, p)
					break
				}
			}
		}
		profiles = filtered
	}
	if profiles != nil && filter.Verified != nil {
		var filtered []member.Profile
		for _, p := range profiles {
			if p.Verified == *filter.Verified {
				filtered = append(filtered, p)
			}
		}
		profiles = filtered
	}

	return profiles, nil
}

func (repo *memberRepository) CountProfiles(ctx context.Context, filter member.QueryFilter, exec ...core.DBExecutor) (int, error) {
	profiles, err := repo.FilterProfiles(ctx, filter, exec...)
	if err != nil {
		return 0, err
	}
	return len(profiles), nil
}

func (repo *memberRepository) UpdateProfile(ctx context.Context, prf member.Profile, exec ...core.DBExecutor) (member.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.profiles[prf.ID]; !ok {
		return member.Profile{}, member.ErrNotFound
	}
	repo.db.profiles[prf.ID] = &prf
	return prf, nil
}

func (repo *memberRepository) DeleteProfilesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.profiles, id)
	}
	return nil
}

func (repo *memberRepository) AppendPayment(ctx context.Context, pmt member.Payment, exec ...core.DBExecutor) (member.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pmt.ID = uuid.New().String()
	repo.db.payments = append(repo.db.payments, pmt)
	return pmt, nil
}

func (repo *memberRepository) ListPayments(ctx context.Context, userID string, exec ...core.DBExecutor) ([]member.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	payments := make([]member.Payment, 0)
	for _, p := range repo.db.payments {
		if p.UserID == userID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

func (repo *memberRepository) AppendGrade(ctx context.Context, grd member.Grade, exec ...core.DBExecutor) (member.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	grd.ID = uuid.New().String()
	repo.db.grades = append(repo.db.grades, grd)
	return grd, nil
}

func (repo *memberRepository) ListGrades(ctx context.Context, studentID string, level int, exec ...core.DBExecutor) ([]member.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grades := make([]member.Grade, 0)
	for _, g := range repo.db.grades {
		if g.StudentID != studentID {
			continue
		}
		if level > 0 && g.Level != level {
			continue
		}
		grades = append(grades, g)
	}
	return grades, nil
}

func (repo *memberRepository) AppendCertificate(ctx context.Context, cert member.Certificate, exec ...core.DBExecutor) (member.Certificate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cert.ID = uuid.New().String()
	repo.db.certificates = append(repo.db.certificates, cert)
	return cert, nil
}

func (repo *memberRepository) ListCertificates(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]member.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	certs := make([]member.Certificate, 0)
	for _, c := range repo.db.certificates {
		if c.StudentID == studentID {
			certs = append(certs, c)
		}
	}
	return certs, nil
}

func (repo *memberRepository) AppendLevelVerification(ctx context.Context, lv member.LevelVerification, exec ...core.DBExecutor) (member.LevelVerification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lv.ID = uuid.New().String()
	repo.db.levelVerifications = append(repo.db.levelVerifications, lv)
	return lv, nil
}

func (repo *memberRepository) ListLevelVerifications(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]member.LevelVerification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lvs := make([]member.LevelVerification, 0)
	for _, lv := range repo.db.levelVerifications {
		if lv.StudentID == studentID {
			lvs = append(lvs, lv)
		}
	}
	return lvs, nil
}

func isExcluded(prf member.Profile, excluded []member.Profile) bool {
	for _, ex := range excluded {
		if ex.ID == prf.ID {
			return true
		}
	}
	return false
}

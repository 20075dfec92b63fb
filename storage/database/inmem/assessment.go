package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/assessment"
)

type assessmentRepository struct {
	db *assessmentTables
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{db: db.assessment}
}

func (repo *assessmentRepository) CreateAssessment(ctx context.Context, asm assessment.Assessment, exec ...core.DBExecutor) (assessment.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if asm.ID == "" {
		asm.ID = uuid.New().String()
	}
	repo.db.assessments[asm.ID] = &asm
	return asm, nil
}

func (repo *assessmentRepository) GetAssessment(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if asm, ok := repo.db.assessments[id]; ok {
		return *asm, nil
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) QueryAllAssessments(ctx context.Context, exec ...core.DBExecutor) ([]assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assessments := make([]assessment.Assessment, 0, len(repo.db.assessments))
	for _, asm := range repo.db.assessments {
		assessments = append(assessments, *asm)
	}
	sort.Slice(assessments, func(i, j int) bool { return assessments[i].CreatedAt.Before(assessments[j].CreatedAt) })
	return assessments, nil
}

func (repo *assessmentRepository) AppendSubmission(ctx context.Context, sub assessment.Submission, exec ...core.DBExecutor) (assessment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.ID = uuid.New().String()
	repo.db.submissions = append(repo.db.submissions, sub)
	return sub, nil
}

func (repo *assessmentRepository) ListSubmissions(ctx context.Context, userID string, exec ...core.DBExecutor) ([]assessment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]assessment.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

package assessment

import (
	"context"
	"errors"
	"time"

	"github.com/kalimaclub/kalima/core"
)

var (
	// errors
	ErrNotFound = errors.New("assessment not found")
)

type (
	Repository interface {
		CreateAssessment(ctx context.Context, asm Assessment, exec ...core.DBExecutor) (Assessment, error)
		GetAssessment(ctx context.Context, id string, exec ...core.DBExecutor) (Assessment, error)
		QueryAllAssessments(ctx context.Context, exec ...core.DBExecutor) ([]Assessment, error)

		AppendSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		ListSubmissions(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Submission, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, createdBy string, na NewAssessment) (Assessment, error) {
	asm := Assessment{
		Title:       na.Title,
		Description: na.Description,
		Type:        na.Type,
		Level:       na.Level,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateAssessment(ctx, asm)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assessment, error) {
	return svc.repo.GetAssessment(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Assessment, error) {
	return svc.repo.QueryAllAssessments(ctx)
}

// Submit appends a submission to the member's ledger. The assessment must
// exist; retakes simply append again.
func (svc *Service) Submit(ctx context.Context, userID string, ns NewSubmission) (Submission, error) {
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}
	if _, err := svc.repo.GetAssessment(ctx, ns.AssessmentID); err != nil {
		return Submission{}, err
	}
	sub := Submission{
		UserID:       userID,
		AssessmentID: ns.AssessmentID,
		Answers:      ns.Answers,
		Score:        *ns.Score,
		SubmittedAt:  time.Now().UTC(),
	}
	return svc.repo.AppendSubmission(ctx, sub)
}

func (svc *Service) Submissions(ctx context.Context, userID string) ([]Submission, error) {
	return svc.repo.ListSubmissions(ctx, userID)
}

package pgrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/assessment"
)

type assessmentRepository struct {
	db *sqlx.DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *sqlx.DB) *assessmentRepository {
	return &assessmentRepository{db: db}
}

func (repo assessmentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

func scanAssessment(sc scanner) (assessment.Assessment, error) {
	var asm assessment.Assessment
	var desc null.String
	err := sc.Scan(&asm.ID, &asm.Title, &desc, &asm.Type, &asm.Level, &asm.CreatedBy, &asm.CreatedAt)
	if err != nil {
		return assessment.Assessment{}, err
	}
	asm.Description = desc.String
	return asm, nil
}

// trapNoAssessmentErr maps psql "no rows" err to assessment.ErrNotFound
func trapNoAssessmentErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return assessment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo assessmentRepository) CreateAssessment(ctx context.Context, asm assessment.Assessment, exec ...core.DBExecutor) (assessment.Assessment, error) {
	asm.ID = uuid.New().String()
	query := `
		INSERT INTO assessment (id, title, description, type, level, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		asm.ID,
		asm.Title,
		null.NewString(asm.Description, asm.Description != ""),
		asm.Type,
		asm.Level,
		asm.CreatedBy,
		asm.CreatedAt.UTC(),
	)
	if err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "inserting assessment")
	}
	return asm, nil
}

func (repo assessmentRepository) GetAssessment(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Assessment, error) {
	query := `SELECT id, title, description, type, level, created_by, created_at FROM assessment WHERE id = $1`
	asm, err := scanAssessment(repo.getExec(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		return assessment.Assessment{}, trapNoAssessmentErr(err, "getting assessment")
	}
	return asm, nil
}

func (repo assessmentRepository) QueryAllAssessments(ctx context.Context, exec ...core.DBExecutor) ([]assessment.Assessment, error) {
	query := `SELECT id, title, description, type, level, created_by, created_at FROM assessment ORDER BY created_at ASC`
	rows, err := repo.getExec(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	defer func() { _ = rows.Close() }()

	assessments := make([]assessment.Assessment, 0)
	for rows.Next() {
		asm, err := scanAssessment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning assessment")
		}
		assessments = append(assessments, asm)
	}
	return assessments, errors.Wrap(rows.Err(), "iterating assessments")
}

func (repo assessmentRepository) AppendSubmission(ctx context.Context, sub assessment.Submission, exec ...core.DBExecutor) (assessment.Submission, error) {
	sub.ID = uuid.New().String()
	query := `
		INSERT INTO submission (id, user_id, assessment_id, answers, score, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		sub.ID,
		sub.UserID,
		sub.AssessmentID,
		pq.Array(sub.Answers),
		sub.Score,
		sub.SubmittedAt.UTC(),
	)
	if err != nil {
		return assessment.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo assessmentRepository) ListSubmissions(ctx context.Context, userID string, exec ...core.DBExecutor) ([]assessment.Submission, error) {
	query := `
		SELECT id, user_id, assessment_id, answers, score, submitted_at
		FROM submission WHERE user_id = $1 ORDER BY submitted_at DESC`
	rows, err := repo.getExec(exec).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	defer func() { _ = rows.Close() }()

	subs := make([]assessment.Submission, 0)
	for rows.Next() {
		var sub assessment.Submission
		var answers pq.StringArray
		if err = rows.Scan(&sub.ID, &sub.UserID, &sub.AssessmentID, &answers, &sub.Score, &sub.SubmittedAt); err != nil {
			return nil, errors.Wrap(err, "scanning submission")
		}
		sub.Answers = answers
		subs = append(subs, sub)
	}
	return subs, errors.Wrap(rows.Err(), "iterating submissions")
}

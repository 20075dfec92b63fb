package assessment

import "time"

// Assessment is a tutor-authored catalog entry members can take at their level.
type Assessment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"` // quiz, exam, ...
	Level       int       `json:"level"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// Submission is an append-only record of a member taking an assessment. The
// score is computed client-side the same way the grade ledger receives
// tutor-marked grades.
type Submission struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AssessmentID string    `json:"assessment_id"`
	Answers      []string  `json:"answers"`
	Score        float64   `json:"score"` // 0-100
	SubmittedAt  time.Time `json:"submitted_at"` // UTC
}

package assessment

import "github.com/kalimaclub/kalima/core"

// NewAssessment defines a catalog entry a tutor publishes.
type NewAssessment struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required"`
	Level       int    `json:"level" validate:"required,gte=1,lte=5"`
}

func (na *NewAssessment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Type = core.CleanString(na.Type, true /* lower */)
	return core.Validate.Struct(na)
}

// NewSubmission defines a member's answers to an assessment. Score is a
// pointer so a legitimate 0 still satisfies "required".
type NewSubmission struct {
	AssessmentID string   `json:"assessment_id" validate:"required"`
	Answers      []string `json:"answers"`
	Score        *float64 `json:"score" validate:"required,gte=0,lte=100"`
}

func (ns *NewSubmission) Validate() error {
	return core.Validate.Struct(ns)
}

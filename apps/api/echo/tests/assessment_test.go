package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kalimaclub/kalima/core/assessment"
	"github.com/kalimaclub/kalima/core/member"
)

func Test_assessmentApi_create(t *testing.T) {
	app, memberSvc, _ := setup(t)

	student := createMember(t, memberSvc, "Awa Traore", "awa@test.cd", "")
	tutor := createMember(t, memberSvc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)

	body := marchallObj(t, assessment.NewAssessment{Title: "Level 1 Vocabulary", Type: "quiz", Level: 1})

	t.Run("students cannot publish assessments", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assessments", getToken(t, student), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("tutor publishes an assessment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assessments", getToken(t, tutor), body)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var asm assessment.Assessment
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asm))
		assert.Equal(t, tutor.ID, asm.CreatedBy)
		assert.Equal(t, "Level 1 Vocabulary", asm.Title)
	})

	t.Run("missing title", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assessments", getToken(t, tutor),
			marchallObj(t, assessment.NewAssessment{Type: "quiz", Level: 1}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		}, rec)
	})

	t.Run("catalog is visible to every member", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/assessments", getToken(t, student))
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var assessments []assessment.Assessment
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assessments))
		assert.Len(t, assessments, 1)
	})
}

func Test_assessmentApi_submit(t *testing.T) {
	app, memberSvc, _ := setup(t)

	student := createMember(t, memberSvc, "Awa Traore", "awa@test.cd", "")
	tutor := createMember(t, memberSvc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)
	studentToken := getToken(t, student)

	// publish a catalog entry to submit against
	req, rec := newAuthRequest(http.MethodPost, "/v1/assessments", getToken(t, tutor),
		marchallObj(t, assessment.NewAssessment{Title: "Level 1 Vocabulary", Type: "quiz", Level: 1}))
	app.ServeHTTP(rec, req)
	var asm assessment.Assessment
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asm))

	score := 75.0

	t.Run("submit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assessments/"+asm.ID+"/submit", studentToken,
			marchallObj(t, assessment.NewSubmission{Answers: []string{"a", "c", "b"}, Score: &score}))
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var sub assessment.Submission
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
		assert.Equal(t, student.ID, sub.UserID)
		assert.Equal(t, 75.0, sub.Score)
	})

	t.Run("unknown assessment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assessments/nope/submit", studentToken,
			marchallObj(t, assessment.NewSubmission{Score: &score}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("missing score", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assessments/"+asm.ID+"/submit", studentToken, []byte(`{}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"score": "this field is required"}),
		}, rec)
	})

	t.Run("my submissions", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/assessments/my-submissions", studentToken)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var subs []assessment.Submission
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
		assert.Len(t, subs, 1)
	})

	t.Run("tutors review a student's submissions", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/assessments/submissions/"+student.ID, studentToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)

		req, rec = newAuthRequest(http.MethodGet, "/v1/assessments/submissions/"+student.ID, getToken(t, tutor))
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var subs []assessment.Submission
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
		assert.Len(t, subs, 1)
	})
}

package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kalimaclub/kalima/core/event"
	"github.com/kalimaclub/kalima/core/member"
)

func createEvent(t *testing.T, svc *event.Service, title string) event.Event {
	t.Helper()
	evt, err := svc.Create(context.Background(), "committee-1", event.NewEvent{
		Title:    title,
		Date:     time.Now().Add(48 * time.Hour).UTC(),
		Location: "Club House",
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	return evt
}

func Test_eventApi_create(t *testing.T) {
	app, memberSvc, _ := setup(t)

	student := createMember(t, memberSvc, "Awa Traore", "awa@test.cd", "")
	committee := createMember(t, memberSvc, "Nadia Yusuf", "nadia@test.cd", member.RoleCommittee)

	body := marchallObj(t, event.NewEvent{Title: "Poetry Night", Date: time.Now().Add(48 * time.Hour), Location: "Club House"})

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/events", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("students cannot create events", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events", getToken(t, student), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("committee creates an event", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events", getToken(t, committee), body)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var evt event.Event
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evt))
		assert.Equal(t, committee.ID, evt.CreatedBy)
		assert.Equal(t, "Poetry Night", evt.Title)
	})

	t.Run("missing title", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events", getToken(t, committee),
			marchallObj(t, event.NewEvent{Date: time.Now(), Location: "Club House"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		}, rec)
	})
}

func Test_eventApi_rsvp(t *testing.T) {
	app, memberSvc, eventSvc := setup(t)

	student := createMember(t, memberSvc, "Awa Traore", "awa@test.cd", "")
	evt := createEvent(t, eventSvc, "Poetry Night")
	token := getToken(t, student)

	t.Run("rsvp", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events/"+evt.ID+"/rsvp", token)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var r event.RSVP
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
		assert.Equal(t, student.ID, r.UserID)
	})

	t.Run("duplicate rsvp conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events/"+evt.ID+"/rsvp", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: event.ErrAlreadyRSVPed.Error()})}, rec)
	})

	t.Run("unknown event", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events/nope/rsvp", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("my rsvps", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/events/my-rsvps", token)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var rsvps []event.RSVP
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsvps))
		assert.Len(t, rsvps, 1)
	})

	t.Run("cancel", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/events/"+evt.ID+"/rsvp", token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func Test_eventApi_checkInAndStats(t *testing.T) {
	app, memberSvc, eventSvc := setup(t)

	student := createMember(t, memberSvc, "Awa Traore", "awa@test.cd", "")
	committee := createMember(t, memberSvc, "Nadia Yusuf", "nadia@test.cd", member.RoleCommittee)
	evt := createEvent(t, eventSvc, "Poetry Night")

	studentToken := getToken(t, student)

	t.Run("event check-in", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events/checkin", studentToken,
			marchallObj(t, event.EventCheckIn{EventID: evt.ID}))
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var att event.Attendance
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &att))
		assert.Equal(t, event.TypeEvent, att.Type)
		assert.Equal(t, "Poetry Night", att.EventTitle)
	})

	t.Run("check-in requires an event id or session code", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events/checkin", studentToken, []byte(`{}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("class check-in", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events/class-checkin", studentToken,
			marchallObj(t, event.ClassCheckIn{SessionCode: "HYB01-W3", ClassName: "HYB01"}))
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var att event.Attendance
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &att))
		assert.Equal(t, event.TypeClass, att.Type)
	})

	t.Run("my attendance", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/events/my-attendance", studentToken)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var records []event.Attendance
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		assert.Len(t, records, 2)
	})

	t.Run("stats are committee-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/events/stats", studentToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)

		req, rec = newAuthRequest(http.MethodGet, "/v1/events/stats", getToken(t, committee))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]int{
			"total_users":      2, // student + committee
			"total_students":   1,
			"total_events":     1,
			"total_attendance": 2,
		})}, rec)
	})
}

package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kalimaclub/kalima/core/event"
	"github.com/kalimaclub/kalima/core/member"
)

func Test_classApi_query(t *testing.T) {
	app, memberSvc, _ := setup(t)

	student := createMember(t, memberSvc, "Awa Traore", "awa@test.cd", "")
	tutor := createMember(t, memberSvc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)
	createMember(t, memberSvc, "Omar Sy", "omar@test.cd", member.RoleTutor) // never assigned

	if _, err := memberSvc.AssignClass(context.Background(), tutor.ID, "HYB02", 2); err != nil {
		t.Fatalf("AssignClass(): %v", err)
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/classes", getToken(t, student))
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var classes []member.ClassInfo
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classes))
	if assert.Len(t, classes, 1) {
		assert.Equal(t, member.ClassInfo{TutorID: tutor.ID, TutorName: "Moussa Keita", ClassName: "HYB02", Level: 2}, classes[0])
	}
}

func Test_classApi_mine(t *testing.T) {
	app, memberSvc, eventSvc := setup(t)
	ctx := context.Background()

	student := createMember(t, memberSvc, "Awa Traore", "awa@test.cd", "")
	tutor := createMember(t, memberSvc, "Moussa Keita", "moussa@test.cd", member.RoleTutor)
	tutorToken := getToken(t, tutor)

	t.Run("tutors only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classes/mine", getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("no class assigned", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classes/mine", tutorToken)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var res map[string]json.RawMessage
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "null", string(res["class"]))
	})

	t.Run("class dashboard", func(t *testing.T) {
		if _, err := memberSvc.AssignClass(ctx, tutor.ID, "HYB02", 2); err != nil {
			t.Fatalf("AssignClass(): %v", err)
		}
		if _, err := eventSvc.CheckInClass(ctx, student.ID, event.ClassCheckIn{SessionCode: "HYB02-W1", ClassName: "HYB02"}); err != nil {
			t.Fatalf("CheckInClass(): %v", err)
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/classes/mine", tutorToken)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var res struct {
			Class      *member.ClassInfo  `json:"class"`
			Students   []member.Profile   `json:"students"`
			Attendance []event.Attendance `json:"attendance"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		if assert.NotNil(t, res.Class) {
			assert.Equal(t, "HYB02", res.Class.ClassName)
			assert.Equal(t, 2, res.Class.Level)
		}
		if assert.Len(t, res.Students, 1) {
			assert.Equal(t, student.ID, res.Students[0].ID)
		}
		if assert.Len(t, res.Attendance, 1) {
			assert.Equal(t, "HYB02", res.Attendance[0].ClassName)
		}
	})
}

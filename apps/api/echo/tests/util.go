package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"

	. "github.com/kalimaclub/kalima/apps/api/echo"
	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/assessment"
	"github.com/kalimaclub/kalima/core/event"
	"github.com/kalimaclub/kalima/core/member"
	emailsvc "github.com/kalimaclub/kalima/services/email"
	inmemdb "github.com/kalimaclub/kalima/storage/database/inmem"
)

var (
	conf = &core.Config{
		TestMode:         true,
		AppName:          "Kalima",
		SecretKey:        []byte("secret"),
		DefaultFromEmail: mail.Address{Name: "Kalima", Address: "noreply@localhost"},
	}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func setup(t *testing.T) (Server, *member.Service, *event.Service) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	memberSvc := member.NewService(nil, inmemdb.NewMemberRepository(db), mailSvc)
	eventSvc := event.NewService(inmemdb.NewEventRepository(db))
	assessmentSvc := assessment.NewService(inmemdb.NewAssessmentRepository(db))

	app := NewServer(
		ServerDeps{
			Conf:          conf,
			Logger:        nopLogger{},
			MemberSvc:     memberSvc,
			EventSvc:      eventSvc,
			AssessmentSvc: assessmentSvc,
		},
	)
	return app, memberSvc, eventSvc
}

// nopLogger keeps test output quiet.
type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, prf member.Profile) string {
	claims := GetProfileClaims(conf, prf)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

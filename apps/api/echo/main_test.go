package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/portal/apps/api/echo"
	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/attendance"
	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/coursework"
	"github.com/trezcool/portal/core/dashboard"
	"github.com/trezcool/portal/core/messaging"
	"github.com/trezcool/portal/core/resource"
	"github.com/trezcool/portal/core/student"
	"github.com/trezcool/portal/core/user"
	emailsvc "github.com/trezcool/portal/services/email"
	"github.com/trezcool/portal/services/events"
	"github.com/trezcool/portal/services/throttle"
	inmemdb "github.com/trezcool/portal/storage/database/inmem"
	testutil "github.com/trezcool/portal/tests"
)

const maxLoginAttempts = 3

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// testApp is a Server over the in-memory store, along with what tests need to seed it.
type testApp struct {
	*Server
	hub        *events.Hub
	usrRepo    user.Repository
	studentSvc *student.Service
	courseSvc  *course.Service
	cwSvc      *coursework.Service
	attSvc     *attendance.Service
	billingSvc *billing.Service
	msgSvc     *messaging.Service
}

func setup(t *testing.T, mailSvc ...core.EmailService) *testApp {
	t.Helper()
	conf := *core.Conf
	conf.TestMode = true
	conf.Server.DisableReqLogs = true

	logger := testutil.NewLogger()
	core.ParseEmailTemplates(logger)
	validate, translator := testutil.NewTranslatedValidator()

	hub := events.NewHub(logger)
	t.Cleanup(hub.Close)
	db := inmemdb.Open(hub)

	var mailer core.EmailService = emailsvc.NewConsoleServiceMock(logger)
	if len(mailSvc) > 0 {
		mailer = mailSvc[0]
	}
	emailsvc.ClearSentMessages()

	app := &testApp{hub: hub, usrRepo: inmemdb.NewUserRepository(db)}
	usrSvc := user.NewServiceMock(app.usrRepo, mailer)
	app.studentSvc = student.NewService(inmemdb.NewStudentRepository(db), usrSvc)
	app.courseSvc = course.NewService(inmemdb.NewCourseRepository(db))
	app.cwSvc = coursework.NewService(inmemdb.NewCourseworkRepository(db))
	app.attSvc = attendance.NewService(inmemdb.NewAttendanceRepository(db))
	app.billingSvc = billing.NewService(inmemdb.NewBillingRepository(db))
	app.msgSvc = messaging.NewService(inmemdb.NewMessagingRepository(db))

	app.Server = NewServer(ServerDeps{
		Conf:          &conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		StudentSvc:    app.studentSvc,
		CourseSvc:     app.courseSvc,
		CourseworkSvc: app.cwSvc,
		AttendanceSvc: app.attSvc,
		BillingSvc:    app.billingSvc,
		MessagingSvc:  app.msgSvc,
		ResourceSvc:   resource.NewService(inmemdb.NewResourceRepository(db)),
		DashboardSvc: dashboard.NewService(
			app.studentSvc, app.courseSvc, app.cwSvc, app.attSvc, app.billingSvc, app.msgSvc,
		),
		Limiter:  throttle.NewMemoryLimiter(maxLoginAttempts, time.Minute),
		Notifier: hub,
	})
	return app
}

func (app *testApp) createUser(t *testing.T, name, uname string, roles ...string) user.User {
	return testutil.CreateUser(t, app.usrRepo, name, uname, uname+"@example.com", "Kf9#mLq2", roles, true)
}

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

// do serves tt and returns the recorder; the method defaults to GET.
func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList() failed: %v", err)
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
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code; body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

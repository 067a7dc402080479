package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core/attendance"
	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/coursework"
	"github.com/trezcool/portal/core/messaging"
	"github.com/trezcool/portal/core/resource"
	"github.com/trezcool/portal/core/student"
	"github.com/trezcool/portal/core/user"
	testutil "github.com/trezcool/portal/tests"
)

// school seeds a teacher, two students and a course.
type school struct {
	admin, teacher       user.User
	jane, carl           student.Student
	janeUsr, carlUsr     user.User
	maths                course.Course
	adminToken, tToken   string
	janeToken, carlToken string
}

func newSchool(t *testing.T, app *testApp) school {
	ctx := context.Background()
	var s school
	s.admin = app.createUser(t, "Admin", "admin", user.RoleAdmin)
	s.teacher = app.createUser(t, "Teacher", "teacher", user.RoleTeacher)
	s.jane = testutil.CreateStudent(t, app.studentSvc, "Jane Doe", "jane", "Kf9#mLq2")
	s.carl = testutil.CreateStudent(t, app.studentSvc, "Carl", "carl", "Kf9#mLq2")

	var err error
	s.janeUsr, err = app.usrRepo.GetUser(ctx, user.GetFilter{ID: s.jane.UserID})
	require.NoError(t, err)
	s.carlUsr, err = app.usrRepo.GetUser(ctx, user.GetFilter{ID: s.carl.UserID})
	require.NoError(t, err)
	s.maths, err = app.courseSvc.Create(ctx, course.NewCourse{Name: "Maths", TeacherID: &s.teacher.ID})
	require.NoError(t, err)

	s.adminToken = getToken(t, s.admin)
	s.tToken = getToken(t, s.teacher)
	s.janeToken = getToken(t, s.janeUsr)
	s.carlToken = getToken(t, s.carlUsr)
	return s
}

func Test_courseworkApi(t *testing.T) {
	app := setup(t)
	s := newSchool(t, app)
	due := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)

	// assignments
	body := marshalObj(t, coursework.NewAssignment{CourseID: s.maths.ID, Title: "Homework", DueAt: due, MaxScore: 20})
	rec := app.do(httpTest{method: http.MethodPost, path: "/v1/assignments", token: s.janeToken, body: body})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(httpTest{method: http.MethodPost, path: "/v1/assignments", token: s.tToken, body: body})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var hw coursework.Assignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hw))
	assert.True(t, due.Equal(hw.DueAt))

	rec = app.do(httpTest{path: "/v1/assignments?course_id=" + s.maths.ID, token: s.janeToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	// exams
	rec = app.do(httpTest{
		method: http.MethodPost, path: "/v1/exams", token: s.tToken,
		body: marshalObj(t, coursework.NewExam{CourseID: s.maths.ID, Title: "Finals", StartsAt: due, MaxScore: 50}),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var finals coursework.Exam
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &finals))
	assert.Equal(t, 60, finals.DurationMinutes)

	// grades
	runHTTPTests(t, app, []httpTest{
		{
			name: "grade: score too high", method: http.MethodPost, path: "/v1/grades", token: s.tToken,
			body:     marshalObj(t, coursework.NewGrade{StudentID: s.jane.ID, AssignmentID: hw.ID, Score: 25}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"score": coursework.ErrScoreTooHigh.Error()}),
		},
		{
			name: "grade: nothing graded", method: http.MethodPost, path: "/v1/grades", token: s.tToken,
			body: marshalObj(t, coursework.NewGrade{StudentID: s.jane.ID, Score: 5}), wantCode: http.StatusBadRequest,
		},
		{
			name: "grade: students cannot", method: http.MethodPost, path: "/v1/grades", token: s.janeToken,
			body: marshalObj(t, coursework.NewGrade{StudentID: s.jane.ID, AssignmentID: hw.ID, Score: 20}), wantCode: http.StatusForbidden,
		},
	})
	for _, g := range []coursework.NewGrade{
		{StudentID: s.jane.ID, AssignmentID: hw.ID, Score: 12},
		{StudentID: s.jane.ID, AssignmentID: hw.ID, Score: 17}, // replaces the first one
		{StudentID: s.carl.ID, ExamID: finals.ID, Score: 40},
	} {
		rec = app.do(httpTest{method: http.MethodPost, path: "/v1/grades", token: s.tToken, body: marshalObj(t, g)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	t.Run("students only see their grades", func(t *testing.T) {
		rec := app.do(httpTest{path: "/v1/grades?student_id=" + s.carl.ID, token: s.janeToken})
		require.Equal(t, http.StatusOK, rec.Code)
		var grades []coursework.Grade
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grades))
		require.Len(t, grades, 1)
		assert.Equal(t, s.jane.ID, grades[0].StudentID)
		assert.Equal(t, float64(17), grades[0].Score)
		assert.Equal(t, float64(85), grades[0].Percentage())
	})

	t.Run("staff see all grades", func(t *testing.T) {
		rec := app.do(httpTest{path: "/v1/grades", token: s.tToken})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	})

	t.Run("delete assignment", func(t *testing.T) {
		rec := app.do(httpTest{method: http.MethodDelete, path: "/v1/assignments/" + hw.ID, token: s.tToken})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = app.do(httpTest{path: "/v1/assignments/" + hw.ID, token: s.tToken})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_attendanceApi(t *testing.T) {
	app := setup(t)
	s := newSchool(t, app)
	day := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	mark := func(st student.Student, status string, token string) int {
		body := marshalObj(t, attendance.NewRecord{StudentID: st.ID, CourseID: s.maths.ID, Date: day, Status: status})
		return app.do(httpTest{method: http.MethodPost, path: "/v1/attendance", token: token, body: body}).Code
	}

	assert.Equal(t, http.StatusForbidden, mark(s.jane, attendance.StatusPresent, s.janeToken))
	assert.Equal(t, http.StatusBadRequest, mark(s.jane, "sleeping", s.tToken))
	assert.Equal(t, http.StatusOK, mark(s.jane, attendance.StatusAbsent, s.tToken))
	assert.Equal(t, http.StatusOK, mark(s.jane, attendance.StatusLate, s.tToken)) // same day: overwritten
	assert.Equal(t, http.StatusOK, mark(s.carl, attendance.StatusPresent, s.tToken))

	rec := app.do(httpTest{path: "/v1/attendance", token: s.janeToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var records []attendance.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, attendance.StatusLate, records[0].Status)
	assert.True(t, attendance.Day(day).Equal(records[0].Date))

	rec = app.do(httpTest{path: "/v1/attendance?status=present", token: s.tToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	rec = app.do(httpTest{method: http.MethodDelete, path: "/v1/attendance/" + records[0].ID, token: s.tToken})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(httpTest{method: http.MethodDelete, path: "/v1/attendance/" + records[0].ID, token: s.tToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_billingApi(t *testing.T) {
	app := setup(t)
	s := newSchool(t, app)

	create := func(token string, np billing.NewPayment) *billing.Payment {
		rec := app.do(httpTest{method: http.MethodPost, path: "/v1/payments", token: token, body: marshalObj(t, np)})
		if rec.Code != http.StatusCreated {
			return nil
		}
		var p billing.Payment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		return &p
	}

	assert.Nil(t, create(s.tToken, billing.NewPayment{StudentID: s.jane.ID, Amount: 15000, Description: "Term 1 fees"}))
	fees := create(s.adminToken, billing.NewPayment{StudentID: s.jane.ID, Amount: 15000, Description: "Term 1 fees"})
	require.NotNil(t, fees)
	assert.Equal(t, billing.StatusPending, fees.Status)
	assert.Equal(t, billing.DefaultCurrency, fees.Currency)
	bus := create(s.adminToken, billing.NewPayment{StudentID: s.carl.ID, Amount: 2000, Currency: "usd", Description: "Bus"})
	require.NotNil(t, bus)
	assert.Equal(t, "USD", bus.Currency)

	runHTTPTests(t, app, []httpTest{
		{name: "someone else's payment", path: "/v1/payments/" + bus.ID, token: s.janeToken, wantCode: http.StatusNotFound},
		{name: "own payment", path: "/v1/payments/" + fees.ID, token: s.janeToken, wantCode: http.StatusOK, wantData: marshalObj(t, fees)},
		{name: "cancel: admin only", method: http.MethodPost, path: "/v1/payments/" + bus.ID + "/cancel", token: s.carlToken, wantCode: http.StatusForbidden},
	})

	rec := app.do(httpTest{path: "/v1/payments", token: s.janeToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	rec = app.do(httpTest{method: http.MethodPost, path: "/v1/payments/" + fees.ID + "/pay", token: s.janeToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paid billing.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paid))
	assert.Equal(t, billing.StatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	rec = app.do(httpTest{method: http.MethodPost, path: "/v1/payments/" + fees.ID + "/pay", token: s.janeToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status": "payment already paid"}`, rec.Body.String())

	rec = app.do(httpTest{method: http.MethodPost, path: "/v1/payments/" + bus.ID + "/cancel", token: s.adminToken})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(httpTest{method: http.MethodPost, path: "/v1/payments/" + bus.ID + "/pay", token: s.carlToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status": "payment cancelled"}`, rec.Body.String())
}

func Test_messagingApi(t *testing.T) {
	app := setup(t)
	s := newSchool(t, app)

	send := func(token string, nm messaging.NewMessage) int {
		return app.do(httpTest{method: http.MethodPost, path: "/v1/messages", token: token, body: marshalObj(t, nm)}).Code
	}
	assert.Equal(t, http.StatusForbidden, send(s.janeToken, messaging.NewMessage{Body: "Hi all"}))
	assert.Equal(t, http.StatusCreated, send(s.tToken, messaging.NewMessage{Subject: "Exam", Body: "Finals on Monday"}))
	assert.Equal(t, http.StatusCreated, send(s.tToken, messaging.NewMessage{RecipientID: s.janeUsr.ID, Body: "See me"}))
	assert.Equal(t, http.StatusNotFound, send(s.tToken, messaging.NewMessage{RecipientID: s.jane.ID, Body: "Wrong ID"}))

	rec := app.do(httpTest{path: "/v1/messages/unread", token: s.janeToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread": 1}`, rec.Body.String())

	rec = app.do(httpTest{path: "/v1/messages", token: s.janeToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox []messaging.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inbox))
	require.Len(t, inbox, 2)

	var direct messaging.Message
	for _, m := range inbox {
		if !m.IsAnnouncement() {
			direct = m
		}
	}
	require.NotEmpty(t, direct.ID)

	rec = app.do(httpTest{method: http.MethodPost, path: "/v1/messages/" + direct.ID + "/read", token: s.carlToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.do(httpTest{method: http.MethodPost, path: "/v1/messages/" + direct.ID + "/read", token: s.janeToken})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(httpTest{path: "/v1/messages/unread", token: s.janeToken})
	assert.JSONEq(t, `{"unread": 0}`, rec.Body.String())

	// chat
	for _, msg := range []string{"first", "second", "third"} {
		rec = app.do(httpTest{method: http.MethodPost, path: "/v1/chat/Maths", token: s.janeToken, body: marshalObj(t, messaging.NewChatMessage{Body: msg})})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		time.Sleep(time.Millisecond) // distinct timestamps
	}
	rec = app.do(httpTest{path: "/v1/chat/maths?limit=2", token: s.carlToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var chat []messaging.ChatMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	require.Len(t, chat, 2)
	assert.Equal(t, "second", chat[0].Body)
	assert.Equal(t, "third", chat[1].Body)

	rec = app.do(httpTest{path: "/v1/chat/" + "a%20b", token: s.carlToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_resourceApi(t *testing.T) {
	app := setup(t)
	s := newSchool(t, app)

	runHTTPTests(t, app, []httpTest{
		{
			name: "students cannot upload", method: http.MethodPost, path: "/v1/resources", token: s.janeToken,
			body: marshalObj(t, resource.NewResource{Title: "Notes", URL: "https://example.com/notes.pdf"}), wantCode: http.StatusForbidden,
		},
		{
			name: "invalid url", method: http.MethodPost, path: "/v1/resources", token: s.tToken,
			body:     marshalObj(t, resource.NewResource{Title: "Notes", URL: "notes"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"url": "url must be a valid URL"}),
		},
	})

	rec := app.do(httpTest{
		method: http.MethodPost, path: "/v1/resources", token: s.tToken,
		body: marshalObj(t, resource.NewResource{CourseID: s.maths.ID, Title: "Algebra notes", URL: "https://example.com/algebra.pdf"}),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var notes resource.Resource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	assert.Equal(t, resource.KindDocument, notes.Kind)
	assert.Equal(t, s.teacher.ID, notes.UploadedBy)

	rec = app.do(httpTest{
		method: http.MethodPost, path: "/v1/resources", token: s.adminToken,
		body: marshalObj(t, resource.NewResource{Title: "School rules", Kind: "link", URL: "https://example.com/rules"}),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(httpTest{path: "/v1/resources?course_id=null", token: s.janeToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Contains(t, rec.Body.String(), "School rules")

	rec = app.do(httpTest{method: http.MethodDelete, path: "/v1/resources/" + notes.ID, token: s.janeToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.do(httpTest{method: http.MethodDelete, path: "/v1/resources/" + notes.ID, token: s.tToken})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

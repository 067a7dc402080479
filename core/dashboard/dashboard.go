// Package dashboard aggregates what a student sees on their home page.
package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/attendance"
	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/coursework"
	"github.com/trezcool/portal/core/messaging"
	"github.com/trezcool/portal/core/student"
)

type Dashboard struct {
	Profile             student.Profile         `json:"profile"`
	Courses             []course.Course         `json:"courses"`
	UpcomingAssignments []coursework.Assignment `json:"upcoming_assignments"`
	UpcomingExams       []coursework.Exam       `json:"upcoming_exams"`
	Attendance          attendance.Summary      `json:"attendance"`
	GradeAverage        float64                 `json:"grade_average"`
	LetterGrade         string                  `json:"letter_grade"`
	Balances            []billing.Balance       `json:"balances"`
	UnreadMessages      int                     `json:"unread_messages"`
}

type Service struct {
	studentSvc    *student.Service
	courseSvc     *course.Service
	courseworkSvc *coursework.Service
	attendanceSvc *attendance.Service
	billingSvc    *billing.Service
	messagingSvc  *messaging.Service
}

func NewService(
	studentSvc *student.Service,
	courseSvc *course.Service,
	courseworkSvc *coursework.Service,
	attendanceSvc *attendance.Service,
	billingSvc *billing.Service,
	messagingSvc *messaging.Service,
) *Service {
	return &Service{
		studentSvc:    studentSvc,
		courseSvc:     courseSvc,
		courseworkSvc: courseworkSvc,
		attendanceSvc: attendanceSvc,
		billingSvc:    billingSvc,
		messagingSvc:  messagingSvc,
	}
}

// ForStudent builds the Dashboard of a student as of `now`.
func (svc *Service) ForStudent(ctx context.Context, studentID string, now time.Time) (Dashboard, error) {
	var (
		dash Dashboard
		err  error
	)
	if dash.Profile, err = svc.studentSvc.GetProfile(ctx, studentID); err != nil {
		return Dashboard{}, err
	}

	if dash.Courses, err = svc.courseSvc.CoursesForStudent(ctx, studentID); err != nil {
		return Dashboard{}, errors.Wrap(err, "querying courses")
	}
	courseIDs := make([]string, 0, len(dash.Courses))
	for _, c := range dash.Courses {
		courseIDs = append(courseIDs, c.ID)
	}
	assignments, exams, err := svc.courseworkSvc.ForCourses(ctx, courseIDs)
	if err != nil {
		return Dashboard{}, err
	}
	dash.UpcomingAssignments = coursework.UpcomingAssignments(assignments, now)
	dash.UpcomingExams = coursework.UpcomingExams(exams, now)

	grades, err := svc.courseworkSvc.QueryGrades(ctx, core.Query{Filter: core.Filter{"student_id": studentID}})
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying grades")
	}
	dash.GradeAverage = coursework.AverageGrade(grades)
	if len(grades) > 0 {
		dash.LetterGrade = coursework.LetterGrade(dash.GradeAverage)
	}

	if dash.Attendance, err = svc.attendanceSvc.SummaryForStudent(ctx, studentID); err != nil {
		return Dashboard{}, errors.Wrap(err, "summarizing attendance")
	}
	if dash.Balances, err = svc.billingSvc.BalancesForStudent(ctx, studentID, now); err != nil {
		return Dashboard{}, err
	}
	if dash.UnreadMessages, err = svc.messagingSvc.UnreadCount(ctx, dash.Profile.User.ID); err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}

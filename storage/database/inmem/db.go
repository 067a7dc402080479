// Package inmemdb is an in-memory implementation of the repositories, used by the tests
// and by the API when no database is configured.
package inmemdb

import (
	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/attendance"
	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/coursework"
	"github.com/trezcool/portal/core/messaging"
	"github.com/trezcool/portal/core/resource"
	"github.com/trezcool/portal/core/student"
	"github.com/trezcool/portal/core/user"
	"github.com/trezcool/portal/storage/database"
)

type DB struct {
	users        *table[user.User]
	students     *table[student.Student]
	courses      *table[course.Course]
	enrollments  *table[course.Enrollment]
	assignments  *table[coursework.Assignment]
	exams        *table[coursework.Exam]
	grades       *table[coursework.Grade]
	attendance   *table[attendance.Record]
	payments     *table[billing.Payment]
	messages     *table[messaging.Message]
	chatMessages *table[messaging.ChatMessage]
	resources    *table[resource.Resource]
}

// Open creates an empty DB. Every write is published to notifier, if not nil.
func Open(notifier core.ChangeNotifier) *DB {
	var notify func(core.ChangeEvent)
	if notifier != nil {
		notify = notifier.Publish
	}

	return &DB{
		users: newTable[user.User](database.TableUsers, user.ErrNotFound, notify,
			[]string{"username"}, []string{"email"}),
		students: newTable[student.Student](database.TableStudents, student.ErrNotFound, notify,
			[]string{"user_id"}),
		courses: newTable[course.Course](database.TableCourses, course.ErrNotFound, notify,
			[]string{"name"}),
		enrollments: newTable[course.Enrollment](database.TableEnrollments, course.ErrEnrollmentNotFound, notify,
			[]string{"course_id", "student_id"}),
		assignments: newTable[coursework.Assignment](database.TableAssignments, coursework.ErrAssignmentNotFound, notify),
		exams:       newTable[coursework.Exam](database.TableExams, coursework.ErrExamNotFound, notify),
		grades: newTable[coursework.Grade](database.TableGrades, coursework.ErrGradeNotFound, notify,
			[]string{"student_id", "assignment_id"}, []string{"student_id", "exam_id"}),
		attendance: newTable[attendance.Record](database.TableAttendance, attendance.ErrNotFound, notify,
			[]string{"student_id", "course_id", "date"}),
		payments:     newTable[billing.Payment](database.TablePayments, billing.ErrNotFound, notify),
		messages:     newTable[messaging.Message](database.TableMessages, messaging.ErrNotFound, notify),
		chatMessages: newTable[messaging.ChatMessage](database.TableChatMessages, messaging.ErrNotFound, notify),
		resources:    newTable[resource.Resource](database.TableResources, resource.ErrNotFound, notify),
	}
}

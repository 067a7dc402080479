// Package importer migrates spreadsheet-shaped student records into the portal tables.
//
// The import is a straight sequential walk over the rows: a record is inserted only if
// none with the same name exists yet, so re-running it on the same sheet writes nothing new.
// There is no rollback: the first failing row stops the run.
package importer

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/student"
	"github.com/trezcool/portal/core/user"
)

// Columns
const (
	ColName          = "name"
	ColUsername      = "username"
	ColEmail         = "email"
	ColPassword      = "password"
	ColStudentNumber = "student_number"
	ColClass         = "class"
	ColPhone         = "phone"
	ColGuardian      = "guardian"
	ColCourse        = "course"
	ColCourseCode    = "course_code"
	ColTeacher       = "teacher"
	ColAmount        = "amount"
	ColDescription   = "description"
)

const defaultPaymentDescription = "Tuition fees"

// Report tells what an import run wrote.
type Report struct {
	Rows             int `json:"rows"`
	Skipped          int `json:"skipped"`
	StudentsCreated  int `json:"students_created"`
	StudentsExisting int `json:"students_existing"`
	CoursesCreated   int `json:"courses_created"`
	CoursesExisting  int `json:"courses_existing"`
	Enrollments      int `json:"enrollments"`
	PaymentsCreated  int `json:"payments_created"`
}

type Importer struct {
	usrSvc     user.Service
	studentSvc *student.Service
	courseSvc  *course.Service
	billingSvc *billing.Service
	validate   *validator.Validate
	logger     core.Logger
}

func New(
	usrSvc user.Service,
	studentSvc *student.Service,
	courseSvc *course.Service,
	billingSvc *billing.Service,
	validate *validator.Validate,
	logger core.Logger,
) *Importer {
	return &Importer{
		usrSvc:     usrSvc,
		studentSvc: studentSvc,
		courseSvc:  courseSvc,
		billingSvc: billingSvc,
		validate:   validate,
		logger:     logger,
	}
}

// Import walks `rows` in order. On error, the Report of what was already written is returned along with it.
func (imp *Importer) Import(ctx context.Context, rows []Row) (Report, error) {
	var rep Report
	for i, row := range rows {
		line := i + 2 // 1-based, after the header
		if row.isBlank() || row.get(ColName) == "" {
			rep.Skipped++
			continue
		}
		rep.Rows++
		if err := imp.importRow(ctx, row, &rep); err != nil {
			return rep, errors.Wrapf(err, "row %d", line)
		}
	}
	imp.logger.Info("sheet imported", rep)
	return rep, nil
}

func (imp *Importer) importRow(ctx context.Context, row Row, rep *Report) error {
	s, err := imp.findOrCreateStudent(ctx, row, rep)
	if err != nil {
		return err
	}

	if name := row.get(ColCourse); name != "" {
		c, err := imp.findOrCreateCourse(ctx, row, rep)
		if err != nil {
			return err
		}
		if err = imp.enroll(ctx, c, s, rep); err != nil {
			return err
		}
	}

	if row.get(ColAmount) != "" {
		if err = imp.addPayment(ctx, row, s, rep); err != nil {
			return err
		}
	}
	return nil
}

func (imp *Importer) findOrCreateStudent(ctx context.Context, row Row, rep *Report) (student.Student, error) {
	name := row.get(ColName)
	s, err := imp.studentSvc.GetByName(ctx, name)
	if err == nil {
		rep.StudentsExisting++
		return s, nil
	}
	if errors.Cause(err) != student.ErrNotFound {
		return student.Student{}, errors.Wrap(err, "finding student")
	}

	ns := student.NewStudent{
		Name:          name,
		Username:      row.get(ColUsername),
		Email:         row.get(ColEmail),
		Password:      row.get(ColPassword),
		StudentNumber: row.get(ColStudentNumber),
		ClassName:     row.get(ColClass),
		Phone:         row.get(ColPhone),
		GuardianName:  row.get(ColGuardian),
	}
	if ns.Password == "" {
		// the student goes through the password reset flow
		ns.Password = generatedPassword()
	}
	if err = ns.Validate(imp.validate); err != nil {
		return student.Student{}, err
	}
	if err = imp.usrSvc.CheckUniqueness(ns.Username, ns.Email); err != nil {
		return student.Student{}, err
	}

	if s, err = imp.studentSvc.Create(ctx, ns); err != nil {
		return student.Student{}, err
	}
	rep.StudentsCreated++
	return s, nil
}

func (imp *Importer) findOrCreateCourse(ctx context.Context, row Row, rep *Report) (course.Course, error) {
	name := row.get(ColCourse)
	c, err := imp.courseSvc.GetByName(ctx, name)
	if err == nil {
		rep.CoursesExisting++
		return c, nil
	}
	if errors.Cause(err) != course.ErrNotFound {
		return course.Course{}, errors.Wrap(err, "finding course")
	}

	nc := course.NewCourse{Name: name, Code: row.get(ColCourseCode)}
	if teacher := row.get(ColTeacher); teacher != "" {
		usr, err := imp.usrSvc.GetByUsernameOrEmail(ctx, teacher)
		switch {
		case err == nil && usr.IsTeacher():
			nc.TeacherID = &usr.ID
		case err == nil || errors.Cause(err) == user.ErrNotFound:
			imp.logger.Warn("unknown teacher, course left unassigned", teacher, name)
		default:
			return course.Course{}, errors.Wrap(err, "finding teacher")
		}
	}
	if err = nc.Validate(imp.validate); err != nil {
		return course.Course{}, err
	}

	if c, err = imp.courseSvc.Create(ctx, nc); err != nil {
		return course.Course{}, err
	}
	rep.CoursesCreated++
	return c, nil
}

func (imp *Importer) enroll(ctx context.Context, c course.Course, s student.Student, rep *Report) error {
	existing, err := imp.courseSvc.Enrollments(ctx, core.Query{Filter: core.Filter{"course_id": c.ID, "student_id": s.ID}})
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if _, err = imp.courseSvc.Enroll(ctx, c.ID, s.ID); err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	if len(existing) == 0 {
		rep.Enrollments++
	}
	return nil
}

func (imp *Importer) addPayment(ctx context.Context, row Row, s student.Student, rep *Report) error {
	amount, err := ParseAmount(row.get(ColAmount))
	if err != nil {
		return err
	}
	desc := row.get(ColDescription)
	if desc == "" {
		desc = defaultPaymentDescription
	}

	_, err = imp.billingSvc.Find(ctx, s.ID, desc)
	if err == nil {
		return nil
	}
	if errors.Cause(err) != billing.ErrNotFound {
		return errors.Wrap(err, "finding payment")
	}

	np := billing.NewPayment{StudentID: s.ID, Amount: amount, Description: desc}
	if err = np.Validate(imp.validate); err != nil {
		return err
	}
	if _, err = imp.billingSvc.Create(ctx, np); err != nil {
		return err
	}
	rep.PaymentsCreated++
	return nil
}

// ParseAmount parses a decimal amount ("1,250.50") into minor units (125050).
func ParseAmount(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errors.Errorf("invalid amount %q", s)
	}
	return int64(math.Round(f * 100)), nil
}

// generatedPassword satisfies the password policy: a v4 UUID always holds the digit 4 and dashes.
func generatedPassword() string {
	return "Tmp" + uuid.New().String()
}

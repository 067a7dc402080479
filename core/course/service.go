package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("course")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")
	ErrNameExists         = errors.New("a course with this name already exists")
)

type (
	Repository interface {
		QueryCourses(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]Course, error)
		CountCourses(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
		GetCourse(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (Course, error)
		CreateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourses(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)

		QueryEnrollments(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]Enrollment, error)
		// UpsertEnrollment inserts the Enrollment or returns the existing one for the same course & student.
		UpsertEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		DeleteEnrollments(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkName(ctx context.Context, name string, excludedID string) error {
	c, err := svc.repo.GetCourse(ctx, core.Filter{"name": name})
	switch {
	case err == nil:
		if c.ID != excludedID {
			return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
		}
		return nil
	case errors.Cause(err) == ErrNotFound:
		return nil
	default:
		return errors.Wrap(err, "checking course name")
	}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if err := svc.checkName(ctx, nc.Name, ""); err != nil {
		return Course{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		ID:          uuid.New().String(),
		Name:        nc.Name,
		Code:        nc.Code,
		Description: nc.Description,
		TeacherID:   nc.TeacherID,
		Credits:     nc.Credits,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) Update(ctx context.Context, c Course, nc NewCourse) (Course, error) {
	if err := svc.checkName(ctx, nc.Name, c.ID); err != nil {
		return Course{}, err
	}
	c.Name = nc.Name
	c.Code = nc.Code
	c.Description = nc.Description
	c.TeacherID = nc.TeacherID
	c.Credits = nc.Credits
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, core.Filter{"id": id})
}

func (svc *Service) GetByName(ctx context.Context, name string) (Course, error) {
	return svc.repo.GetCourse(ctx, core.Filter{"name": core.CleanString(name)})
}

func (svc *Service) Query(ctx context.Context, q core.Query) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, q.Only(Columns...))
}

func (svc *Service) Count(ctx context.Context, filter core.Filter) (int, error) {
	return svc.repo.CountCourses(ctx, core.Query{Filter: filter}.Only(Columns...).Filter)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if _, err := svc.repo.DeleteEnrollments(ctx, core.Filter{"course_id": ids}); err != nil {
		return 0, errors.Wrap(err, "deleting enrollments")
	}
	return svc.repo.DeleteCourses(ctx, core.Filter{"id": ids})
}

// Enroll enrolls a student in a course; enrolling twice is a no-op.
func (svc *Service) Enroll(ctx context.Context, courseID, studentID string) (Enrollment, error) {
	return svc.repo.UpsertEnrollment(ctx, Enrollment{
		ID:         uuid.New().String(),
		CourseID:   courseID,
		StudentID:  studentID,
		EnrolledAt: time.Now().UTC(),
	})
}

func (svc *Service) Unenroll(ctx context.Context, courseID, studentID string) error {
	cnt, err := svc.repo.DeleteEnrollments(ctx, core.Filter{"course_id": courseID, "student_id": studentID})
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if cnt == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

func (svc *Service) Enrollments(ctx context.Context, q core.Query) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, q.Only(EnrollmentColumns...))
}

// CoursesForStudent returns the courses a student is enrolled in, ordered by name.
func (svc *Service) CoursesForStudent(ctx context.Context, studentID string) ([]Course, error) {
	enrollments, err := svc.repo.QueryEnrollments(ctx, core.Query{Filter: core.Filter{"student_id": studentID}})
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	if len(enrollments) == 0 {
		return []Course{}, nil
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	return svc.repo.QueryCourses(ctx, core.Query{
		Filter:   core.Filter{"id": ids},
		Ordering: []core.DBOrdering{{Field: "name", Ascending: true}},
	})
}

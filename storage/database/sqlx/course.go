package sqlxrepos

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/storage/database"
)

type courseRepository struct {
	repo
	courses     Table
	enrollments Table
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{
		repo:        repo{exec: exec},
		courses:     Table{Name: database.TableCourses, NotFound: course.ErrNotFound},
		enrollments: Table{Name: database.TableEnrollments, NotFound: course.ErrEnrollmentNotFound},
	}
}

func (r courseRepository) QueryCourses(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	err := r.courses.Select(ctx, r.getExec(exec), q, &courses)
	return courses, err
}

func (r courseRepository) CountCourses(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.courses.Count(ctx, r.getExec(exec), filter)
}

func (r courseRepository) GetCourse(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (course.Course, error) {
	var c course.Course
	err := r.courses.Get(ctx, r.getExec(exec), filter, &c)
	return c, err
}

func (r courseRepository) CreateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	var created course.Course
	err := r.courses.Insert(ctx, r.getExec(exec), c, &created)
	return created, err
}

func (r courseRepository) UpdateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	var updated course.Course
	err := r.courses.Update(ctx, r.getExec(exec), c, &updated)
	return updated, err
}

func (r courseRepository) DeleteCourses(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.courses.Delete(ctx, r.getExec(exec), filter)
}

func (r courseRepository) QueryEnrollments(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]course.Enrollment, error) {
	enrollments := make([]course.Enrollment, 0)
	err := r.enrollments.Select(ctx, r.getExec(exec), q, &enrollments)
	return enrollments, err
}

func (r courseRepository) UpsertEnrollment(ctx context.Context, e course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	var upserted course.Enrollment
	err := r.enrollments.Upsert(ctx, r.getExec(exec), []string{"course_id", "student_id"}, nil, e, &upserted)
	return upserted, err
}

func (r courseRepository) DeleteEnrollments(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.enrollments.Delete(ctx, r.getExec(exec), filter)
}

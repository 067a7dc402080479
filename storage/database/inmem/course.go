package inmemdb

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/course"
)

type courseRepository struct {
	courses     *table[course.Course]
	enrollments *table[course.Enrollment]
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{courses: db.courses, enrollments: db.enrollments}
}

func (r *courseRepository) QueryCourses(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]course.Course, error) {
	return r.courses.Select(q), nil
}

func (r *courseRepository) CountCourses(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.courses.Count(filter), nil
}

func (r *courseRepository) GetCourse(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (course.Course, error) {
	return r.courses.Get(filter)
}

func (r *courseRepository) CreateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	return r.courses.Insert(c)
}

func (r *courseRepository) UpdateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	return r.courses.Update(c)
}

func (r *courseRepository) DeleteCourses(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.courses.Delete(filter), nil
}

func (r *courseRepository) QueryEnrollments(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]course.Enrollment, error) {
	return r.enrollments.Select(q), nil
}

func (r *courseRepository) UpsertEnrollment(_ context.Context, e course.Enrollment, _ ...core.DBExecutor) (course.Enrollment, error) {
	return r.enrollments.Upsert(e, []string{"course_id", "student_id"}, nil)
}

func (r *courseRepository) DeleteEnrollments(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.enrollments.Delete(filter), nil
}

package sqlxrepos

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/student"
	"github.com/trezcool/portal/storage/database"
)

type studentRepository struct {
	repo
	students Table
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{
		repo:     repo{exec: exec},
		students: Table{Name: database.TableStudents, NotFound: student.ErrNotFound},
	}
}

func (r studentRepository) QueryStudents(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]student.Student, error) {
	students := make([]student.Student, 0)
	err := r.students.Select(ctx, r.getExec(exec), q, &students)
	return students, err
}

func (r studentRepository) CountStudents(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.students.Count(ctx, r.getExec(exec), filter)
}

func (r studentRepository) GetStudent(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (student.Student, error) {
	var s student.Student
	err := r.students.Get(ctx, r.getExec(exec), filter, &s)
	return s, err
}

func (r studentRepository) CreateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	var created student.Student
	err := r.students.Insert(ctx, r.getExec(exec), s, &created)
	return created, err
}

func (r studentRepository) UpdateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	var updated student.Student
	err := r.students.Update(ctx, r.getExec(exec), s, &updated)
	return updated, err
}

func (r studentRepository) DeleteStudents(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.students.Delete(ctx, r.getExec(exec), filter)
}

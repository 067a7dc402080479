package inmemdb

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/student"
)

type studentRepository struct {
	students *table[student.Student]
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{students: db.students}
}

func (r *studentRepository) QueryStudents(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]student.Student, error) {
	return r.students.Select(q), nil
}

func (r *studentRepository) CountStudents(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.students.Count(filter), nil
}

func (r *studentRepository) GetStudent(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (student.Student, error) {
	return r.students.Get(filter)
}

func (r *studentRepository) CreateStudent(_ context.Context, s student.Student, _ ...core.DBExecutor) (student.Student, error) {
	return r.students.Insert(s)
}

func (r *studentRepository) UpdateStudent(_ context.Context, s student.Student, _ ...core.DBExecutor) (student.Student, error) {
	return r.students.Update(s)
}

func (r *studentRepository) DeleteStudents(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.students.Delete(filter), nil
}

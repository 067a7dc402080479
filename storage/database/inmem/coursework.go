package inmemdb

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/coursework"
)

var gradeUpdateColumns = []string{"course_id", "score", "max_score", "remarks", "graded_at"}

type courseworkRepository struct {
	assignments *table[coursework.Assignment]
	exams       *table[coursework.Exam]
	grades      *table[coursework.Grade]
}

var _ coursework.Repository = (*courseworkRepository)(nil)

func NewCourseworkRepository(db *DB) *courseworkRepository {
	return &courseworkRepository{assignments: db.assignments, exams: db.exams, grades: db.grades}
}

func (r *courseworkRepository) QueryAssignments(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]coursework.Assignment, error) {
	return r.assignments.Select(q), nil
}

func (r *courseworkRepository) CountAssignments(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.assignments.Count(filter), nil
}

func (r *courseworkRepository) GetAssignment(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (coursework.Assignment, error) {
	return r.assignments.Get(filter)
}

func (r *courseworkRepository) CreateAssignment(_ context.Context, a coursework.Assignment, _ ...core.DBExecutor) (coursework.Assignment, error) {
	return r.assignments.Insert(a)
}

func (r *courseworkRepository) UpdateAssignment(_ context.Context, a coursework.Assignment, _ ...core.DBExecutor) (coursework.Assignment, error) {
	return r.assignments.Update(a)
}

func (r *courseworkRepository) DeleteAssignments(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.assignments.Delete(filter), nil
}

func (r *courseworkRepository) QueryExams(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]coursework.Exam, error) {
	return r.exams.Select(q), nil
}

func (r *courseworkRepository) CountExams(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.exams.Count(filter), nil
}

func (r *courseworkRepository) GetExam(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (coursework.Exam, error) {
	return r.exams.Get(filter)
}

func (r *courseworkRepository) CreateExam(_ context.Context, e coursework.Exam, _ ...core.DBExecutor) (coursework.Exam, error) {
	return r.exams.Insert(e)
}

func (r *courseworkRepository) UpdateExam(_ context.Context, e coursework.Exam, _ ...core.DBExecutor) (coursework.Exam, error) {
	return r.exams.Update(e)
}

func (r *courseworkRepository) DeleteExams(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.exams.Delete(filter), nil
}

func (r *courseworkRepository) QueryGrades(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]coursework.Grade, error) {
	return r.grades.Select(q), nil
}

func (r *courseworkRepository) CountGrades(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.grades.Count(filter), nil
}

func (r *courseworkRepository) UpsertGrade(_ context.Context, g coursework.Grade, _ ...core.DBExecutor) (coursework.Grade, error) {
	conflict := []string{"student_id", "assignment_id"}
	if g.AssignmentID == nil {
		conflict = []string{"student_id", "exam_id"}
	}
	return r.grades.Upsert(g, conflict, gradeUpdateColumns)
}

func (r *courseworkRepository) DeleteGrades(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.grades.Delete(filter), nil
}

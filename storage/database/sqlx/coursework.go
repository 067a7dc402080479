package sqlxrepos

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/coursework"
	"github.com/trezcool/portal/storage/database"
)

var gradeUpdateColumns = []string{"course_id", "score", "max_score", "remarks", "graded_at"}

type courseworkRepository struct {
	repo
	assignments Table
	exams       Table
	grades      Table
}

var _ coursework.Repository = (*courseworkRepository)(nil)

func NewCourseworkRepository(exec core.DBExecutor) *courseworkRepository {
	return &courseworkRepository{
		repo:        repo{exec: exec},
		assignments: Table{Name: database.TableAssignments, NotFound: coursework.ErrAssignmentNotFound},
		exams:       Table{Name: database.TableExams, NotFound: coursework.ErrExamNotFound},
		grades:      Table{Name: database.TableGrades, NotFound: coursework.ErrGradeNotFound},
	}
}

func (r courseworkRepository) QueryAssignments(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]coursework.Assignment, error) {
	assignments := make([]coursework.Assignment, 0)
	err := r.assignments.Select(ctx, r.getExec(exec), q, &assignments)
	return assignments, err
}

func (r courseworkRepository) CountAssignments(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.assignments.Count(ctx, r.getExec(exec), filter)
}

func (r courseworkRepository) GetAssignment(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (coursework.Assignment, error) {
	var a coursework.Assignment
	err := r.assignments.Get(ctx, r.getExec(exec), filter, &a)
	return a, err
}

func (r courseworkRepository) CreateAssignment(ctx context.Context, a coursework.Assignment, exec ...core.DBExecutor) (coursework.Assignment, error) {
	var created coursework.Assignment
	err := r.assignments.Insert(ctx, r.getExec(exec), a, &created)
	return created, err
}

func (r courseworkRepository) UpdateAssignment(ctx context.Context, a coursework.Assignment, exec ...core.DBExecutor) (coursework.Assignment, error) {
	var updated coursework.Assignment
	err := r.assignments.Update(ctx, r.getExec(exec), a, &updated)
	return updated, err
}

func (r courseworkRepository) DeleteAssignments(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.assignments.Delete(ctx, r.getExec(exec), filter)
}

func (r courseworkRepository) QueryExams(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]coursework.Exam, error) {
	exams := make([]coursework.Exam, 0)
	err := r.exams.Select(ctx, r.getExec(exec), q, &exams)
	return exams, err
}

func (r courseworkRepository) CountExams(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.exams.Count(ctx, r.getExec(exec), filter)
}

func (r courseworkRepository) GetExam(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (coursework.Exam, error) {
	var e coursework.Exam
	err := r.exams.Get(ctx, r.getExec(exec), filter, &e)
	return e, err
}

func (r courseworkRepository) CreateExam(ctx context.Context, e coursework.Exam, exec ...core.DBExecutor) (coursework.Exam, error) {
	var created coursework.Exam
	err := r.exams.Insert(ctx, r.getExec(exec), e, &created)
	return created, err
}

func (r courseworkRepository) UpdateExam(ctx context.Context, e coursework.Exam, exec ...core.DBExecutor) (coursework.Exam, error) {
	var updated coursework.Exam
	err := r.exams.Update(ctx, r.getExec(exec), e, &updated)
	return updated, err
}

func (r courseworkRepository) DeleteExams(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.exams.Delete(ctx, r.getExec(exec), filter)
}

func (r courseworkRepository) QueryGrades(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]coursework.Grade, error) {
	grades := make([]coursework.Grade, 0)
	err := r.grades.Select(ctx, r.getExec(exec), q, &grades)
	return grades, err
}

func (r courseworkRepository) CountGrades(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.grades.Count(ctx, r.getExec(exec), filter)
}

func (r courseworkRepository) UpsertGrade(ctx context.Context, g coursework.Grade, exec ...core.DBExecutor) (coursework.Grade, error) {
	conflict := []string{"student_id", "assignment_id"}
	if g.AssignmentID == nil {
		conflict = []string{"student_id", "exam_id"}
	}
	var upserted coursework.Grade
	err := r.grades.Upsert(ctx, r.getExec(exec), conflict, gradeUpdateColumns, g, &upserted)
	return upserted, err
}

func (r courseworkRepository) DeleteGrades(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.grades.Delete(ctx, r.getExec(exec), filter)
}

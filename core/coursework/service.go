package coursework

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
)

var (
	// errors
	ErrAssignmentNotFound = core.NewNotFoundError("assignment")
	ErrExamNotFound       = core.NewNotFoundError("exam")
	ErrGradeNotFound      = core.NewNotFoundError("grade")
	ErrScoreTooHigh       = errors.New("score is greater than the max score")
)

type (
	Repository interface {
		QueryAssignments(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]Assignment, error)
		CountAssignments(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
		GetAssignment(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (Assignment, error)
		CreateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		DeleteAssignments(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)

		QueryExams(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]Exam, error)
		CountExams(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
		GetExam(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (Exam, error)
		CreateExam(ctx context.Context, e Exam, exec ...core.DBExecutor) (Exam, error)
		UpdateExam(ctx context.Context, e Exam, exec ...core.DBExecutor) (Exam, error)
		DeleteExams(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)

		QueryGrades(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]Grade, error)
		CountGrades(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
		// UpsertGrade replaces the Grade of the same student for the same assignment (or exam).
		UpsertGrade(ctx context.Context, g Grade, exec ...core.DBExecutor) (Grade, error)
		DeleteGrades(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateAssignment(ctx context.Context, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	return svc.repo.CreateAssignment(ctx, Assignment{
		ID:          uuid.New().String(),
		CourseID:    na.CourseID,
		Title:       na.Title,
		Description: na.Description,
		DueAt:       na.DueAt.UTC(),
		MaxScore:    na.MaxScore,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) UpdateAssignment(ctx context.Context, a Assignment, na NewAssignment) (Assignment, error) {
	a.Title = na.Title
	a.Description = na.Description
	a.DueAt = na.DueAt.UTC()
	a.MaxScore = na.MaxScore
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, a)
}

func (svc *Service) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, core.Filter{"id": id})
}

func (svc *Service) QueryAssignments(ctx context.Context, q core.Query) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, q.Only(AssignmentColumns...))
}

func (svc *Service) CountAssignments(ctx context.Context, filter core.Filter) (int, error) {
	return svc.repo.CountAssignments(ctx, core.Query{Filter: filter}.Only(AssignmentColumns...).Filter)
}

func (svc *Service) DeleteAssignments(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteAssignments(ctx, core.Filter{"id": ids})
}

func (svc *Service) CreateExam(ctx context.Context, ne NewExam) (Exam, error) {
	now := time.Now().UTC()
	return svc.repo.CreateExam(ctx, Exam{
		ID:              uuid.New().String(),
		CourseID:        ne.CourseID,
		Title:           ne.Title,
		Room:            ne.Room,
		StartsAt:        ne.StartsAt.UTC(),
		DurationMinutes: ne.DurationMinutes,
		MaxScore:        ne.MaxScore,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (svc *Service) UpdateExam(ctx context.Context, e Exam, ne NewExam) (Exam, error) {
	e.Title = ne.Title
	e.Room = ne.Room
	e.StartsAt = ne.StartsAt.UTC()
	e.DurationMinutes = ne.DurationMinutes
	e.MaxScore = ne.MaxScore
	e.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateExam(ctx, e)
}

func (svc *Service) GetExam(ctx context.Context, id string) (Exam, error) {
	return svc.repo.GetExam(ctx, core.Filter{"id": id})
}

func (svc *Service) QueryExams(ctx context.Context, q core.Query) ([]Exam, error) {
	return svc.repo.QueryExams(ctx, q.Only(ExamColumns...))
}

func (svc *Service) CountExams(ctx context.Context, filter core.Filter) (int, error) {
	return svc.repo.CountExams(ctx, core.Query{Filter: filter}.Only(ExamColumns...).Filter)
}

func (svc *Service) DeleteExams(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteExams(ctx, core.Filter{"id": ids})
}

// RecordGrade creates or replaces the grade of a student for an assignment or an exam.
// The course and max score are taken from the graded assignment (or exam).
func (svc *Service) RecordGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	g := Grade{
		ID:        uuid.New().String(),
		StudentID: ng.StudentID,
		Score:     ng.Score,
		Remarks:   ng.Remarks,
		GradedAt:  time.Now().UTC(),
	}

	if ng.AssignmentID != "" {
		a, err := svc.GetAssignment(ctx, ng.AssignmentID)
		if err != nil {
			return Grade{}, err
		}
		g.CourseID = a.CourseID
		g.AssignmentID = &a.ID
		g.MaxScore = a.MaxScore
	} else {
		e, err := svc.GetExam(ctx, ng.ExamID)
		if err != nil {
			return Grade{}, err
		}
		g.CourseID = e.CourseID
		g.ExamID = &e.ID
		g.MaxScore = e.MaxScore
	}

	if g.Score > g.MaxScore {
		return Grade{}, core.NewValidationError(ErrScoreTooHigh, core.FieldError{Field: "score", Error: ErrScoreTooHigh.Error()})
	}
	return svc.repo.UpsertGrade(ctx, g)
}

func (svc *Service) QueryGrades(ctx context.Context, q core.Query) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, q.Only(GradeColumns...))
}

func (svc *Service) CountGrades(ctx context.Context, filter core.Filter) (int, error) {
	return svc.repo.CountGrades(ctx, core.Query{Filter: filter}.Only(GradeColumns...).Filter)
}

func (svc *Service) DeleteGrades(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteGrades(ctx, core.Filter{"id": ids})
}

// ForCourses returns the assignments and exams of the given courses.
func (svc *Service) ForCourses(ctx context.Context, courseIDs []string) ([]Assignment, []Exam, error) {
	if len(courseIDs) == 0 {
		return []Assignment{}, []Exam{}, nil
	}
	q := core.Query{Filter: core.Filter{"course_id": courseIDs}}
	assignments, err := svc.repo.QueryAssignments(ctx, q)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying assignments")
	}
	exams, err := svc.repo.QueryExams(ctx, q)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying exams")
	}
	return assignments, exams, nil
}

package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/portal/core"
)

var ErrNotFound = core.NewNotFoundError("attendance record")

type (
	Repository interface {
		QueryAttendance(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]Record, error)
		CountAttendance(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
		GetAttendance(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (Record, error)
		// UpsertAttendance replaces the Record of the same student, course & date.
		UpsertAttendance(ctx context.Context, r Record, exec ...core.DBExecutor) (Record, error)
		DeleteAttendance(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Mark records the attendance of a student for a course on a given day.
// Marking the same day again overwrites the status.
func (svc *Service) Mark(ctx context.Context, nr NewRecord) (Record, error) {
	return svc.repo.UpsertAttendance(ctx, Record{
		ID:        uuid.New().String(),
		StudentID: nr.StudentID,
		CourseID:  nr.CourseID,
		Date:      Day(nr.Date),
		Status:    nr.Status,
		Note:      nr.Note,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetAttendance(ctx, core.Filter{"id": id})
}

func (svc *Service) Query(ctx context.Context, q core.Query) ([]Record, error) {
	return svc.repo.QueryAttendance(ctx, q.Only(Columns...))
}

func (svc *Service) Count(ctx context.Context, filter core.Filter) (int, error) {
	return svc.repo.CountAttendance(ctx, core.Query{Filter: filter}.Only(Columns...).Filter)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteAttendance(ctx, core.Filter{"id": ids})
}

// SummaryForStudent summarizes all the attendance records of a student.
func (svc *Service) SummaryForStudent(ctx context.Context, studentID string) (Summary, error) {
	records, err := svc.repo.QueryAttendance(ctx, core.Query{Filter: core.Filter{"student_id": studentID}})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(records), nil
}

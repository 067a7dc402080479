package sqlxrepos

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/attendance"
	"github.com/trezcool/portal/storage/database"
)

type attendanceRepository struct {
	repo
	attendance Table
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{
		repo:       repo{exec: exec},
		attendance: Table{Name: database.TableAttendance, NotFound: attendance.ErrNotFound},
	}
}

func (r attendanceRepository) QueryAttendance(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]attendance.Record, error) {
	records := make([]attendance.Record, 0)
	err := r.attendance.Select(ctx, r.getExec(exec), q, &records)
	return records, err
}

func (r attendanceRepository) CountAttendance(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.attendance.Count(ctx, r.getExec(exec), filter)
}

func (r attendanceRepository) GetAttendance(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (attendance.Record, error) {
	var rec attendance.Record
	err := r.attendance.Get(ctx, r.getExec(exec), filter, &rec)
	return rec, err
}

func (r attendanceRepository) UpsertAttendance(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	var upserted attendance.Record
	err := r.attendance.Upsert(
		ctx, r.getExec(exec),
		[]string{"student_id", "course_id", "date"}, []string{"status", "note"},
		rec, &upserted,
	)
	return upserted, err
}

func (r attendanceRepository) DeleteAttendance(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.attendance.Delete(ctx, r.getExec(exec), filter)
}

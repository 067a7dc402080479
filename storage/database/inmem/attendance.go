package inmemdb

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/attendance"
)

type attendanceRepository struct {
	records *table[attendance.Record]
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{records: db.attendance}
}

func (r *attendanceRepository) QueryAttendance(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]attendance.Record, error) {
	return r.records.Select(q), nil
}

func (r *attendanceRepository) CountAttendance(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.records.Count(filter), nil
}

func (r *attendanceRepository) GetAttendance(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (attendance.Record, error) {
	return r.records.Get(filter)
}

func (r *attendanceRepository) UpsertAttendance(_ context.Context, rec attendance.Record, _ ...core.DBExecutor) (attendance.Record, error) {
	return r.records.Upsert(rec, []string{"student_id", "course_id", "date"}, []string{"status", "note"})
}

func (r *attendanceRepository) DeleteAttendance(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.records.Delete(filter), nil
}

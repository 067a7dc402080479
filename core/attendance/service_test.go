package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/attendance"
	inmemdb "github.com/trezcool/portal/storage/database/inmem"
	testutil "github.com/trezcool/portal/tests"
)

func TestService_Mark(t *testing.T) {
	ctx := context.Background()
	svc := attendance.NewService(inmemdb.NewAttendanceRepository(inmemdb.Open(nil)))
	morning := time.Date(2021, 3, 1, 8, 0, 0, 0, time.UTC)

	r, err := svc.Mark(ctx, attendance.NewRecord{StudentID: "s1", CourseID: "c1", Date: morning, Status: attendance.StatusAbsent})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), r.Date)

	// marking the same day again overwrites the status
	r2, err := svc.Mark(ctx, attendance.NewRecord{StudentID: "s1", CourseID: "c1", Date: morning.Add(4 * time.Hour), Status: attendance.StatusLate, Note: "bus"})
	require.NoError(t, err)
	assert.Equal(t, r.ID, r2.ID)
	assert.Equal(t, attendance.StatusLate, r2.Status)
	assert.Equal(t, "bus", r2.Note)

	_, err = svc.Mark(ctx, attendance.NewRecord{StudentID: "s1", CourseID: "c2", Date: morning, Status: attendance.StatusPresent})
	require.NoError(t, err)
	_, err = svc.Mark(ctx, attendance.NewRecord{StudentID: "s2", CourseID: "c1", Date: morning, Status: attendance.StatusAbsent})
	require.NoError(t, err)

	cnt, err := svc.Count(ctx, core.Filter{"student_id": "s1"})
	require.NoError(t, err)
	assert.Equal(t, 2, cnt)

	sum, err := svc.SummaryForStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, attendance.Summary{Total: 2, Present: 1, Late: 1, Percentage: 100}, sum)

	n, err := svc.Delete(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = svc.Get(ctx, r.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestNewRecord_Validate(t *testing.T) {
	nr := attendance.NewRecord{
		StudentID: "0b8e6a54-55a6-4a89-9d4e-0fbb4e6b7e3a",
		CourseID:  "6f1c0d7e-2b8a-4e0b-9f0e-3d1c2b4a5e6f",
		Date:      time.Now(),
		Status:    " Present ",
	}
	validate := testutil.NewValidator()
	require.NoError(t, nr.Validate(validate))
	assert.Equal(t, attendance.StatusPresent, nr.Status)

	nr.Status = "sick"
	assert.Error(t, nr.Validate(validate))
}

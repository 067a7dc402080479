package coursework

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGradePercentage(t *testing.T) {
	tests := []struct {
		name  string
		grade Grade
		want  float64
	}{
		{name: "full marks", grade: Grade{Score: 20, MaxScore: 20}, want: 100},
		{name: "zero", grade: Grade{Score: 0, MaxScore: 20}, want: 0},
		{name: "rounded", grade: Grade{Score: 2, MaxScore: 3}, want: 66.67},
		{name: "no max score", grade: Grade{Score: 5}, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.grade.Percentage())
		})
	}
}

func TestAverageGrade(t *testing.T) {
	tests := []struct {
		name   string
		grades []Grade
		want   float64
	}{
		{name: "no grades", want: 0},
		{name: "single", grades: []Grade{{Score: 45, MaxScore: 50}}, want: 90},
		{
			name:   "weighted by max score",
			grades: []Grade{{Score: 10, MaxScore: 20}, {Score: 80, MaxScore: 80}},
			want:   90,
		},
		{
			name:   "ignores invalid max score",
			grades: []Grade{{Score: 10, MaxScore: 0}, {Score: 7, MaxScore: 10}},
			want:   70,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AverageGrade(tc.grades))
		})
	}
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{100, "A"},
		{90, "A"},
		{89.99, "B"},
		{80, "B"},
		{75, "C"},
		{60, "D"},
		{59.99, "F"},
		{0, "F"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, LetterGrade(tc.pct), "pct %v", tc.pct)
	}
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2021, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("assignments", func(t *testing.T) {
		assignments := []Assignment{
			{ID: "late", DueAt: now.Add(72 * time.Hour)},
			{ID: "past", DueAt: now.Add(-time.Minute)},
			{ID: "now", DueAt: now},
			{ID: "soon", DueAt: now.Add(time.Hour)},
		}
		got := UpcomingAssignments(assignments, now)
		var ids []string
		for _, a := range got {
			ids = append(ids, a.ID)
		}
		assert.Equal(t, []string{"now", "soon", "late"}, ids)
	})

	t.Run("exams", func(t *testing.T) {
		exams := []Exam{
			{ID: "past", StartsAt: now.AddDate(0, -1, 0)},
			{ID: "next-week", StartsAt: now.AddDate(0, 0, 7)},
			{ID: "tomorrow", StartsAt: now.AddDate(0, 0, 1)},
		}
		got := UpcomingExams(exams, now)
		var ids []string
		for _, e := range got {
			ids = append(ids, e.ID)
		}
		assert.Equal(t, []string{"tomorrow", "next-week"}, ids)
	})

	t.Run("none", func(t *testing.T) {
		assert.Empty(t, UpcomingExams(nil, now))
		assert.Empty(t, UpcomingAssignments([]Assignment{{DueAt: now.Add(-time.Second)}}, now))
	})
}

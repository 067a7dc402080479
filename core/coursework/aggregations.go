package coursework

import (
	"sort"
	"time"
)

// AverageGrade returns the overall percentage of grades: total score over total max score.
// No grades gives 0.
func AverageGrade(grades []Grade) float64 {
	var score, max float64
	for _, g := range grades {
		if g.MaxScore <= 0 {
			continue
		}
		score += g.Score
		max += g.MaxScore
	}
	if max == 0 {
		return 0
	}
	return round2(score / max * 100)
}

var letterGrades = []struct {
	min    float64
	letter string
}{
	{90, "A"},
	{80, "B"},
	{70, "C"},
	{60, "D"},
}

func LetterGrade(pct float64) string {
	for _, lg := range letterGrades {
		if pct >= lg.min {
			return lg.letter
		}
	}
	return "F"
}

// UpcomingAssignments returns the assignments due at or after now, soonest first.
func UpcomingAssignments(assignments []Assignment, now time.Time) []Assignment {
	upcoming := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if !a.DueAt.Before(now) {
			upcoming = append(upcoming, a)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueAt.Before(upcoming[j].DueAt)
	})
	return upcoming
}

// UpcomingExams returns the exams starting at or after now, soonest first.
func UpcomingExams(exams []Exam, now time.Time) []Exam {
	upcoming := make([]Exam, 0, len(exams))
	for _, e := range exams {
		if !e.StartsAt.Before(now) {
			upcoming = append(upcoming, e)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].StartsAt.Before(upcoming[j].StartsAt)
	})
	return upcoming
}

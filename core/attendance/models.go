package attendance

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/portal/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

var Statuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

type Record struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	CourseID  string    `json:"course_id" db:"course_id"`
	Date      time.Time `json:"date" db:"date"`
	Status    string    `json:"status" db:"status"`
	Note      string    `json:"note" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

var Columns = []string{"id", "student_id", "course_id", "date", "status", "created_at"}

// Summary counts the attendance records of a student.
// Percentage is the share of attended (present or late) records.
type Summary struct {
	Total      int     `json:"total"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Late       int     `json:"late"`
	Excused    int     `json:"excused"`
	Percentage float64 `json:"percentage"`
}

func Summarize(records []Record) Summary {
	var sum Summary
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			sum.Present++
		case StatusAbsent:
			sum.Absent++
		case StatusLate:
			sum.Late++
		case StatusExcused:
			sum.Excused++
		default:
			continue
		}
		sum.Total++
	}
	if sum.Total > 0 {
		pct := float64(sum.Present+sum.Late) / float64(sum.Total) * 100
		sum.Percentage = math.Round(pct*100) / 100
	}
	return sum
}

type NewRecord struct {
	StudentID string    `json:"student_id" validate:"required,uuid"`
	CourseID  string    `json:"course_id" validate:"required,uuid"`
	Date      time.Time `json:"date" validate:"required"`
	Status    string    `json:"status" validate:"required,oneof=present absent late excused"`
	Note      string    `json:"note"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.Status = core.CleanString(nr.Status, true /* lower */)
	nr.Note = core.CleanString(nr.Note)
	return validate.Struct(nr)
}

// Day truncates t to its UTC date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

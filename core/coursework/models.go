package coursework

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/portal/core"
)

type Assignment struct {
	ID          string    `json:"id" db:"id"`
	CourseID    string    `json:"course_id" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	DueAt       time.Time `json:"due_at" db:"due_at"`
	MaxScore    float64   `json:"max_score" db:"max_score"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Exam struct {
	ID              string    `json:"id" db:"id"`
	CourseID        string    `json:"course_id" db:"course_id"`
	Title           string    `json:"title" db:"title"`
	Room            string    `json:"room" db:"room"`
	StartsAt        time.Time `json:"starts_at" db:"starts_at"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	MaxScore        float64   `json:"max_score" db:"max_score"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Grade is the score of a student for either an Assignment or an Exam.
type Grade struct {
	ID           string    `json:"id" db:"id"`
	StudentID    string    `json:"student_id" db:"student_id"`
	CourseID     string    `json:"course_id" db:"course_id"`
	AssignmentID *string   `json:"assignment_id" db:"assignment_id"`
	ExamID       *string   `json:"exam_id" db:"exam_id"`
	Score        float64   `json:"score" db:"score"`
	MaxScore     float64   `json:"max_score" db:"max_score"`
	Remarks      string    `json:"remarks" db:"remarks"`
	GradedAt     time.Time `json:"graded_at" db:"graded_at"`
}

// Percentage returns Score / MaxScore as a percentage, rounded to 2 decimals.
func (g Grade) Percentage() float64 {
	if g.MaxScore <= 0 {
		return 0
	}
	return round2(g.Score / g.MaxScore * 100)
}

var (
	AssignmentColumns = []string{"id", "course_id", "title", "due_at", "max_score", "created_at", "updated_at"}
	ExamColumns       = []string{"id", "course_id", "title", "room", "starts_at", "max_score", "created_at", "updated_at"}
	GradeColumns      = []string{"id", "student_id", "course_id", "assignment_id", "exam_id", "score", "graded_at"}
)

type NewAssignment struct {
	CourseID    string    `json:"course_id" validate:"required,uuid"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at" validate:"required"`
	MaxScore    float64   `json:"max_score" validate:"omitempty,gt=0"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	if na.MaxScore == 0 {
		na.MaxScore = 100
	}
	return validate.Struct(na)
}

type NewExam struct {
	CourseID        string    `json:"course_id" validate:"required,uuid"`
	Title           string    `json:"title" validate:"required,max=200"`
	Room            string    `json:"room"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,gt=0"`
	MaxScore        float64   `json:"max_score" validate:"omitempty,gt=0"`
}

func (ne *NewExam) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Room = core.CleanString(ne.Room)
	if ne.DurationMinutes == 0 {
		ne.DurationMinutes = 60
	}
	if ne.MaxScore == 0 {
		ne.MaxScore = 100
	}
	return validate.Struct(ne)
}

// NewGrade grades a student for an assignment or an exam; AssignmentID wins when both are set.
type NewGrade struct {
	StudentID    string  `json:"student_id" validate:"required,uuid"`
	AssignmentID string  `json:"assignment_id" validate:"required_without=ExamID,omitempty,uuid"`
	ExamID       string  `json:"exam_id" validate:"required_without=AssignmentID,omitempty,uuid"`
	Score        float64 `json:"score" validate:"gte=0"`
	Remarks      string  `json:"remarks"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Remarks = core.CleanString(ng.Remarks)
	return validate.Struct(ng)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

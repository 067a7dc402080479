package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/portal/core"
)

type Course struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
	TeacherID   *string   `json:"teacher_id" db:"teacher_id"`
	Credits     int       `json:"credits" db:"credits"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Enrollment struct {
	ID         string    `json:"id" db:"id"`
	CourseID   string    `json:"course_id" db:"course_id"`
	StudentID  string    `json:"student_id" db:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at" db:"enrolled_at"`
}

var (
	Columns           = []string{"id", "name", "code", "teacher_id", "credits", "created_at", "updated_at"}
	EnrollmentColumns = []string{"id", "course_id", "student_id", "enrolled_at"}
)

// NewCourse contains information needed to create (or update) a Course.
type NewCourse struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Code        string  `json:"code" validate:"max=50"`
	Description string  `json:"description"`
	TeacherID   *string `json:"teacher_id" validate:"omitempty,uuid"`
	Credits     int     `json:"credits" validate:"gte=0,lte=60"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type NewEnrollment struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
}

func (ne NewEnrollment) Validate(validate *validator.Validate) error { return validate.Struct(ne) }

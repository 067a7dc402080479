package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/user"
)

// Student is the school record of a User with the student role.
type Student struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Name          string    `json:"name" db:"name"`
	StudentNumber string    `json:"student_number" db:"student_number"`
	ClassName     string    `json:"class_name" db:"class_name"`
	Phone         string    `json:"phone" db:"phone"`
	Address       string    `json:"address" db:"address"`
	GuardianName  string    `json:"guardian_name" db:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone" db:"guardian_phone"`
	EnrolledAt    time.Time `json:"enrolled_at" db:"enrolled_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is what a student sees of themselves. It never holds the password.
type Profile struct {
	User    user.User `json:"user"`
	Student Student   `json:"student"`
}

// Columns usable in filters & orderings.
var Columns = []string{"id", "user_id", "name", "student_number", "class_name", "enrolled_at", "created_at", "updated_at"}

// NewStudent contains information needed to create a new Student along with their User account.
type NewStudent struct {
	Name          string    `json:"name" validate:"required"`
	Username      string    `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email         string    `json:"email" validate:"omitempty,email"`
	Password      string    `json:"password" validate:"required"`
	StudentNumber string    `json:"student_number"`
	ClassName     string    `json:"class_name"`
	Phone         string    `json:"phone" validate:"omitempty,phone"`
	Address       string    `json:"address"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone" validate:"omitempty,phone"`
	EnrolledAt    time.Time `json:"enrolled_at"`
}

func (ns *NewStudent) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Username = core.CleanString(ns.Username, true /* lower */)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.StudentNumber = core.CleanString(ns.StudentNumber)
	ns.ClassName = core.CleanString(ns.ClassName)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Address = core.CleanString(ns.Address)
	ns.GuardianName = core.CleanString(ns.GuardianName)
	ns.GuardianPhone = core.CleanString(ns.GuardianPhone)
}

// Validate checks the student fields, then the account rules of user.NewUser (password policy, username or email).
func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return validate.Struct(ns.NewUser())
}

// NewUser returns the account part of the new Student.
func (ns NewStudent) NewUser() user.NewUser {
	return user.NewUser{
		Name:            ns.Name,
		Username:        ns.Username,
		Email:           ns.Email,
		Password:        ns.Password,
		PasswordConfirm: ns.Password,
		Roles:           []string{user.RoleStudent},
	}
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields are left unchanged.
type UpdateStudent struct {
	Name          string `json:"name"`
	StudentNumber string `json:"student_number"`
	ClassName     string `json:"class_name"`
	Phone         string `json:"phone" validate:"omitempty,phone"`
	Address       string `json:"address"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone" validate:"omitempty,phone"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

func (us UpdateStudent) apply(s Student) Student {
	set := func(dst *string, val string) {
		if val = core.CleanString(val); val != "" {
			*dst = val
		}
	}
	set(&s.Name, us.Name)
	set(&s.StudentNumber, us.StudentNumber)
	set(&s.ClassName, us.ClassName)
	set(&s.Phone, us.Phone)
	set(&s.Address, us.Address)
	set(&s.GuardianName, us.GuardianName)
	set(&s.GuardianPhone, us.GuardianPhone)
	return s
}

// LoginRequest is the authentication check input.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

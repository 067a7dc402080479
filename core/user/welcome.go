package user

import (
	"context"
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
)

// WelcomeEmail is the content of the welcome email sent to a new account holder.
// Role is either a role value ("teacher:") or a free display name.
type WelcomeEmail struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

func (we *WelcomeEmail) Validate(validate *validator.Validate) error {
	we.Email = core.CleanString(we.Email, true /* lower */)
	we.Name = core.CleanString(we.Name)
	we.Role = core.CleanString(we.Role)
	return validate.Struct(we)
}

func (we WelcomeEmail) message() *core.EmailMessage {
	role := we.Role
	switch {
	case role == "":
		role = RoleName(RoleStudent)
	case strings.Contains(role, ":"):
		role = RoleName(strings.ToLower(role))
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: we.Name, Address: we.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: map[string]string{
			"Name":     we.Name,
			"Email":    we.Email,
			"Password": we.Password,
			"Role":     role,
		},
	}
}

// SendWelcomeEmail sends the welcome email and waits for the provider's answer.
func (svc *service) SendWelcomeEmail(ctx context.Context, we WelcomeEmail) error {
	return errors.Wrap(svc.mailSvc.Send(ctx, we.message()), "sending welcome email")
}

package user

import (
	"context"

	"github.com/trezcool/portal/core"
)

// serviceMock sends emails synchronously so that tests can inspect them.
type serviceMock struct {
	service
}

func NewServiceMock(repo Repository, mailSvc core.EmailService) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	msg, err := svc.passwordResetMail(usr)
	if err != nil || msg == nil {
		return err
	}
	return svc.mailSvc.Send(ctx, msg)
}

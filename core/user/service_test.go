package user_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/user"
	emailsvc "github.com/trezcool/portal/services/email"
	inmemdb "github.com/trezcool/portal/storage/database/inmem"
	testutil "github.com/trezcool/portal/tests"
)

func newService() (user.Service, user.Repository) {
	logger := testutil.NewLogger()
	core.ParseEmailTemplates(logger)
	repo := inmemdb.NewUserRepository(inmemdb.Open(nil))
	return user.NewServiceMock(repo, emailsvc.NewConsoleServiceMock(logger)), repo
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := newService()
	testutil.CreateUser(t, repo, "Admin", "admin", "admin@example.com", "Kf9#mLq2", []string{user.RoleAdmin}, true)
	testutil.CreateUser(t, repo, "N Dog", "ndog", "ndog@example.com", "Kf9#mLq2", nil, false)

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{"username", "admin", "Kf9#mLq2", nil},
		{"email", "admin@example.com", "Kf9#mLq2", nil},
		{"wrong password", "admin", "nope", user.ErrInvalidCredentials},
		{"unknown", "ghost", "Kf9#mLq2", user.ErrInvalidCredentials},
		{"deactivated", "ndog", "Kf9#mLq2", user.ErrAccountDeactivated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			usr, err := svc.Authenticate(context.Background(), tc.uname, tc.pwd)
			if tc.wantErr != nil {
				assert.Equal(t, tc.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.False(t, usr.LastLogin.IsZero())
		})
	}
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()
	usr := testutil.CreateUser(t, repo, "Jane", "jane", "jane@example.com", "Kf9#mLq2", nil, true)
	emailsvc.ClearSentMessages()

	assert.True(t, core.IsNotFound(svc.RequestPasswordReset(ctx, "ghost@example.com")))

	require.NoError(t, svc.RequestPasswordReset(ctx, usr.Email))
	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	data := msg.TemplateData.(map[string]string)
	assert.Contains(t, msg.TextContent, data["Token"])

	err := svc.ResetPassword(ctx, user.ResetUserPassword{UID: data["UID"], Token: "bad-token", Password: "Zq7!wErt", PasswordConfirm: "Zq7!wErt"})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, user.ErrInvalidResetLink, verr.Err)

	err = svc.ResetPassword(ctx, user.ResetUserPassword{UID: data["UID"], Token: data["Token"], Password: "Zq7!wErt", PasswordConfirm: "Zq7!wErt"})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "jane", "Zq7!wErt")
	assert.NoError(t, err)
}

func TestService_SendWelcomeEmail(t *testing.T) {
	svc, _ := newService()
	validate := testutil.NewValidator()
	emailsvc.ClearSentMessages()

	we := user.WelcomeEmail{Email: " Jane@Example.com ", Name: "Jane Doe", Password: "Kf9#mLq2", Role: user.RoleTeacher}
	require.NoError(t, we.Validate(validate))
	require.NoError(t, svc.SendWelcomeEmail(context.Background(), we))

	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", msg.To[0].Address)
	assert.Equal(t, "Welcome", msg.Subject)
	assert.Contains(t, msg.TextContent, "as Teacher")
	assert.Contains(t, msg.TextContent, "Kf9#mLq2")
	assert.Contains(t, msg.HTMLContent, "Jane Doe")

	bad := user.WelcomeEmail{Email: "nope", Password: "x"}
	assert.Error(t, bad.Validate(validate))
}

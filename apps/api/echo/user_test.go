package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/portal/apps/api/echo"
	"github.com/trezcool/portal/core/user"
	emailsvc "github.com/trezcool/portal/services/email"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin", user.RoleAdmin)

	t.Run("success", func(t *testing.T) {
		rec := app.do(httpTest{method: http.MethodPost, path: "/v1/users/login", body: marshalObj(t, LoginRequest{Username: " ADMIN ", Password: "Kf9#mLq2"})})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.NotEmpty(t, res.Token)
		require.NotNil(t, res.User)
		assert.Equal(t, admin.ID, res.User.ID)
		assert.False(t, res.User.LastLogin.IsZero())
		assert.NotContains(t, rec.Body.String(), "password")
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/users/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marshalObj(t, LoginRequest{Username: "admin", Password: "nope"}),
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     marshalObj(t, LoginRequest{Username: "ghost", Password: "Kf9#mLq2"}),
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "invalid credentials"}),
		},
	})
}

func Test_userApi_loginThrottle(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Admin", "admin", user.RoleAdmin)

	wrong := httpTest{method: http.MethodPost, path: "/v1/users/login", body: marshalObj(t, LoginRequest{Username: "admin", Password: "nope"})}
	for i := 0; i < maxLoginAttempts; i++ {
		assert.Equal(t, http.StatusUnauthorized, app.do(wrong).Code)
	}

	// locked: even the right password is refused
	right := httpTest{method: http.MethodPost, path: "/v1/users/login", body: marshalObj(t, LoginRequest{Username: "admin", Password: "Kf9#mLq2"})}
	rec := app.do(right)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many failed login attempts")
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin", user.RoleAdmin)
	teacher := app.createUser(t, "Teacher", "teacher", user.RoleTeacher)
	learner := app.createUser(t, "Learner", "learner", user.RoleStudent)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/users", token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "ordered by name", path: "/v1/users?ordering=name", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marshalList(t, admin, learner, teacher),
		},
		{
			name: "unknown ordering fields are ignored", path: "/v1/users?ordering=name%3Bselect%201,password_hash,-name", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marshalList(t, teacher, learner, admin),
		},
		{
			name: "role filter", path: "/v1/users?role=" + user.RoleTeacher, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marshalList(t, teacher),
		},
		{
			name: "roles", path: "/v1/users/roles", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marshalObj(t, user.Roles),
		},
	})
}

func Test_userApi_detail(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin", user.RoleAdmin)
	teacher := app.createUser(t, "Teacher", "teacher", user.RoleTeacher)
	other := app.createUser(t, "Other", "other", user.RoleTeacher)

	runHTTPTests(t, app, []httpTest{
		{name: "self", path: "/v1/users/" + teacher.ID, token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marshalObj(t, teacher)},
		{name: "admin", path: "/v1/users/" + teacher.ID, token: getToken(t, admin), wantCode: http.StatusOK, wantData: marshalObj(t, teacher)},
		{
			name: "someone else", path: "/v1/users/" + other.ID, token: getToken(t, teacher),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "not found"}),
		},
		{name: "not a uuid", path: "/v1/users/lol", token: getToken(t, admin), wantCode: http.StatusNotFound},
		{
			name: "non admin cannot change roles", method: http.MethodPut, path: "/v1/users/" + teacher.ID, token: getToken(t, teacher),
			body: []byte(`{"roles": ["admin:"]}`), wantCode: http.StatusForbidden,
		},
		{
			name: "cannot delete self", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: getToken(t, admin),
			wantCode: http.StatusForbidden,
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: getToken(t, admin), wantCode: http.StatusNoContent},
		{name: "deleted", path: "/v1/users/" + other.ID, token: getToken(t, admin), wantCode: http.StatusNotFound},
	})

	t.Run("update name", func(t *testing.T) {
		rec := app.do(httpTest{method: http.MethodPut, path: "/v1/users/" + teacher.ID, token: getToken(t, teacher), body: []byte(`{"name": " Mr Teacher "}`)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var usr user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
		assert.Equal(t, "Mr Teacher", usr.Name)
		assert.Equal(t, teacher.Username, usr.Username)
	})
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin", user.RoleAdmin)

	rec := app.do(httpTest{
		method: http.MethodPost, path: "/v1/users/register", token: getToken(t, admin),
		body: marshalObj(t, user.NewUser{
			Name: "Teacher", Username: "teacher", Email: "teacher@example.com",
			Password: "Kf9#mLq2", PasswordConfirm: "Kf9#mLq2", Roles: []string{user.RoleTeacher},
		}),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	runHTTPTests(t, app, []httpTest{
		{
			name: "duplicate username", method: http.MethodPost, path: "/v1/users/register", token: getToken(t, admin),
			body: marshalObj(t, user.NewUser{
				Name: "Teacher", Username: "teacher", Password: "Kf9#mLq2", PasswordConfirm: "Kf9#mLq2",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "role above own", method: http.MethodPost, path: "/v1/users/register", token: getToken(t, admin),
			body: marshalObj(t, user.NewUser{
				Name: "Owner", Username: "owner", Password: "Kf9#mLq2", PasswordConfirm: "Kf9#mLq2", Roles: []string{user.RoleAdminOwner},
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Jane", "jane")

	runHTTPTests(t, app, []httpTest{
		{
			name: "unknown email answers the same", method: http.MethodPost, path: "/v1/users/password-reset",
			body: []byte(`{"email": "ghost@example.com"}`), wantCode: http.StatusOK,
		},
		{
			name: "invalid link", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: marshalObj(t, user.ResetUserPassword{
				UID: "lol", Token: "lol", Password: "N3w#Pwd!x", PasswordConfirm: "N3w#Pwd!x",
			}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: user.ErrInvalidResetLink.Error()}),
		},
	})
	_, ok := emailsvc.LastSentMessage()
	assert.False(t, ok)

	rec := app.do(httpTest{method: http.MethodPost, path: "/v1/users/password-reset", body: []byte(`{"email": "` + usr.Email + `"}`)})
	assert.Equal(t, http.StatusOK, rec.Code)
	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	assert.Equal(t, usr.Email, msg.To[0].Address)
	assert.Equal(t, "password_reset", msg.TemplateName)
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Jane", "jane")

	rec := app.do(httpTest{method: http.MethodPost, path: "/v1/users/token-refresh", token: getToken(t, usr)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
	assert.Nil(t, res.User)
}

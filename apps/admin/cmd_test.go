package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/importer"
	"github.com/trezcool/portal/core/student"
	"github.com/trezcool/portal/core/user"
	emailsvc "github.com/trezcool/portal/services/email"
	inmemdb "github.com/trezcool/portal/storage/database/inmem"
	testutil "github.com/trezcool/portal/tests"
)

type testCLI struct {
	*commandLine
	studentSvc *student.Service
	courseSvc  *course.Service
	billingSvc *billing.Service
}

func setup(t *testing.T) testCLI {
	t.Helper()
	logger := testutil.NewLogger()
	db := inmemdb.Open(nil)
	usrRepo := inmemdb.NewUserRepository(db)
	usrSvc := user.NewServiceMock(usrRepo, emailsvc.NewConsoleServiceMock(logger))

	tc := testCLI{
		studentSvc: student.NewService(inmemdb.NewStudentRepository(db), usrSvc),
		courseSvc:  course.NewService(inmemdb.NewCourseRepository(db)),
		billingSvc: billing.NewService(inmemdb.NewBillingRepository(db)),
	}
	tc.commandLine = &commandLine{
		usrRepo:  usrRepo,
		importer: importer.New(usrSvc, tc.studentSvc, tc.courseSvc, tc.billingSvc, testutil.NewValidator(), logger),
	}
	return tc
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func mockPassword(pwd string) func() {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
	return func() { readPasswordFunc = orig }
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var ran []string
	orig := migrateFunc
	defer func() { migrateFunc = orig }()
	migrateFunc = func(_ context.Context, _ *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
	assert.Equal(t, []string{"up", "up-to", "down-to", "status"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "boss"}, extra: extra{pwd: "Kf9#mLq2"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "boss", "-email", "boss@example.com"}, wantErr: errHelp},
		{
			name: "weak password", args: []string{"adduser", "-username", "boss", "-email", "boss@example.com"},
			extra: extra{pwd: "password"}, wantErrStr: "password",
		},
		{
			name: "create", args: []string{"adduser", "-username", "Boss", "-email", "boss@example.com", "-name", "The Boss", "-admin"},
			extra: extra{pwd: "Kf9#mLq2"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			pwd := ""
			if e, ok := tt.extra.(extra); ok {
				pwd = e.pwd
			}
			defer mockPassword(pwd)()
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: "boss"})
	require.NoError(t, err)
	assert.Equal(t, "The Boss", usr.Name)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsAdmin())
	assert.NoError(t, usr.CheckPassword("Kf9#mLq2"))

	t.Run("update", func(t *testing.T) {
		defer mockPassword("N3w#Pwd!x")()
		require.NoError(t, cli.run([]string{"admin", "adduser", "-username", "boss", "-email", "chief@example.com"}))

		updated, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: "boss"})
		require.NoError(t, err)
		assert.Equal(t, usr.ID, updated.ID)
		assert.Equal(t, "chief@example.com", updated.Email)
		assert.Equal(t, "The Boss", updated.Name)
		assert.NoError(t, updated.CheckPassword("N3w#Pwd!x"))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, cli.usrRepo, "User", "awe", "awe@test.cd", "Kf9#mLq2", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "N3w#Pwd!x"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "N3w#Pwd!x"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "Ag41n#Pwd"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			pwd := ""
			if e, ok := tt.extra.(extra); ok {
				pwd = e.pwd
			}
			defer mockPassword(pwd)()

			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			refreshedUsr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash))
			assert.NoError(t, refreshedUsr.CheckPassword(pwd))
		})
	}
}

func Test_commandLine_importSheet(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "students.csv")
	csv := "Name,Username,Email,Class,Course,Amount,Description\n" +
		"Jane Doe,jane,jane@example.com,6A,Maths,\"1,250.50\",Term 1\n" +
		",,,,,,\n" +
		"Jane Doe,jane,jane@example.com,6A,Physics,,\n" +
		"Carl,carl,carl@example.com,6B,Maths,300,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	tests := []cliTest{
		{name: "no file", args: []string{"importsheet"}, wantErr: errHelp},
		{name: "missing file", args: []string{"importsheet", "-file", filepath.Join(t.TempDir(), "nope.csv")}, wantErrStr: "reading sheet"},
		{name: "unsupported format", args: []string{"importsheet", "-file", filepath.Join(t.TempDir(), "students.txt")}, wantErrStr: "reading sheet"},
		{name: "import", args: []string{"importsheet", "-file", path}},
		{name: "import again", args: []string{"importsheet", "-file", path}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	students, err := cli.studentSvc.Query(ctx, core.Query{})
	require.NoError(t, err)
	assert.Len(t, students, 2)

	jane, err := cli.studentSvc.GetByName(ctx, "Jane Doe")
	require.NoError(t, err)
	courses, err := cli.courseSvc.CoursesForStudent(ctx, jane.ID)
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	payments, err := cli.billingSvc.Query(ctx, core.Query{Filter: core.Filter{"student_id": jane.ID}})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(125050), payments[0].Amount)
	assert.Equal(t, "Term 1", payments[0].Description)
}

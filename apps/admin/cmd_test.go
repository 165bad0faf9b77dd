package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/database/inmem"
	"github.com/trezcool/shule/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	out := new(bytes.Buffer)
	return &commandLine{
		conf:    core.NewTestConfig(),
		usrRepo: inmemdb.NewUserRepository(inmemdb.Open()),
		out:     out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	var ran []string
	orig := migrateFunc
	migrateFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, strings.Join(append([]string{command}, args...), " "))
		return nil
	}
	t.Cleanup(func() { migrateFunc = orig })

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
	assert.Equal(t, []string{"up", "up-to 2", "down-to 1", "status", "create course sql"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli, _ := setup(t)
	ctx := context.Background()

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email required", args: []string{"adduser", "--subject", "prov_1"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "--subject", "prov_1", "--email", "a@test.cd", "--role", "principal"}, wantErr: errInvalidRole},
		{
			name: "create",
			args: []string{"adduser", "--subject", "prov_1", "--email", "Boss@Test.cd", "--first-name", "Big", "--last-name", "Boss", "--role", "Admin"},
		},
		{name: "email taken", args: []string{"adduser", "--subject", "prov_2", "--email", "boss@test.cd"}, wantErr: user.ErrUserExists},
		{name: "update", args: []string{"adduser", "--subject", "prov_1", "--email", "boss@test.cd", "--role", "teacher", "--class", "CS-A"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Subject: "prov_1"})
	require.NoError(t, err)
	assert.Equal(t, "boss@test.cd", usr.Email)
	assert.Equal(t, "Big Boss", usr.Name())
	assert.Equal(t, user.RoleTeacher, usr.Role)
	assert.Equal(t, "CS-A", usr.Class)
	assert.True(t, usr.IsActive)
}

func Test_commandLine_manageUsers(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, cli.usrRepo, "Amani", "Juma", "amani@test.cd", user.RoleStudent, "CS-A", true)

	tests := []cliTest{
		{name: "setrole: no args", args: []string{"setrole"}, wantErr: errHelp},
		{name: "setrole: invalid role", args: []string{"setrole", "--email", usr.Email, "--role", "principal"}, wantErr: errInvalidRole},
		{name: "setrole: unknown user", args: []string{"setrole", "--email", "lol@test.cd", "--role", "teacher"}, wantErr: user.ErrNotFound},
		{name: "setrole", args: []string{"setrole", "--email", "AMANI@test.cd", "--role", "teacher"}},
		{name: "token: no args", args: []string{"token"}, wantErr: errHelp},
		{name: "token: unknown user", args: []string{"token", "--email", "lol@test.cd"}, wantErr: user.ErrNotFound},
		{name: "token", args: []string{"token", "--email", usr.Email, "--ttl", "2h"}},
		{name: "deactivate: no args", args: []string{"deactivate"}, wantErr: errHelp},
		{name: "deactivate", args: []string{"deactivate", "--email", usr.Email}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	got, err := cli.usrRepo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, got.Role)
	assert.False(t, got.IsActive)

	// the printed token identifies the user
	claims := new(echoapi.Claims)
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cli.conf.IdentitySecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, usr.Subject, claims.Subject)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), time.Unix(claims.ExpiresAt, 0), time.Minute)
}

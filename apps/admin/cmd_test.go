package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	db := testutil.OpenDB(t)
	usrRepo = inmemdb.NewUserRepository(db)

	return &commandLine{
		usrRepo: usrRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	pwd        string
}

func runCliTests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			readPasswordFunc = func(int) ([]byte, error) { return []byte(tt.pwd), nil }

			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create requires a NAME argument")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to requires a VERSION argument"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create requires a NAME argument"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	runCliTests(t, cli, tests)
}

func Test_commandLine_addTeacher(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addteacher"}, wantErr: errHelp},
		{name: "name required", args: []string{"addteacher", "-email", "prof@test.cd"}, wantErr: errHelp},
		{name: "email required", args: []string{"addteacher", "-name", "Prof"}, wantErr: errHelp},
		{name: "empty password", args: []string{"addteacher", "-name", "Prof", "-email", "prof@test.cd"}, wantErr: errHelp},
		{name: "created", args: []string{"addteacher", "-name", "Prof", "-email", "prof@test.cd"}, pwd: "secret"},
	}
	runCliTests(t, cli, tests)

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "prof@test.cd"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if usr.Role != user.RoleTeacher || !usr.EmailVerified || !usr.IsActive {
		t.Errorf("addteacher created %+v; want a verified active teacher", usr)
	}
	if err = usr.CheckPassword("secret"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	// running again for an existing account only rotates the password
	runCliTests(t, cli, []cliTest{
		{name: "updated", args: []string{"addteacher", "-name", "Prof", "-email", "prof@test.cd"}, pwd: "rotated"},
	})
	usr2, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "prof@test.cd"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if usr2.ID != usr.ID {
		t.Errorf("addteacher created a second account %q", usr2.ID)
	}
	if err = usr2.CheckPassword("rotated"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe@test.cd", user.RoleStudent, "mdr", true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "empty password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "unknown email", args: []string{"resetpassword", "-email", "ghost@test.cd"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, pwd: "changed"},
	}
	runCliTests(t, cli, tests)

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: usr.Email})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if err = usr.CheckPassword("changed"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
	if err = usr.CheckPassword("mdr"); err == nil {
		t.Error("old password still valid after reset")
	}
}

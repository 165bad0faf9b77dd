package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/pflag"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db      *sqlx.DB
	conf    *core.Config
	usrRepo user.Repository
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                                - run a goose command (up, down, status, ...)")
	fmt.Println("  adduser --subject S --email E [--role R] [--class C]  - create or update a user")
	fmt.Println("  setrole --email E --role R                            - change a user's role")
	fmt.Println("  deactivate --email E                                  - lock a user out")
	fmt.Println("  token --email E [--ttl 1h]                            - issue a bearer token for a user (dev only)")
}

func (cli *commandLine) writer() io.Writer {
	if cli.out != nil {
		return cli.out
	}
	return os.Stdout
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := pflag.NewFlagSet("adduser", pflag.ContinueOnError)
	addUserSubject := addUserCmd.String("subject", "", "The user's subject at the identity provider.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserFirst := addUserCmd.String("first-name", "", "The user's first name.")
	addUserLast := addUserCmd.String("last-name", "", "The user's last name.")
	addUserRole := addUserCmd.String("role", user.RoleStudent, "One of student, teacher, admin.")
	addUserClass := addUserCmd.String("class", "", "The user's class.")

	setRoleCmd := pflag.NewFlagSet("setrole", pflag.ContinueOnError)
	setRoleEmail := setRoleCmd.String("email", "", "The user's email.")
	setRoleRole := setRoleCmd.String("role", "", "One of student, teacher, admin.")

	deactivateCmd := pflag.NewFlagSet("deactivate", pflag.ContinueOnError)
	deactivateEmail := deactivateCmd.String("email", "", "The user's email.")

	tokenCmd := pflag.NewFlagSet("token", pflag.ContinueOnError)
	tokenEmail := tokenCmd.String("email", "", "The user's email.")
	tokenTTL := tokenCmd.Duration("ttl", time.Hour, "How long the token is valid.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserSubject == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserSubject, *addUserEmail, *addUserFirst, *addUserLast, *addUserRole, *addUserClass)

	case "setrole":
		if err := setRoleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setRoleEmail == "" || *setRoleRole == "" {
			setRoleCmd.Usage()
			return errHelp
		}
		return cli.setRole(*setRoleEmail, *setRoleRole)

	case "deactivate":
		if err := deactivateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deactivateEmail == "" {
			deactivateCmd.Usage()
			return errHelp
		}
		return cli.deactivate(*deactivateEmail)

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenEmail == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenEmail, *tokenTTL)

	default:
		cli.printUsage()
		return errHelp
	}
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var errInvalidRole = errors.New("invalid role")

func validRole(role string) bool {
	for _, r := range user.AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// addUser updates or creates the user.User with the given subject.
// Meant to bootstrap the first admin before the identity provider's webhook is wired.
func (cli *commandLine) addUser(subject, email, first, last, role, class string) error {
	ctx := context.Background()
	subject = core.CleanString(subject)
	email = core.CleanString(email, true /* lower */)
	if role = core.CleanString(role, true /* lower */); !validRole(role) {
		return errInvalidRole
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Subject: subject})
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		now := core.Now()
		_, err = cli.usrRepo.CreateUser(ctx, user.User{
			Subject:   subject,
			Email:     email,
			FirstName: core.CleanString(first),
			LastName:  core.CleanString(last),
			Role:      role,
			Class:     core.CleanString(class),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	}

	usr.Email = email
	if first = core.CleanString(first); first != "" {
		usr.FirstName = first
	}
	if last = core.CleanString(last); last != "" {
		usr.LastName = last
	}
	if class = core.CleanString(class); class != "" {
		usr.Class = class
	}
	usr.Role = role
	usr.IsActive = true
	usr.UpdatedAt = core.Now()
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}

func (cli *commandLine) setRole(email, role string) error {
	if role = core.CleanString(role, true /* lower */); !validRole(role) {
		return errInvalidRole
	}
	return cli.updateUser(email, func(usr *user.User) { usr.Role = role })
}

func (cli *commandLine) deactivate(email string) error {
	return cli.updateUser(email, func(usr *user.User) { usr.IsActive = false })
}

func (cli *commandLine) updateUser(email string, update func(usr *user.User)) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	update(&usr)
	usr.UpdatedAt = core.Now()
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}

// token prints a bearer token for the user, signed with the identity secret.
func (cli *commandLine) token(email string, ttl time.Duration) error {
	usr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	token, err := echoapi.GenerateToken(cli.conf.IdentitySecret, echoapi.NewClaims(usr.Subject, ttl))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	_, err = fmt.Fprintln(cli.writer(), token)
	return err
}

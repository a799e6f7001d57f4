// Package authctl implements the operator command-line tool. It talks to the
// credential store directly over the database, bypassing the HTTP surface, so
// an operator can bootstrap the first admin or recover accounts without a
// valid session.
package authctl

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/okulikov/authd/internal/common"
	"github.com/okulikov/authd/internal/server/models"
)

// CredentialStore is the slice of the credential service the tool needs.
type CredentialStore interface {
	Register(ctx context.Context, username string, credential []byte, profile *string, permissionLevel int32) (int64, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateCredential(ctx context.Context, userID int64, newCredential []byte) error
	UpdatePermissionLevel(ctx context.Context, userID int64, level int32) error
	Delete(ctx context.Context, userID int64) error
	ListUsernames(ctx context.Context) ([]string, error)
	ListAdmins(ctx context.Context) ([]string, error)
}

const usage = `usage: authctl [flags] <command> [args]

commands:
  register <username>   create a user (prompts for a password)
  passwd <username>     reset a user's password (revokes their sessions)
  promote <username>    grant the admin level
  demote <username>     revoke the admin level
  delete <username>     delete the account and its sessions
  users                 list usernames
  admins                list admin usernames
`

// CLI dispatches operator subcommands against the credential store.
type CLI struct {
	credentials CredentialStore
	out         io.Writer
}

// New constructs a CLI writing its output to out.
func New(credentials CredentialStore, out io.Writer) *CLI {
	return &CLI{credentials: credentials, out: out}
}

// Run executes one subcommand. args holds the positional arguments with flags
// already stripped.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.out, usage)
		return fmt.Errorf("%w: missing command", common.ErrInvalidInput)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return c.register(ctx, rest)
	case "passwd":
		return c.passwd(ctx, rest)
	case "promote":
		return c.setLevel(ctx, rest, models.PermissionUser, models.PermissionAdmin)
	case "demote":
		return c.setLevel(ctx, rest, models.PermissionAdmin, models.PermissionUser)
	case "delete":
		return c.deleteUser(ctx, rest)
	case "users":
		return c.listUsers(ctx)
	case "admins":
		return c.listAdmins(ctx)
	default:
		fmt.Fprint(c.out, usage)
		return fmt.Errorf("%w: unknown command %q", common.ErrInvalidInput, cmd)
	}
}

func singleUsername(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: expected exactly one username", common.ErrInvalidInput)
	}
	return args[0], nil
}

func (c *CLI) register(ctx context.Context, args []string) error {
	username, err := singleUsername(args)
	if err != nil {
		return err
	}

	password, err := promptNewPassword(c.out)
	if err != nil {
		return err
	}

	id, err := c.credentials.Register(ctx, username, password, nil, models.PermissionUser)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return fmt.Errorf("username %q is already taken", username)
		}
		return err
	}
	fmt.Fprintf(c.out, "created user %q (id %d)\n", username, id)
	return nil
}

func (c *CLI) passwd(ctx context.Context, args []string) error {
	username, err := singleUsername(args)
	if err != nil {
		return err
	}

	user, err := c.credentials.GetByUsername(ctx, username)
	if err != nil {
		return describeLookupError(err, username)
	}

	password, err := promptNewPassword(c.out)
	if err != nil {
		return err
	}

	if err := c.credentials.UpdateCredential(ctx, user.ID, password); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "password updated for %q, all sessions revoked\n", username)
	return nil
}

func (c *CLI) setLevel(ctx context.Context, args []string, from, to int32) error {
	username, err := singleUsername(args)
	if err != nil {
		return err
	}

	user, err := c.credentials.GetByUsername(ctx, username)
	if err != nil {
		return describeLookupError(err, username)
	}

	if user.PermissionLevel != from {
		fmt.Fprintf(c.out, "%q already at level %d, nothing to do\n", username, user.PermissionLevel)
		return nil
	}

	if err := c.credentials.UpdatePermissionLevel(ctx, user.ID, to); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%q moved to level %d\n", username, to)
	return nil
}

func (c *CLI) deleteUser(ctx context.Context, args []string) error {
	username, err := singleUsername(args)
	if err != nil {
		return err
	}

	user, err := c.credentials.GetByUsername(ctx, username)
	if err != nil {
		return describeLookupError(err, username)
	}

	if err := c.credentials.Delete(ctx, user.ID); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted %q and all their sessions\n", username)
	return nil
}

func (c *CLI) listUsers(ctx context.Context) error {
	usernames, err := c.credentials.ListUsernames(ctx)
	if err != nil {
		return err
	}
	for _, username := range usernames {
		fmt.Fprintln(c.out, username)
	}
	return nil
}

func (c *CLI) listAdmins(ctx context.Context) error {
	usernames, err := c.credentials.ListAdmins(ctx)
	if err != nil {
		return err
	}
	for _, username := range usernames {
		fmt.Fprintln(c.out, username)
	}
	return nil
}

func describeLookupError(err error, username string) error {
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("no such user %q", username)
	}
	return err
}

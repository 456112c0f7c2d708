package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
)

var readPasswordFunc = term.ReadPassword // mockable

type commandLine struct {
	db          *sqlx.DB
	logger      core.Logger
	usrSvc      *user.Service
	academySvc  *academy.Service
	taskSvc     *task.Service
	calendarSvc *calendar.Service
	sync        *optimistic.Controller
	out         io.Writer

	as string // email of the acting user
}

// newRootCmd builds the command tree. A fresh tree per run keeps flag values from leaking between runs.
func (cli *commandLine) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "admin",
		Short: "La Jungla administration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&cli.as, "as", "", "email of the staff member acting (stamped on created records)")
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.seedCmd(),
		cli.lessonsCmd(),
		cli.blocksCmd(),
		cli.tasksCmd(),
		cli.calendarCmd(),
		cli.rosterCmd(),
	)
	return root
}

// run executes args (without the program name).
func (cli *commandLine) run(args []string) error {
	if cli.out == nil {
		cli.out = os.Stdout
	}
	if args == nil {
		args = []string{} // nil makes cobra fall back to os.Args
	}
	root := cli.newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

// context returns a context carrying the identity selected with --as.
func (cli *commandLine) context() (context.Context, error) {
	ctx := context.Background()
	if cli.as == "" {
		return ctx, nil
	}
	usr, err := cli.usrSvc.GetByEmail(ctx, cli.as)
	if err != nil {
		return nil, errors.Wrapf(err, "--as %s", cli.as)
	}
	if !usr.IsActive {
		return nil, errors.Errorf("--as %s: account deactivated", cli.as)
	}
	return core.WithIdentity(ctx, usr.Identity()), nil
}

// outcome turns a failed optimistic outcome into the command error; the toast already showed the message.
func outcome(out optimistic.Outcome) error {
	if out.OK() {
		return nil
	}
	return errors.Wrap(out.Err, out.Message)
}

// promptPassword reads a password and its confirmation from the terminal.
func (cli *commandLine) promptPassword() (pwd, confirm string, err error) {
	read := func(prompt string) (string, error) {
		fmt.Fprint(cli.out, prompt)
		b, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		return string(b), err
	}
	if pwd, err = read("Enter password:"); err != nil {
		return "", "", err
	}
	if confirm, err = read("Confirm password:"); err != nil {
		return "", "", err
	}
	return pwd, confirm, nil
}

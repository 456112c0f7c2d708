package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, confirm, err := cli.promptPassword()
			if err != nil {
				return err
			}
			return cli.resetPassword(user.ResetUserPassword{Email: email, Password: pwd, PasswordConfirm: confirm})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "the user's email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (cli *commandLine) resetPassword(rp user.ResetUserPassword) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	usr, err := cli.usrSvc.ResetPassword(ctx, rp)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s reset\n", usr.Email)
	return nil
}

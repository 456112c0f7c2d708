package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var (
		nu    user.NewUser
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a staff account. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if admin {
				nu.Roles = append(nu.Roles, user.RoleAdminOwner)
			}
			var err error
			if nu.Password, nu.PasswordConfirm, err = cli.promptPassword(); err != nil {
				return err
			}
			return cli.addUser(nu)
		},
	}
	cmd.Flags().StringVar(&nu.Name, "name", "", "full name")
	cmd.Flags().StringVar(&nu.Email, "email", "", "login email")
	cmd.Flags().StringSliceVar(&nu.Roles, "role", nil, "role, eg. staff:academy (repeatable)")
	cmd.Flags().StringVar(&nu.Center, "center", "", "gym center (tutors)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the owner role")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// addUser creates an active user.User
func (cli *commandLine) addUser(nu user.NewUser) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %s created: %s\n", usr.Email, usr.ID)
	return nil
}

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/dashboard"
)

func (cli *commandLine) rosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Tutors per gym center",
	}

	var center string
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List tutors grouped by center",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.listTutors(center)
		},
	}
	ls.Flags().StringVar(&center, "center", "", "only this center")

	activate := &cobra.Command{
		Use:   "activate TUTOR_ID",
		Short: "Reactivate a tutor account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.setTutorActive(args[0], true)
		},
	}
	deactivate := &cobra.Command{
		Use:   "deactivate TUTOR_ID",
		Short: "Deactivate a tutor account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.setTutorActive(args[0], false)
		},
	}
	assign := &cobra.Command{
		Use:   "center TUTOR_ID CENTER",
		Short: "Assign a tutor to a center",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.assignCenter(args[0], args[1])
		},
	}

	cmd.AddCommand(ls, activate, deactivate, assign)
	return cmd
}

func (cli *commandLine) tutorRoster(center string) (*dashboard.TutorRoster, error) {
	ctx, err := cli.context()
	if err != nil {
		return nil, err
	}
	tr := dashboard.NewTutorRoster(cli.usrSvc, cli.sync, cli.logger)
	if err := tr.Load(ctx, center); err != nil {
		return nil, err
	}
	return tr, nil
}

func (cli *commandLine) listTutors(center string) error {
	tr, err := cli.tutorRoster(center)
	if err != nil {
		return err
	}
	defer tr.Close()
	cli.printRoster(tr)
	return nil
}

func (cli *commandLine) printRoster(tr *dashboard.TutorRoster) {
	for _, g := range tr.ByCenter() {
		name := g.Center
		if name == "" {
			name = "(no center)"
		}
		fmt.Fprintf(cli.out, "%s (%d)\n", name, len(g.Tutors))
		for _, t := range g.Tutors {
			state := "active"
			if !t.IsActive {
				state = "inactive"
			}
			fmt.Fprintf(cli.out, "  %s <%s> %s  (%s)\n", t.Name, t.Email, state, t.ID)
		}
	}
}

// editRoster loads every tutor and runs change once id is known to be one of them.
func (cli *commandLine) editRoster(id string, change func(tr *dashboard.TutorRoster) error) error {
	tr, err := cli.tutorRoster("")
	if err != nil {
		return err
	}
	defer tr.Close()

	var found bool
	for _, t := range tr.Tutors() {
		found = found || t.ID == id
	}
	if !found {
		return errors.Errorf("%s is not a tutor", id)
	}
	if err := change(tr); err != nil {
		return err
	}
	cli.printRoster(tr)
	return nil
}

func (cli *commandLine) setTutorActive(id string, active bool) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	return cli.editRoster(id, func(tr *dashboard.TutorRoster) error {
		return outcome(tr.SetActive(ctx, id, active))
	})
}

func (cli *commandLine) assignCenter(id, center string) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	return cli.editRoster(id, func(tr *dashboard.TutorRoster) error {
		return outcome(tr.AssignCenter(ctx, id, center))
	})
}

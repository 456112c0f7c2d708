package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/dashboard"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
)

func (cli *commandLine) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task boards",
	}

	var filter task.Filter
	ls := &cobra.Command{
		Use:   "ls",
		Short: "Show a task board by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.listTasks(filter)
		},
	}
	ls.Flags().StringVar((*string)(&filter.Subsystem), "subsystem", "", "academy | online (default both)")
	ls.Flags().StringVar(&filter.LessonID, "lesson", "", "lesson id")

	var (
		nt      task.NewTask
		assign  []string
		dueDate string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a task and notify its assignees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dueDate != "" {
				due, err := time.Parse("2006-01-02", dueDate)
				if err != nil {
					return errors.Wrap(err, "--due must be YYYY-MM-DD")
				}
				nt.DueDate = &due
			}
			return cli.addTask(nt, assign)
		},
	}
	add.Flags().StringVar(&nt.Title, "title", "", "task title")
	add.Flags().StringVar(&nt.Description, "description", "", "task description")
	add.Flags().StringVar((*string)(&nt.Subsystem), "subsystem", string(task.SubsystemAcademy), "academy | online")
	add.Flags().StringVar(&nt.Priority, "priority", "", "priority of the subsystem (default: its normal priority)")
	add.Flags().StringSliceVar(&assign, "assign", nil, "assignee email (repeatable)")
	add.Flags().StringVar(&nt.LessonID, "lesson", "", "linked lesson id")
	add.Flags().StringVar(&nt.BlockID, "block", "", "linked block id")
	add.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD)")
	_ = add.MarkFlagRequired("title")

	cmd.AddCommand(ls, add)
	return cmd
}

func (cli *commandLine) taskBoard(ctx context.Context, filter task.Filter) (*dashboard.TaskBoard, error) {
	tb := dashboard.NewTaskBoard(cli.taskSvc, cli.sync, cli.logger)
	if err := tb.Load(ctx, filter); err != nil {
		return nil, err
	}
	return tb, nil
}

func (cli *commandLine) listTasks(filter task.Filter) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	tb, err := cli.taskBoard(ctx, filter)
	if err != nil {
		return err
	}
	defer tb.Close()
	cli.printBoard(tb)
	return nil
}

func (cli *commandLine) printBoard(tb *dashboard.TaskBoard) {
	for _, col := range tb.Columns() {
		fmt.Fprintf(cli.out, "%s (%d)\n", strings.ToUpper(string(col.Status)), len(col.Tasks))
		for _, t := range col.Tasks {
			due := ""
			if t.DueDate != nil {
				due = " due " + t.DueDate.Format("2006-01-02")
			}
			fmt.Fprintf(cli.out, "  [%s] %s%s  (%s)\n", t.Priority, t.Title, due, t.ID)
		}
	}
}

func (cli *commandLine) addTask(nt task.NewTask, assignees []string) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	for _, email := range assignees {
		usr, err := cli.usrSvc.GetByEmail(ctx, email)
		if err != nil {
			return errors.Wrapf(err, "assignee %s", email)
		}
		nt.AssignedTo = append(nt.AssignedTo, usr.ID)
	}

	tb, err := cli.taskBoard(ctx, task.Filter{Subsystem: nt.Subsystem})
	if err != nil {
		return err
	}
	defer tb.Close()

	if err := outcome(tb.CreateTask(ctx, nt)); err != nil {
		return err
	}
	cli.printBoard(tb)
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/dashboard"
)

func (cli *commandLine) lessonsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lessons",
		Short: "Browse and edit the academy lessons",
	}

	var filter academy.LessonFilter
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List modules and lessons with their production progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.listLessons(filter)
		},
	}
	ls.Flags().StringVar(&filter.ModuleID, "module", "", "module id")
	ls.Flags().StringVar((*string)(&filter.Status), "status", "", "lesson status")

	var nl academy.NewLesson
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a lesson and its three blocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.addLesson(nl)
		},
	}
	add.Flags().StringVar(&nl.ModuleID, "module", "", "module id")
	add.Flags().StringVar(&nl.Title, "title", "", "lesson title")
	add.Flags().IntVar(&nl.Order, "order", 0, "position in the module (0: next)")
	_ = add.MarkFlagRequired("module")
	_ = add.MarkFlagRequired("title")

	rm := &cobra.Command{
		Use:   "rm LESSON_ID",
		Short: "Delete a lesson with its blocks and downloadables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.removeLesson(args[0])
		},
	}

	cmd.AddCommand(ls, add, rm)
	return cmd
}

func (cli *commandLine) lessonBrowser(filter academy.LessonFilter) (*dashboard.LessonBrowser, error) {
	ctx, err := cli.context()
	if err != nil {
		return nil, err
	}
	lb := dashboard.NewLessonBrowser(cli.academySvc, cli.sync, cli.logger)
	if err := lb.Load(ctx, filter); err != nil {
		return nil, err
	}
	return lb, nil
}

func (cli *commandLine) listLessons(filter academy.LessonFilter) error {
	lb, err := cli.lessonBrowser(filter)
	if err != nil {
		return err
	}
	defer lb.Close()
	cli.printLessons(lb, filter.ModuleID)
	return nil
}

func (cli *commandLine) printLessons(lb *dashboard.LessonBrowser, moduleID string) {
	for _, m := range lb.Modules() {
		if moduleID != "" && m.ID != moduleID {
			continue
		}
		fmt.Fprintf(cli.out, "%2d. %s [%s] %d%%  (%s)\n", m.Order, m.Title, m.Status, lb.ModuleProgress(m.ID), m.ID)
		for _, l := range lb.Lessons(m.ID) {
			fmt.Fprintf(cli.out, "    %2d. %s [%s] %d%%  (%s)\n", l.Order, l.Title, l.Status, lb.LessonProgress(l.ID), l.ID)
			for _, b := range lb.Blocks(l.ID) {
				fmt.Fprintf(cli.out, "        %s: %s %d%%\n", b.Title, b.ProductionStatus, b.ProgressPercentage)
			}
		}
	}
}

func (cli *commandLine) addLesson(nl academy.NewLesson) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	lb, err := cli.lessonBrowser(academy.LessonFilter{ModuleID: nl.ModuleID})
	if err != nil {
		return err
	}
	defer lb.Close()

	if err := outcome(lb.CreateLesson(ctx, nl)); err != nil {
		return err
	}
	cli.printLessons(lb, nl.ModuleID)
	return nil
}

func (cli *commandLine) removeLesson(id string) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	lb, err := cli.lessonBrowser(academy.LessonFilter{})
	if err != nil {
		return err
	}
	defer lb.Close()
	return outcome(lb.DeleteLesson(ctx, id))
}

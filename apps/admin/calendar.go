package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/dashboard"
)

const (
	dayLayout  = "2006-01-02"
	timeLayout = "2006-01-02T15:04"
)

func (cli *commandLine) calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Social media content calendar",
	}

	var (
		filter   calendar.EventFilter
		from, to string
	)
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List scheduled publications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if filter.From, err = parseDay("--from", from); err != nil {
				return err
			}
			if filter.To, err = parseDay("--to", to); err != nil {
				return err
			}
			return cli.listEvents(filter)
		},
	}
	ls.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	ls.Flags().StringVar(&to, "to", "", "day after the last one (YYYY-MM-DD)")
	ls.Flags().StringVar(&filter.Platform, "platform", "", "platform, eg. instagram")

	var nc calendar.NewContentItem
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a content item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.addContentItem(nc)
		},
	}
	add.Flags().StringVar(&nc.Title, "title", "", "content title")
	add.Flags().StringVar(&nc.Type, "type", "post", "post | reel | story | video")
	add.Flags().StringVar(&nc.Description, "description", "", "content description")
	_ = add.MarkFlagRequired("title")

	var (
		ne calendar.NewEvent
		at string
	)
	schedule := &cobra.Command{
		Use:   "schedule CONTENT_ID",
		Short: "Schedule the publication of a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := time.Parse(timeLayout, at)
			if err != nil {
				return errors.Wrap(err, "--at must be YYYY-MM-DDTHH:MM (UTC)")
			}
			ne.ContentID = args[0]
			ne.ScheduledAt = when
			return cli.scheduleEvent(ne)
		},
	}
	schedule.Flags().StringVar(&ne.Platform, "platform", "", "platform, eg. instagram")
	schedule.Flags().StringVar(&ne.Profile, "profile", "", "publishing profile")
	schedule.Flags().StringVar(&ne.Caption, "caption", "", "caption")
	schedule.Flags().StringVar(&at, "at", "", "publication time (YYYY-MM-DDTHH:MM, UTC)")
	_ = schedule.MarkFlagRequired("platform")
	_ = schedule.MarkFlagRequired("at")

	cancel := &cobra.Command{
		Use:   "cancel EVENT_ID",
		Short: "Cancel a scheduled publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.cancelEvent(args[0])
		},
	}

	cmd.AddCommand(ls, add, schedule, cancel)
	return cmd
}

func parseDay(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse(dayLayout, value)
	return day, errors.Wrapf(err, "%s must be YYYY-MM-DD", flag)
}

func (cli *commandLine) contentCalendar(filter calendar.EventFilter) (*dashboard.ContentCalendar, error) {
	ctx, err := cli.context()
	if err != nil {
		return nil, err
	}
	cc := dashboard.NewContentCalendar(cli.calendarSvc, cli.sync, cli.logger)
	if err := cc.Load(ctx, filter); err != nil {
		return nil, err
	}
	return cc, nil
}

func (cli *commandLine) listEvents(filter calendar.EventFilter) error {
	cc, err := cli.contentCalendar(filter)
	if err != nil {
		return err
	}
	defer cc.Close()
	cli.printCalendar(cc)
	return nil
}

func (cli *commandLine) printCalendar(cc *dashboard.ContentCalendar) {
	titles := make(map[string]string)
	for _, c := range cc.ContentItems() {
		titles[c.ID] = c.Title
	}
	events := cc.Events()
	fmt.Fprintf(cli.out, "%d publications\n", len(events))
	for _, e := range events {
		fmt.Fprintf(cli.out, "  %s %s [%s] %s  (%s)\n", e.ScheduledAt.Format(timeLayout), e.Platform, e.Status, titles[e.ContentID], e.ID)
	}
}

func (cli *commandLine) addContentItem(nc calendar.NewContentItem) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	cc, err := cli.contentCalendar(calendar.EventFilter{})
	if err != nil {
		return err
	}
	defer cc.Close()

	if err := outcome(cc.CreateContentItem(ctx, nc)); err != nil {
		return err
	}
	for _, c := range cc.ContentItems() {
		fmt.Fprintf(cli.out, "  %s [%s]  (%s)\n", c.Title, c.Type, c.ID)
	}
	return nil
}

func (cli *commandLine) scheduleEvent(ne calendar.NewEvent) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	cc, err := cli.contentCalendar(calendar.EventFilter{ContentID: ne.ContentID})
	if err != nil {
		return err
	}
	defer cc.Close()

	if err := outcome(cc.ScheduleEvent(ctx, ne)); err != nil {
		return err
	}
	cli.printCalendar(cc)
	return nil
}

func (cli *commandLine) cancelEvent(id string) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	cc, err := cli.contentCalendar(calendar.EventFilter{})
	if err != nil {
		return err
	}
	defer cc.Close()
	return outcome(cc.CancelEvent(ctx, id))
}

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/engine"
)

func activityCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "activity", Short: "Log and inspect activities"}
	cmd.AddCommand(activityAddCmd())
	cmd.AddCommand(activityDayCmd())
	cmd.AddCommand(activityRangeCmd())
	cmd.AddCommand(activityRmCmd())
	return cmd
}

func activityAddCmd() *cobra.Command {
	var date, start, end, activityType, customType, notes string
	var hours, minutes int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log an activity by --start/--end or by --hours/--minutes",
		RunE: func(cmd *cobra.Command, args []string) error {
			userKey, err := requireUser()
			if err != nil {
				return err
			}
			byDuration := cmd.Flags().Changed("hours") || cmd.Flags().Changed("minutes")
			if !byDuration && (start == "" || end == "") {
				return fmt.Errorf("give --start and --end, or --hours/--minutes")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var a domain.Activity
				var err error
				if byDuration {
					a, err = e.CreateActivityFromDuration(ctx, engine.DurationInput{
						UserKey: userKey, Date: date, DurationHours: hours, DurationMinutes: minutes,
						ActivityType: activityType, CustomType: customType, Notes: notes, ActorID: userKey,
					})
				} else {
					a, err = e.CreateActivity(ctx, engine.CreateActivityInput{
						UserKey: userKey, Date: date, StartTime: start, EndTime: end,
						ActivityType: activityType, CustomType: customType, Notes: notes, ActorID: userKey,
					})
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(a)
				}
				fmt.Printf("Logged %s %s-%s %s (%s)\n", a.Date, a.StartTime, a.EndTime, typeLabel(a), a.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "start time (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "end time (HH:MM)")
	cmd.Flags().IntVar(&hours, "hours", 0, "duration hours, placed after the day's latest activity")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "duration minutes (0, 15, 30, 45)")
	cmd.Flags().StringVar(&activityType, "type", "lavoro", "activity type")
	cmd.Flags().StringVar(&customType, "custom", "", "custom label, required for type altro")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func activityDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "day <date>",
		Short: "Show the activities of a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userKey, err := requireUser()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				view, err := e.GetDayActivities(ctx, userKey, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(view)
				}
				renderActivities(view.Activities)
				fmt.Printf("%s: %d/%d min (%d%%) %s\n", view.Date, view.Summary.TotalMinutes, view.Summary.RequiredMinutes, view.Summary.CompletionPercentage, view.Status)
				return nil
			})
		},
	}
}

func activityRangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "range <from> <to>",
		Short: "List activities between two dates, inclusive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userKey, err := requireUser()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				view, err := e.GetActivitiesRange(ctx, userKey, args[0], args[1])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(view)
				}
				renderActivities(view.Activities)
				return nil
			})
		},
	}
}

func activityRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <date> <id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userKey, err := requireUser()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				found, err := e.DeleteActivity(ctx, userKey, args[1], args[0], userKey)
				if err != nil {
					return err
				}
				if !found {
					return domain.NotFound("activity", args[1])
				}
				fmt.Printf("Deleted %s\n", args[1])
				return nil
			})
		},
	}
}

func calendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar <year> <month>",
		Short: "Show a month with per-day status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userKey, err := requireUser()
			if err != nil {
				return err
			}
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			month, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid month %q", args[1])
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				shift, err := e.ShiftForUser(ctx, userKey)
				if err != nil {
					return err
				}
				cal, err := e.GetMonthCalendar(ctx, userKey, year, month, shift)
				if err != nil {
					return err
				}
				irregular, err := e.GetIrregularDaysOutsideMonth(ctx, userKey, year, month, shift)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"calendar": cal, "irregularities": irregular})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Date", "Day", "Required", "Holiday", "Activities", "Minutes", "%", "Status"})
				for _, d := range cal.Days {
					tw.AppendRow(table.Row{d.Date, d.Weekday, yesNo(d.IsRequired), d.HolidayName, d.ActivityCount, d.Summary.TotalMinutes, d.Summary.CompletionPercentage, d.Status})
				}
				tw.Render()
				for _, irr := range irregular {
					fmt.Printf("outside month: %s %s\n", irr.Date, irr.Status)
				}
				return nil
			})
		},
	}
}

func monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor <date>",
		Short: "Show the completion of every user on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entries, err := e.MonitorDay(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"User", "Name", "Shift", "Required", "Minutes", "%", "Status"})
				for _, m := range entries {
					tw.AppendRow(table.Row{m.UserKey, m.DisplayName, m.ShiftTypeID, yesNo(m.IsRequired), m.Summary.TotalMinutes, m.Summary.CompletionPercentage, m.StatusCode})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func renderActivities(items []domain.Activity) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Date", "Start", "End", "Min", "Type", "Notes", "ID"})
	for _, a := range items {
		tw.AppendRow(table.Row{a.Date, a.StartTime, a.EndTime, a.DurationMinutes, typeLabel(a), a.Notes, a.ID})
	}
	tw.Render()
}

func typeLabel(a domain.Activity) string {
	if a.CustomType != "" {
		return a.ActivityType + ": " + a.CustomType
	}
	return a.ActivityType
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

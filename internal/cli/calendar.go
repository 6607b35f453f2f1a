package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/m365/protocol"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Read calendars",
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List calendars",
	RunE:  runCalendarList,
}

var calendarEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List upcoming events",
	RunE:  runCalendarEvents,
}

var eventDays int

func runCalendarList(cmd *cobra.Command, _ []string) error {
	account, err := loadAccount()
	if err != nil {
		return err
	}
	schedule := account.Schedule("")

	for cal, err := range schedule.Calendars(nil).All(cmd.Context()) {
		if err != nil {
			return err
		}
		marker := " "
		if cal.IsDefault {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, cal.Name)
	}
	return nil
}

func runCalendarEvents(cmd *cobra.Command, _ []string) error {
	account, err := loadAccount()
	if err != nil {
		return err
	}
	schedule := account.Schedule("")

	start := time.Now()
	end := start.AddDate(0, 0, eventDays)

	pager := schedule.CalendarView("", start, end, nil)
	for event, err := range pager.All(cmd.Context()) {
		if err != nil {
			return err
		}

		when := "all day"
		if event.Start != nil && !event.IsAllDay {
			if t, err := protocol.ParseDateTime(*event.Start); err == nil {
				when = t.Format("Jan 02 15:04")
			}
		}
		location := ""
		if event.Location != nil && event.Location.DisplayName != "" {
			location = " @ " + event.Location.DisplayName
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s%s\n", when, event.Subject, location)
	}
	return nil
}

func init() {
	calendarEventsCmd.Flags().IntVar(&eventDays, "days", 7, "number of days to look ahead")
	calendarCmd.AddCommand(calendarListCmd, calendarEventsCmd)
	rootCmd.AddCommand(calendarCmd)
}

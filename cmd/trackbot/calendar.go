package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tazhate/trackbot/internal/clients/caldav"
)

func newCalendarCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Export trackings as calendar events",
	}

	var output string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write running trackings as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			cal, err := caldav.TrackingCalendar(a.coord.Trackings(), a.cfg.Timezone)
			if err != nil {
				return err
			}

			var w io.Writer = a.out
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return caldav.WriteICS(w, cal)
		},
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	cmd.AddCommand(exportCmd)

	var list bool
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish trackings to the configured CalDAV calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			dav := a.cfg.CalDAV
			if !dav.IsConfigured() {
				return fmt.Errorf("CALDAV_URL, CALDAV_USERNAME and CALDAV_PASSWORD are required")
			}
			client := caldav.NewClient(dav.URL, dav.Username, dav.Password)
			client.SetTimezone(a.cfg.Timezone)

			if list || dav.Calendar == "" {
				cals, err := client.DiscoverCalendars(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range cals {
					fmt.Fprintf(a.out, "%s\t%s\n", c.Path, c.DisplayName)
				}
				if dav.Calendar == "" {
					return fmt.Errorf("set CALDAV_CALENDAR to one of the calendars above")
				}
				return nil
			}
			client.SetCalendarPath(dav.Calendar)

			total := 0
			for _, t := range a.coord.Trackings() {
				n, err := client.PublishTracking(cmd.Context(), &t)
				if err != nil {
					return fmt.Errorf("publish tracking %d: %w", t.ID, err)
				}
				a.logger.Debug("published tracking", "tracking_id", t.ID, "events", n)
				total += n
			}
			fmt.Fprintf(a.out, "Published %d events\n", total)
			return nil
		},
	}
	publishCmd.Flags().BoolVar(&list, "list", false, "list calendars instead of publishing")
	cmd.AddCommand(publishCmd)

	return cmd
}

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tazhate/trackbot/internal/domain"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// trackingFlags are the editable tracking fields.
type trackingFlags struct {
	question string
	notes    string
	icon     string
	times    []string
	at       string
	pattern  patternFlags
}

func (f *trackingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.question, "question", "q", "", "question to ask")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&f.icon, "icon", "", "icon shown before the question")
	cmd.Flags().StringSliceVarP(&f.times, "time", "t", nil, "time of day HH:MM (repeatable, up to 5)")
	cmd.Flags().StringVar(&f.at, "at", "", "one-time timestamp (RFC 3339) instead of a recurrence")
	f.pattern.register(cmd)
}

// payload returns the fields whose flags were set.
func (f *trackingFlags) payload(cmd *cobra.Command, now func() time.Time) (domain.TrackingPayload, error) {
	var p domain.TrackingPayload
	flags := cmd.Flags()

	if flags.Changed("question") {
		p.Question = &f.question
	}
	if flags.Changed("notes") {
		p.Notes = &f.notes
	}
	if flags.Changed("icon") {
		p.Icon = &f.icon
	}
	if flags.Changed("time") {
		schedules, err := parseSchedules(f.times)
		if err != nil {
			return p, err
		}
		p.Schedules = schedules
	}

	if flags.Changed("at") {
		if f.pattern.changed(cmd) {
			return p, fmt.Errorf("--at cannot be combined with recurrence flags")
		}
		at, err := time.Parse(time.RFC3339, f.at)
		if err != nil {
			return p, fmt.Errorf("invalid --at: %w", err)
		}
		p.OneTimeAt = &at
	} else if f.pattern.changed(cmd) || cmd.Name() == "create" {
		pattern, err := f.pattern.build(now)
		if err != nil {
			return p, err
		}
		p.Pattern = &pattern
	}
	return p, nil
}

func newTrackingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tracking",
		Aliases: []string{"t"},
		Short:   "Manage trackings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active trackings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			trackings := a.coord.Trackings()
			if len(trackings) == 0 {
				fmt.Fprintln(a.out, "No trackings")
				return nil
			}
			for i := range trackings {
				printTracking(a.out, &trackings[i], a.cfg.Timezone)
			}
			return nil
		},
	})

	var create trackingFlags
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tracking",
		Example: `  trackbot tracking create -q "Did you stretch?" --preset weekly --day mon --day thu -t 08:30
  trackbot tracking create -q "Water?" --preset interval --every 2 --unit day -t 09:00,15:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := create.payload(cmd, time.Now)
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			t, err := a.coord.CreateTracking(cmd.Context(), payload)
			if err != nil {
				return err
			}
			printTracking(a.out, t, a.cfg.Timezone)
			a.warnReconcile()
			return nil
		},
	}
	create.register(createCmd)
	cmd.AddCommand(createCmd)

	var update trackingFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a tracking's question, notes, times or recurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			payload, err := update.payload(cmd, time.Now)
			if err != nil {
				return err
			}
			if payload.Empty() {
				return fmt.Errorf("nothing to update")
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			t, err := a.coord.UpdateTracking(cmd.Context(), id, payload)
			if err != nil {
				return err
			}
			printTracking(a.out, t, a.cfg.Timezone)
			a.warnReconcile()
			return nil
		},
	}
	update.register(updateCmd)
	cmd.AddCommand(updateCmd)

	for _, tr := range []struct {
		use   string
		short string
		state domain.TrackingState
	}{
		{"pause", "Pause a tracking; upcoming reminders are dropped", domain.StatePaused},
		{"resume", "Resume a paused tracking", domain.StateRunning},
		{"archive", "Archive a tracking; outstanding reminders are dropped", domain.StateArchived},
	} {
		state := tr.state
		cmd.AddCommand(&cobra.Command{
			Use:   tr.use + " <id>",
			Short: tr.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.open(cmd.Context()); err != nil {
					return err
				}
				t, err := a.coord.UpdateTrackingState(cmd.Context(), id, state)
				if err != nil {
					return err
				}
				printTracking(a.out, t, a.cfg.Timezone)
				a.warnReconcile()
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tracking and all its reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if err := a.coord.DeleteTracking(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted tracking #%d\n", id)
			a.warnReconcile()
			return nil
		},
	})

	return cmd
}

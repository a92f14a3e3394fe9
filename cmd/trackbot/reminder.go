package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tazhate/trackbot/internal/domain"
)

func newReminderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reminder",
		Aliases: []string{"r"},
		Short:   "List and answer reminders",
	}

	var trackingID int64
	var status string
	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List outstanding reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			questions := make(map[int64]string)
			for _, t := range a.coord.Trackings() {
				questions[t.ID] = t.Question
			}

			now := time.Now()
			shown := 0
			for _, r := range a.coord.Reminders() {
				if trackingID != 0 && r.TrackingID != trackingID {
					continue
				}
				if status != "" && string(r.Status) != status {
					continue
				}
				if !all && status == "" && !r.IsOutstanding() {
					continue
				}
				printReminder(a.out, &r, questions[r.TrackingID], a.cfg.Timezone, now)
				shown++
			}
			if shown == 0 {
				fmt.Fprintln(a.out, "No reminders")
			}
			return nil
		},
	}
	listCmd.Flags().Int64Var(&trackingID, "tracking", 0, "only reminders of this tracking")
	listCmd.Flags().StringVar(&status, "status", "", "upcoming|pending|answered")
	listCmd.Flags().BoolVar(&all, "all", false, "include answered reminders")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(reminderAction(a, "complete <id> [value]", "Answer a reminder", cobra.RangeArgs(1, 2),
		func(ctx context.Context, id int64, args []string) (*domain.Reminder, error) {
			value := ""
			if len(args) > 1 {
				value = args[1]
			}
			return a.coord.CompleteReminder(ctx, id, value)
		}))

	cmd.AddCommand(reminderAction(a, "dismiss <id>", "Skip a reminder without answering", cobra.ExactArgs(1),
		func(ctx context.Context, id int64, args []string) (*domain.Reminder, error) {
			return a.coord.DismissReminder(ctx, id)
		}))

	var minutes int
	snoozeCmd := reminderAction(a, "snooze <id>", "Ask again later", cobra.ExactArgs(1),
		func(ctx context.Context, id int64, args []string) (*domain.Reminder, error) {
			return a.coord.SnoozeReminder(ctx, id, minutes)
		})
	snoozeCmd.Flags().IntVarP(&minutes, "minutes", "m", 15, "minutes to wait")
	cmd.AddCommand(snoozeCmd)

	var notes string
	noteCmd := reminderAction(a, "note <id>", "Attach notes to a reminder", cobra.ExactArgs(1),
		func(ctx context.Context, id int64, args []string) (*domain.Reminder, error) {
			return a.coord.UpdateReminder(ctx, id, domain.ReminderPatch{Notes: &notes})
		})
	noteCmd.Flags().StringVar(&notes, "notes", "", "notes text")
	cmd.AddCommand(noteCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if err := a.coord.DeleteReminder(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted reminder #%d\n", id)
			return nil
		},
	})

	return cmd
}

func reminderAction(a *app, use, short string, posArgs cobra.PositionalArgs,
	run func(ctx context.Context, id int64, args []string) (*domain.Reminder, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  posArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			r, err := run(cmd.Context(), id, args)
			if err != nil {
				return err
			}
			question := ""
			if t, ok := a.coord.Tracking(r.TrackingID); ok {
				question = t.Question
			}
			printReminder(a.out, r, question, a.cfg.Timezone, time.Now())
			a.warnReconcile()
			return nil
		},
	}
}

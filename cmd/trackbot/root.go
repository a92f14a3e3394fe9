package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "trackbot",
		Short: "Habit and reminder tracker",
		Long: `Track recurring questions ("Did you drink water?") and answer the
reminders they produce. Works against a local sqlite database or a remote
tracking server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "config file (default trackbot.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newTrackingCmd(a))
	root.AddCommand(newReminderCmd(a))
	root.AddCommand(newPatternCmd(a))
	root.AddCommand(newCalendarCmd(a))
	root.AddCommand(newSyncCmd(a))
	return root
}

// execute runs the command line and releases the backend afterwards.
func execute(args []string, out, errOut io.Writer) error {
	a := &app{out: out, errOut: errOut}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	return root.Execute()
}

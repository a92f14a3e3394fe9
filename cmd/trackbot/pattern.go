package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tazhate/trackbot/internal/builder"
	"github.com/tazhate/trackbot/internal/domain"
)

func newPatternCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Build and inspect recurrence patterns",
	}

	var flags patternFlags
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build a pattern from flags and print its JSON",
		Example: `  trackbot pattern build --preset monthly --monthly-kind weekday_ordinal --weekday sun --ordinal 5
  trackbot pattern build --preset yearly --month 11 --yearly-kind weekday_ordinal --weekday thu --ordinal 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.build(time.Now)
			if err != nil {
				return err
			}
			return describePattern(a.out, p)
		},
	}
	flags.register(buildCmd)
	cmd.AddCommand(buildCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "detect <json>",
		Short: "Print the preset a stored pattern opens with",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if len(args) == 1 && args[0] != "-" {
				data = []byte(args[0])
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read pattern: %w", err)
				}
				data = b
			}

			var p domain.Pattern
			if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &p); err != nil {
				return fmt.Errorf("invalid pattern: %w", err)
			}
			fmt.Fprintf(a.out, "preset: %s\n", builder.DetectPreset(p))
			return describePattern(a.out, p)
		},
	})

	return cmd
}

func describePattern(w io.Writer, p domain.Pattern) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}
	fmt.Fprintf(w, "json: %s\n", data)
	fmt.Fprintf(w, "description: %s\n", p.String())

	opt, err := p.RRule(time.Now().UTC().Truncate(time.Minute))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "rrule: %s\n", opt.RRuleString())
	return nil
}

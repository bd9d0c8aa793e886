package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nhle/winterbreak/internal/datekey"
)

func addToday(topLevel *cobra.Command) {
	var offline, all bool

	cmd := &cobra.Command{
		Use:     "today [DATE]",
		Aliases: []string{"day", "show"},
		Short:   "print the schedule and habits for a day",
		Example: `
winterbreak today
winterbreak today 2026-1-6
winterbreak today --all --offline
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := commandContext()
			defer cancel()

			if !offline {
				if r := s.app.Load(ctx); !r.OK() {
					for name, err := range r.Failed {
						slog.Default().Warn("remote load failed", "resource", name, "err", err)
					}
				}
			}

			pp := printer(cmd)
			if all {
				for _, date := range s.app.Schedule().Dates() {
					pp.Schedule(date, s.app.Schedule().GetByDate(date))
				}
				return nil
			}

			date := s.app.Today()
			if len(args) == 1 {
				key, ok := datekey.Normalize(args[0])
				if !ok {
					return fmt.Errorf("invalid date %q", args[0])
				}
				date = key
			}

			d, err := s.app.Digest(ctx, date)
			if err != nil {
				return err
			}
			pp.Schedule(d.Date, d.Events)
			if date == s.app.Today() {
				pp.Habits(d.Habits, d.Progress)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the remote refresh.")
	cmd.Flags().BoolVar(&all, "all", false, "Print every day that has events.")

	topLevel.AddCommand(cmd)
}

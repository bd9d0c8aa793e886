package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addQueue(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "list remote writes waiting to be replayed",
		Example: `
winterbreak queue
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			pp := printer(cmd)
			pp.Queue(s.app.Queue().Entries())
			if deletes := s.app.PendingDeletes(); len(deletes) > 0 {
				pp.TitleWithCount("Pending remote deletes", len(deletes))
				for _, id := range deletes {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  "+id)
				}
			}
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addFlush(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "flush",
		Aliases: []string{"sync"},
		Short:   "replay queued writes and push local-only events",
		Example: `
winterbreak flush
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := commandContext()
			defer cancel()

			res, pushed := s.app.Flush(ctx)
			printer(cmd).Flush(res, pushed)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

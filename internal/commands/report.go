package commands

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/nhle/winterbreak/internal/datekey"
)

func addReport(topLevel *cobra.Command) {
	var (
		out  string
		send bool
	)

	cmd := &cobra.Command{
		Use:   "report [DATE]",
		Short: "write or mail the daily progress report",
		Example: `
winterbreak report --out today.eml
winterbreak report 2026-01-06 --send
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			date := s.app.Today()
			if len(args) == 1 {
				key, ok := datekey.Normalize(args[0])
				if !ok {
					return fmt.Errorf("invalid date %q", args[0])
				}
				date = key
			}

			ctx, cancel := commandContext()
			defer cancel()

			pp := printer(cmd)
			if send {
				err := s.app.SendReport(ctx, date)
				pp.Status("report for "+date+" saved to "+s.app.Config().Report.Mailbox, err)
				return err
			}

			if out == "" {
				return s.app.WriteReport(ctx, cmd.OutOrStdout(), date)
			}
			path, err := homedir.Expand(out)
			if err != nil {
				return err
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			if err := s.app.WriteReport(ctx, f, date); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			pp.Status("report written to "+path, nil)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "File to write the message to instead of stdout.")
	cmd.Flags().BoolVar(&send, "send", false, "Append the report to the configured IMAP mailbox.")

	topLevel.AddCommand(cmd)
}

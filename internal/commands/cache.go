package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addCache(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "manage cached remote reads",
	}

	wipe := &cobra.Command{
		Use:   "clear",
		Short: "forget every cached remote read",
		Example: `
winterbreak cache clear
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

			n, err := s.app.ClearCache(ctx)
			if err != nil {
				return err
			}
			printer(cmd).Status(fmt.Sprintf("cleared %d cached read(s)", n), nil)
			return nil
		},
	}

	cmd.AddCommand(wipe)
	topLevel.AddCommand(cmd)
}

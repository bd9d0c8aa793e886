package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

func addExport(topLevel *cobra.Command) {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "write the whole schedule as an iCalendar file",
		Example: `
winterbreak export --out ~/winterbreak.ics
winterbreak export > plan.ics
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				path, err := homedir.Expand(out)
				if err != nil {
					return err
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating %s: %w", path, err)
				}
				defer f.Close()
				w = f
			}
			return s.app.ExportCalendar(w)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "File to write instead of stdout.")

	topLevel.AddCommand(cmd)
}

func addImport(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "add the timed events of an iCalendar file",
		Example: `
winterbreak import ~/Downloads/camp.ics
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := homedir.Expand(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()

			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := commandContext()
			defer cancel()

			n, err := s.app.ImportCalendar(ctx, f)
			if err != nil {
				return err
			}
			printer(cmd).Status(fmt.Sprintf("imported %d event(s)", n), nil)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

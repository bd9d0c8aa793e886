package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/winterbreak/internal/app"
)

func addUI(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the text-based user interface",
		Example: `
winterbreak ui
winterbreak --config ~/winterbreak.yaml
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd)
		},
	}

	topLevel.AddCommand(cmd)
}

func runUI(_ *cobra.Command) error {
	s, err := open()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.app.Rollover().Start(); err != nil {
		return err
	}

	m := app.NewModel(s.app)
	defer m.Close()

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

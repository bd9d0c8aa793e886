package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/winterbreak/internal/habit"
	wsync "github.com/nhle/winterbreak/internal/sync"
)

func addHabit(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "check off habits and progress",
	}

	toggle := &cobra.Command{
		Use:     "toggle <habit>",
		Aliases: []string{"check", "done"},
		Short:   "flip today's completion for a habit",
		Example: `
winterbreak habit toggle piano
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a habit name")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := commandContext()
			defer cancel()

			res, err := s.app.ToggleHabit(ctx, args[0])
			if err != nil {
				return err
			}
			info := habit.Describe(res.Habit)
			verb := "unchecked"
			if res.Completed {
				verb = "checked"
			}
			printer(cmd).Status(where(fmt.Sprintf("%s %s %s, habits %d%%", info.Icon, info.Name, verb, res.Progress), res.Status), nil)
			return nil
		},
	}

	progress := &cobra.Command{
		Use:   "progress <math|english> <0-100>",
		Short: "set today's study progress",
		Example: `
winterbreak habit progress math 60
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value int
			if _, err := fmt.Sscanf(args[1], "%d", &value); err != nil {
				return fmt.Errorf("invalid progress %q", args[1])
			}

			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := commandContext()
			defer cancel()

			ws, err := s.app.SetProgress(ctx, args[0], value)
			if err != nil {
				return err
			}
			printer(cmd).Status(where(fmt.Sprintf("%s set to %d%%", args[0], value), ws), nil)
			return nil
		},
	}

	cmd.AddCommand(toggle, progress)
	topLevel.AddCommand(cmd)
}

func where(msg string, ws wsync.WriteStatus) string {
	switch ws {
	case wsync.Queued:
		return msg + " (queued until online)"
	case wsync.LocalOnly:
		return msg + " (saved on this device)"
	default:
		return msg
	}
}

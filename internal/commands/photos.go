package commands

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/photos"
)

func addPhotos(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "photos",
		Aliases: []string{"photo", "album"},
		Short:   "manage the photo album",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "list stored photos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := commandContext()
			defer cancel()

			printer(cmd).Photos(s.app.Photos(ctx))
			return nil
		},
	}

	var on string
	add := &cobra.Command{
		Use:   "add FILE",
		Short: "store an image for a day",
		Example: `
winterbreak photos add ~/Pictures/rink.jpg --on 2026-01-06
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := homedir.Expand(args[0])
			if err != nil {
				return err
			}
			data, err := photos.EncodeFile(path)
			if err != nil {
				return err
			}

			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			date := s.app.Today()
			if on != "" {
				key, ok := datekey.Normalize(on)
				if !ok {
					return fmt.Errorf("invalid date %q", on)
				}
				date = key
			}

			ctx, cancel := commandContext()
			defer cancel()

			e, err := s.app.AddPhoto(ctx, date, data)
			if err != nil {
				return err
			}
			printer(cmd).Status(fmt.Sprintf("stored photo %s for %s", e.ID, e.Date), nil)
			return nil
		},
	}
	add.Flags().StringVar(&on, "on", "", `Day the photo belongs to, example: --on="2026-01-06".`)

	del := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "remove a photo here and remotely",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := commandContext()
			defer cancel()

			e, err := s.app.DeletePhoto(ctx, args[0])
			if err != nil {
				return err
			}
			printer(cmd).Status(fmt.Sprintf("deleted photo %s from %s", e.ID, e.Date), nil)
			return nil
		},
	}

	sync := &cobra.Command{
		Use:   "sync",
		Short: "upload new photos and download remote ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := commandContext()
			defer cancel()

			res, err := s.app.SyncPhotos(ctx)
			printer(cmd).Status(fmt.Sprintf("uploaded %d, downloaded %d", res.Pushed, res.Pulled), err)
			return err
		},
	}

	cmd.AddCommand(list, add, del, sync)
	topLevel.AddCommand(cmd)
}

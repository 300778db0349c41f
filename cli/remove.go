package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "remove <artist|album> <id>",
		Short:     "remove an artist, with their albums, or a single album",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"artist", "album"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			lib, done, err := a.open()
			if err != nil {
				return err
			}
			defer done()

			switch args[0] {
			case "artist":
				err = lib.RemoveArtist(cmd.Context(), id)
			case "album":
				err = lib.RemoveAlbum(cmd.Context(), id)
			default:
				return fmt.Errorf("can't remove a '%s'", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Printf("removed %s %d\n", args[0], id)
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amonks/discography/data"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <WANTED|SKIPPED|IGNORED|...> <album id>...",
		Short: "set the status of albums",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := data.ParseAlbumStatus(args[0])
			if err != nil {
				return err
			}
			var ids []uint
			for _, arg := range args[1:] {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			lib, done, err := a.open()
			if err != nil {
				return err
			}
			defer done()

			if err := lib.SetAlbumsStatus(cmd.Context(), ids, status); err != nil {
				return err
			}
			fmt.Printf("%d albums are %s\n", len(ids), status)
			return nil
		},
	}
}

package main

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [artist slug]",
		Short: "list artists, or one artist's albums",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, done, err := a.open()
			if err != nil {
				return err
			}
			defer done()

			if len(args) == 0 {
				artists, err := lib.ListArtists(ctx)
				if err != nil {
					return err
				}
				rows := make([][]string, len(artists))
				for i, artist := range artists {
					rows[i] = []string{strconv.FormatUint(uint64(artist.ID), 10), artist.Name, artist.Slug, artist.Country, artist.Location}
				}
				printTable([]string{"id", "name", "slug", "country", "location"}, rows, 0)
				return nil
			}

			artist, err := lib.ArtistBySlug(ctx, args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, len(artist.Albums))
			for i, album := range artist.Albums {
				size := ""
				if album.Size > 0 {
					size = humanize.Bytes(uint64(album.Size))
				}
				rows[i] = []string{
					strconv.FormatUint(uint64(album.ID), 10),
					strconv.Itoa(album.Year),
					album.Name,
					album.Type,
					strconv.Itoa(album.Tracks),
					album.Status.String(),
					size,
				}
			}
			printTable([]string{"id", "year", "name", "type", "tracks", "status", "size"}, rows, 0, 1, 4, 6)
			return nil
		},
	}
}

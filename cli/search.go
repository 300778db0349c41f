package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <artist name>",
		Short: "search musicbrainz for an artist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			matches, err := catalog.SearchArtists(cmd.Context(), query)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Printf("no artists found for '%s'\n", query)
				return nil
			}

			rows := make([][]string, len(matches))
			for i, m := range matches {
				rows[i] = []string{m.ID, m.Name, m.Country, m.Disambiguation, strconv.Itoa(m.Score)}
			}
			printTable([]string{"id", "name", "country", "disambiguation", "score"}, rows, 4)
			return nil
		},
	}
}

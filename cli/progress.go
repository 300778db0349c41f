package main

import (
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/amonks/discography/data"
)

func newProgressCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "summarize the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}

			printSection("artists", counts.Artists, nil)

			var statuses []section
			for _, status := range data.AlbumStatuses {
				statuses = append(statuses, section{strings.ToLower(status.String()), counts.AlbumsByStatus[status]})
			}
			printSection("albums", counts.Albums, statuses)

			printSection("metadata", counts.IndexerData, []section{
				{"orphaned", counts.Orphans},
				{"genres", counts.Genres},
				{"images", counts.Images},
			})
			printSection("search results", counts.Results, []section{
				{"snatched", counts.Snatches},
			})
			return nil
		},
	}
}

var humanPrinter = message.NewPrinter(language.English)

type section struct {
	name  string
	count int64
}

func printSection(name string, known int64, parts []section) {
	humanPrinter.Printf("%s\n", strings.ToUpper(name))
	humanPrinter.Printf("  %d\tknown\n", known)
	for _, part := range parts {
		if known > 0 {
			humanPrinter.Printf("  %d\t%s (%.2f%%)\n", part.count, part.name, 100.0*float64(part.count)/float64(known))
		} else {
			humanPrinter.Printf("  %d\t%s\n", part.count, part.name)
		}
	}
	humanPrinter.Printf("\n")
}

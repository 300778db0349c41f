package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amonks/discography/config"
	"github.com/amonks/discography/setflag"
	"github.com/amonks/discography/workers"
)

func newAddCommand(a *app) *cobra.Command {
	var (
		root  string
		types = setflag.New(config.ReleaseTypes()...)
	)
	cmd := &cobra.Command{
		Use:   "add <musicbrainz id | artist name>",
		Short: "import an artist and their albums, without waiting for the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			catalog, err := a.catalog()
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			id := query
			if _, err := uuid.Parse(query); err != nil {
				match, err := catalog.FindArtist(ctx, query)
				if err != nil {
					return err
				}
				a.log.Info("found artist", "name", match.Name, "id", match.ID, "score", match.Score)
				id = match.ID
			}

			f := a.fetcher(store, catalog, types.List())
			job := workers.NewJob(id, root)
			outcome := job.Run(ctx, f, a.cfg.Music.RootDir(), a.log)
			if outcome.Kind == workers.Failed {
				return fmt.Errorf("error importing '%s': %s", query, outcome.Reason)
			}

			res := job.Resolution()
			fmt.Printf("imported %s: %d albums, %d new\n", res.Artist.Name, len(res.Albums), len(res.New))
			if res.Artist.Location != "" {
				fmt.Printf("  %s\n", res.Artist.Location)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "directory to put the artist under (default from config)")
	cmd.Flags().Var(types, "types", "release types to import, comma separated (default from config)")
	return cmd
}

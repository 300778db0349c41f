package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newFindCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <album id>",
		Short: "search the configured providers for an album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			lib, done, err := a.open()
			if err != nil {
				return err
			}
			defer done()

			results, err := lib.SearchProviders(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no results")
				return nil
			}

			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{
					strconv.FormatUint(uint64(r.ID), 10),
					r.Provider,
					r.Name,
					r.Quality,
					humanize.Bytes(uint64(r.Size)),
					strconv.Itoa(r.Seeders),
				}
			}
			printTable([]string{"id", "provider", "name", "quality", "size", "seeders"}, rows, 0, 4, 5)
			return nil
		},
	}
}

func newSnatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snatch <result id>",
		Short: "send a search result to the download client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			lib, done, err := a.open()
			if err != nil {
				return err
			}
			defer done()

			if !lib.Snatch(cmd.Context(), id) {
				return fmt.Errorf("couldn't snatch result %d; see the log", id)
			}
			fmt.Printf("snatched result %d\n", id)
			return nil
		},
	}
}

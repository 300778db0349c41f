package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/amonks/discography/server"
	"github.com/amonks/discography/workers"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the import queue, the library refresher, and the json api",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			queue := a.queue(a.fetcher(store, catalog, nil))
			lib, err := a.library(store, catalog, queue)
			if err != nil {
				return err
			}
			refresher := workers.NewRefresher(store, queue, a.cfg.Music.RefreshInterval.Duration, a.log)

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			gin.SetMode(gin.ReleaseMode)
			handler := server.New(lib, a.log)

			a.log.Info("serving", "addr", addr)
			return workers.Run(cmd.Context(), a.log, queue, refresher, store, workers.Worker{
				Name: "server",
				Run: func(ctx context.Context, c chan<- struct{}) error {
					return server.Run(ctx, handler, addr)
				},
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default from config)")
	return cmd
}

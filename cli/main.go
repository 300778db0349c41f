// discography imports artists and their albums from MusicBrainz into a music
// library, then finds and downloads the albums you want.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amonks/discography/sigctx"
)

func main() {
	if err := newRootCommand().ExecuteContext(sigctx.New()); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("canceled")
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "discography",
		Short:         "import artists from musicbrainz and track their albums",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "configuration file path")

	rootCmd.AddCommand(
		newServeCommand(a),
		newSearchCommand(a),
		newAddCommand(a),
		newListCommand(a),
		newStatusCommand(a),
		newFindCommand(a),
		newSnatchCommand(a),
		newRemoveCommand(a),
		newProgressCommand(a),
	)
	return rootCmd
}

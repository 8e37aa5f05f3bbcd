package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loreworks/loretex/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "loretexd",
		Short:   "Loretex daemon and CLI",
		Long:    "Loretex daemon for serving the knowledge API and ingesting or querying documents",
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.RetrieveCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

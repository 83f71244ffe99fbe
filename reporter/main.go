// Command reporter computes line diffs and serves and packs reports built from them.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd := &cobra.Command{
		Use:          "reporter [command]",
		Short:        "Line diffs and diff reports",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(packCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

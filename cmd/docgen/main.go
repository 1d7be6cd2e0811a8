// docgen runs the document pipeline from the command line.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/docgen generate --meeting RCM-53 --kind rating_sheet
//	go run ./cmd/docgen history --meeting RCM-53
//	PUBSUB_PROJECT_ID=... go run ./cmd/docgen enqueue --meeting RCM-53 --kind mom
//	go run ./cmd/docgen migrate
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "docgen",
		Short:         "Generate rating committee documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(enqueueCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

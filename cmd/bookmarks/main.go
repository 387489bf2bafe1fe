// Package main provides the bookmarks command line client.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/smartbookmarks/smartbookmarks/internal/cli"
)

func main() {
	// Missing .env is fine; existing environment variables win.
	_ = godotenv.Load()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

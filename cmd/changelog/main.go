// Package main provides the changelog CLI: it renders git history as a categorized
// changelog and works with the JSON exports it produces.
package main

import (
	"context"
	"os"
	"os/signal"

	"gitchangelog/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	app := cli.NewApp()
	code := app.Execute(ctx, app.CreateChangelogCommand(), os.Args[1:])
	stop()
	os.Exit(code)
}

// Package main provides the release CLI: it bumps the version, records the release in
// the changelog file and tags it.
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
	code := app.Execute(ctx, app.CreateReleaseCommand(), os.Args[1:])
	stop()
	os.Exit(code)
}

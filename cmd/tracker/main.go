// Command tracker is the terminal client for the item tracker API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/FACorreiaa/go-item-tracker/internal/client"
	"github.com/FACorreiaa/go-item-tracker/internal/client/cli"
	"github.com/FACorreiaa/go-item-tracker/internal/client/tui"
)

const defaultAPI = "http://localhost:3001"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	base := os.Getenv("TRACKER_API")
	if base == "" {
		base = defaultAPI
	}

	path, err := client.DefaultCredentialsPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitError
	}

	s := client.NewSession(client.New(base), path)
	return cli.Run(ctx, s, os.Args[1:], cli.Options{
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Stdin:        os.Stdin,
		ReadPassword: tui.ReadPassword,
		RunUI:        tui.Run,
	})
}

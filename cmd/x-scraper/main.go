package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"xscraper/internal/cli"
	"xscraper/internal/config"
	"xscraper/internal/logging"
)

func main() {
	// Loads .env, the optional YAML file and the environment.
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "x-scraper: %v\n", err)
		os.Exit(cli.ExitUsage)
	}

	// Logs go to stderr so stdout stays clean for `read`.
	logger := logging.New(os.Stderr, settings.LogLevel, false)

	ctx, cancel := context.WithCancel(context.Background())

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("Received interrupt signal, cancelling...")
		cancel()
	}()

	app := cli.New(settings, logger, os.Stdout, os.Stderr)
	code := app.Run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}

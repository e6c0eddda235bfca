package main

//go:generate swag init -g main.go -o docs

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wakectl/internal/app"
	"wakectl/internal/cli/commands"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create and run app
	application := app.New()
	if err := application.RunWithContext(ctx, os.Args[1:]); err != nil {
		cancel()
		os.Exit(commands.ReportError(os.Stderr, err))
	}
}

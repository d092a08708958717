// Package main implements the entry point for the task board API: an HTTP
// server for users and the tasks assigned to them, plus maintenance commands
// for migrations and consistency repair.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := buildApp(defaultDeps()).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "taskapi: %v\n", err)
		os.Exit(1)
	}
}

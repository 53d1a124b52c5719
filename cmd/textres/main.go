package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/reoring/textres/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "textres:", err)
		os.Exit(1)
	}
}

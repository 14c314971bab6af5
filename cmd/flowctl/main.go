package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/futig/joke-flows/internal/builder"
	"github.com/futig/joke-flows/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand(builder.LoadCLIServices).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yndnr/persist-securestore/internal/cli/command"
	"github.com/yndnr/persist-securestore/internal/infra/shutdown"
)

func main() {
	ctx, stop := shutdown.WithSignals(context.Background())
	err := command.App().RunContext(ctx, os.Args)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

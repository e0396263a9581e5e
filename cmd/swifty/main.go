// Command swifty looks students up from the terminal through the same queue
// the HTTP server uses. The token is kept in a local SQLite file by default.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openRuntime).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

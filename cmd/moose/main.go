// Package main is the entry point for the moose binary.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mhismail3/moosetabs/internal/cli"
	"github.com/mhismail3/moosetabs/internal/logging"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		// Provider errors already read as user-facing messages.
		fmt.Fprintln(os.Stderr, "moose:", err)
		logging.Logger().Debug("fatal error", "err", err)
		os.Exit(1)
	}
}

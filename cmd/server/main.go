package main

import (
	"context"
	"fmt"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	cmd := &cobra.Command{
		Use:           "shop",
		Short:         "Cosmetic shop API and Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		// running without a subcommand starts the server
		RunE: serve.RunE,
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(newAdminCmd())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sarnezclutch/sioemit/internal/cli"
	"github.com/sarnezclutch/sioemit/internal/config"
	"github.com/sarnezclutch/sioemit/internal/logger"
)

func main() {
	var lcfg logger.Config
	config.MustLoad(&lcfg)
	slog.SetDefault(logger.New(os.Stderr, lcfg))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

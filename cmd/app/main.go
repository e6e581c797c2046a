package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airbooking-client/config"
	"github.com/Domenick1991/airbooking-client/internal/bootstrap"
	"github.com/Domenick1991/airbooking-client/internal/logging"
	"github.com/fatih/color"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := newCLI(os.Stdin, os.Stdout, func(ctx context.Context) (*bootstrap.App, error) {
		cfg, err := config.LoadOrDefault(cfgPath)
		if err != nil {
			return nil, err
		}
		return bootstrap.New(ctx, cfg, logging.New(cfg.Log))
	})

	err := c.root().ExecuteContext(ctx)
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString(errorText(err)))
		os.Exit(1)
	}
}

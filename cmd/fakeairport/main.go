package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airbooking-client/config"
	"github.com/Domenick1991/airbooking-client/internal/bootstrap"
	"github.com/Domenick1991/airbooking-client/internal/logging"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.RunFakeAirport(ctx, cfg.FakeAirport, logger); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

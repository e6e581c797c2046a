package bootstrap

import (
	"context"

	"github.com/Domenick1991/airbooking-client/config"
	"github.com/Domenick1991/airbooking-client/internal/fakeairport"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RunFakeAirport serves the seeded in-memory booking service until ctx is
// cancelled.
func RunFakeAirport(ctx context.Context, cfg config.FakeAirportConfig, log zerolog.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	store := fakeairport.NewStore(0)
	if err := store.Seed(); err != nil {
		return err
	}
	tokens := fakeairport.NewTokens(cfg.JWTSecret, 0)
	return fakeairport.NewServer(cfg.Address, store, tokens, log).Run(ctx)
}

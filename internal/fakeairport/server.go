package fakeairport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Server struct {
	store      *Store
	tokens     *Tokens
	log        zerolog.Logger
	httpServer *http.Server
}

// NewServer builds the router around store. The store is used as is; call
// Store.Seed beforehand for the demo data set.
func NewServer(addr string, store *Store, tokens *Tokens, log zerolog.Logger) *Server {
	s := &Server{store: store, tokens: tokens, log: log}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests())

	api := router.Group("/api")
	NewAuthHandler(s.store, s.tokens).Register(api.Group("/auth"))
	NewFlightHandler(s.store).Register(api.Group("/flights"))
	NewBookingHandler(s.store).Register(api.Group("/bookings", RequireUser(s.tokens, s.store)))
	return router
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	s.log.Info().Str("addr", lis.Addr().String()).Msg("fake airport listening")

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(lis) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/liquidstaking/staking-ledger/internal/config"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

// Mount registers the ledger routes on r
func (h *Handler) Mount(r chi.Router) {
	r.Get("/healthcheck", WrapHandlerFunc(h.HealthCheck))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/params", WrapHandlerFunc(h.GetParams))
		r.Get("/custody", WrapHandlerFunc(h.GetCustody))
		r.Post("/rewards/fund", WrapHandlerFunc(h.FundRewards))

		r.Post("/stakes", WrapHandlerFunc(h.Stake))
		r.Route("/stakes/{account}", func(r chi.Router) {
			r.Get("/", WrapHandlerFunc(h.GetStake))
			r.Post("/unstake", WrapHandlerFunc(h.Unstake))
			r.Post("/claim", WrapHandlerFunc(h.Claim))
			r.Get("/vested", WrapHandlerFunc(h.GetVested))
			r.Get("/reference", WrapHandlerFunc(h.GetReference))
			r.Get("/history", WrapHandlerFunc(h.GetHistory))
			r.Get("/events", WrapHandlerFunc(h.GetEvents))
		})
	})
}

func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	h.Mount(r)
	return r
}

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.ServerConfig, handler *Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler.Router(),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Start serves until ctx is done, then shuts the server down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Ctx(ctx).Info().Msgf("Starting api server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down api server: %w", err)
	}
	log.Ctx(ctx).Info().Msg("api server stopped")
	return nil
}

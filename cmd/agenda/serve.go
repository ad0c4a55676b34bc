package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httptransport "github.com/example/conference-agenda/internal/http"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil {
					a.logger.Error("failed to release resources", "error", cerr)
				}
			}()
			if err := a.cfg.ValidateServer(); err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	svc, err := a.services()
	if err != nil {
		return err
	}
	auth, err := httptransport.NewJWTAuthenticator(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer, nil)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Catalog:         httptransport.NewCatalogHandler(svc.catalog, a.logger),
		Favorites:       httptransport.NewFavoriteHandler(svc.favorites, a.logger),
		Profiles:        httptransport.NewProfileHandler(svc.profiles, a.logger),
		Agenda:          httptransport.NewAgendaHandler(svc.agenda, a.logger),
		Auth:            auth,
		Logger:          a.logger,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow,
	})

	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	a.logger.Info("agenda API listening",
		"addr", server.Addr,
		"database", a.cfg.Database.Driver,
		"cache", a.cfg.Cache.Backend,
		"relevance", a.cfg.Qdrant.Enabled,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/videotheek/internal/config"
	"github.com/Shivanand-hulikatti/videotheek/internal/handler"
	"github.com/Shivanand-hulikatti/videotheek/internal/metadata"
	"github.com/Shivanand-hulikatti/videotheek/internal/repository"
	"github.com/Shivanand-hulikatti/videotheek/internal/service"
	"github.com/Shivanand-hulikatti/videotheek/internal/session"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with the browser pages and the JSON API.

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "override server.addr")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	store, closeStore, err := openStore(ctx, cfg.Database, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer closeStore()

	router, err := buildRouter(store, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// buildRouter wires the services and handlers on top of store.
func buildRouter(store repository.Store, cfg *config.Config) (http.Handler, error) {
	lookup, err := metadata.NewClient(
		cfg.Metadata.BaseURL,
		cfg.Metadata.APIKey,
		logger.With().Str("component", "metadata").Logger(),
		metadata.WithTimeout(cfg.Metadata.Timeout),
	)
	if err != nil {
		return nil, err
	}

	sessCfg := cfg.Session
	if sessCfg.Secret == "" {
		sessCfg.Secret, err = randomSecret()
		if err != nil {
			return nil, err
		}
		logger.Warn().Msg("session.secret is not set, generated a random one; sessions will not survive a restart")
	}
	sessions, err := session.NewManager(sessCfg)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	catalog := service.NewCatalogService(store, lookup, logger)
	accounts := service.NewAccountService(store, logger)

	h, err := handler.New(catalog, accounts, sessions, logger)
	if err != nil {
		return nil, fmt.Errorf("handler: %w", err)
	}
	return handler.NewRouter(h, cfg.Server.CORSOrigins, logger), nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

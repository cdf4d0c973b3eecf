package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"factsheet/internal/handler"
	"factsheet/internal/hub"
	"factsheet/internal/repository/sqlite"
	"factsheet/internal/service"
	"factsheet/internal/watcher"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		addr    string
		watch   bool
		noStore bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the facts API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags, addr, watch, noStore)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload sheets when their files change")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the snapshot database")
	return cmd
}

func runServe(cmd *cobra.Command, flags *rootFlags, addr string, watch, noStore bool) error {
	a, err := newApp(flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger := a.logger
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	watch = watch || a.cfg.Watch.Enabled

	var opts []service.Option
	if !noStore {
		repo, err := sqlite.New(a.cfg.Export.Database)
		if err != nil {
			return err
		}
		defer repo.Close()
		logger.Info("Database opened", "path", a.cfg.Export.Database)
		opts = append(opts, service.WithRepository(repo))
	}
	svc := a.service(opts...)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Connect event bus to SSE hub
	sseHub := hub.New(logger.WithPrefix("sse"))
	go sseHub.Run(ctx)
	eventChan := make(chan service.Event, 100)
	a.eventBus.Subscribe(eventChan)
	go hub.Forward(ctx, sseHub, eventChan)

	if watch {
		w := watcher.New(a.registry.Paths(), func(path string) {
			if _, err := svc.Reload(path); err == nil {
				logger.Info("Reloaded sheet", "path", path)
			}
		}).WithDebounce(a.cfg.Watch.Debounce.Duration()).WithLogger(logger.WithPrefix("watch"))
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Watcher stopped", "error", err)
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	h := handler.New(svc, a.renderer, sseHub, logger.WithPrefix("http"))

	server := &http.Server{
		Addr:         addr,
		Handler:      h.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", addr, "sheets", len(a.registry.Sheets()), "watch", watch)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, done := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.NewServer(ctx, a.ctrl, a.prefs, a.images)
	srv.Echo.Logger.SetLevel(echoLevel(cfg.LogLevel))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"secai/internal/server"
	"secai/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search, selection and chat API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	sessions := session.NewManager(a.cfg.Session.PageSize)
	srv := server.New(server.Config{
		Addr:           addr,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		PageSize:       a.cfg.Session.PageSize,
		APIKey:         a.apiKey(),
	}, a.edgar, session.FromService(a.service), sessions, a.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sessions.Run(ctx,
		time.Duration(a.cfg.Session.SweepIntervalSecs)*time.Second,
		time.Duration(a.cfg.Session.IdleTimeoutSecs)*time.Second,
		a.logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

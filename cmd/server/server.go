package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// serve listens on the configured ports and blocks until ctx is done or a
// listener fails, then shuts the servers down gracefully.
func (app *application) serve(ctx context.Context) error {
	cfg := app.config.Server

	httpLn, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
	if err != nil {
		return fmt.Errorf("failed to listen on HTTP port %d: %w", cfg.HTTPPort, err)
	}

	var httpsLn net.Listener
	if cfg.TLSEnabled() {
		httpsLn, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPSPort))
		if err != nil {
			_ = httpLn.Close()
			return fmt.Errorf("failed to listen on HTTPS port %d: %w", cfg.HTTPSPort, err)
		}
	}

	return app.serveListeners(ctx, httpLn, httpsLn)
}

// serveListeners serves plain HTTP on httpLn and, when httpsLn is non-nil,
// TLS on httpsLn using the configured certificate.
func (app *application) serveListeners(ctx context.Context, httpLn, httpsLn net.Listener) error {
	cfg := app.config.Server

	newServer := func() *http.Server {
		return &http.Server{
			Handler:           app.handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
		}
	}

	servers := []*http.Server{newServer()}
	errCh := make(chan error, 2)

	go func() {
		app.logger.Info("starting HTTP server", slog.String("addr", httpLn.Addr().String()))
		errCh <- servers[0].Serve(httpLn)
	}()

	if httpsLn != nil {
		tlsServer := newServer()
		servers = append(servers, tlsServer)
		go func() {
			app.logger.Info("starting HTTPS server", slog.String("addr", httpsLn.Addr().String()))
			errCh <- tlsServer.ServeTLS(httpsLn, cfg.TLSCertFile, cfg.TLSKeyFile)
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("server failed", slog.String("error", err.Error()))
			serveErr = fmt.Errorf("server failed: %w", err)
		}
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
			if serveErr == nil {
				serveErr = fmt.Errorf("server shutdown failed: %w", err)
			}
		}
	}

	if serveErr == nil {
		app.logger.Info("server shutdown completed")
	}
	return serveErr
}

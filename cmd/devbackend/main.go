package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LukeHalby/pushchat/internal/devbackend"
	"github.com/LukeHalby/pushchat/internal/log"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	readHeaderTimeout := flag.Duration("read-header-timeout", 5*time.Second, "HTTP read header timeout")
	shutdownTimeout := flag.Duration("shutdown-timeout", 5*time.Second, "graceful shutdown timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(*logLevel, true)

	server := &http.Server{
		Addr:              *addr,
		Handler:           devbackend.New(logger).Handler(),
		ReadHeaderTimeout: *readHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	logger.Info().Str("addr", *addr).Msg("devbackend listening")

	select {
	case err := <-serverErr:
		stdlog.Fatalf("devbackend exited with error: %v", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("shutdown error")
		}
		if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn().Err(err).Msg("server error")
		}
	}
	logger.Info().Msg("devbackend stopped")
}

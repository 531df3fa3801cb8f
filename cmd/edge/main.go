package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tasklane/tasklane/internal/app"
	"github.com/tasklane/tasklane/internal/edge"
	"github.com/tasklane/tasklane/internal/token"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping edge startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	upstream, err := url.Parse(cfg.EdgeUpstream)
	if err != nil {
		logger.Error("parse upstream url", slog.Any("error", err))
		os.Exit(1)
	}

	codec, err := token.NewCodec(cfg.TokenSecret)
	if err != nil {
		logger.Error("init token codec", slog.Any("error", err))
		os.Exit(1)
	}

	proxy := edge.NewProxy(edge.Config{
		Upstream:     upstream,
		Codec:        codec,
		Logger:       logger,
		SecureCookie: cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         cfg.EdgeAddr,
		Handler:      proxy,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting edge proxy", slog.String("addr", cfg.EdgeAddr), slog.String("upstream", cfg.EdgeUpstream))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down edge proxy")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("edge exit", slog.Any("error", err))
		os.Exit(1)
	}
}

// Command cartond runs the carton ingest daemon: a QUIC listener that
// accepts pushed container streams, probes their format, and drives one
// demux pipeline per stream.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"carton/certs"
	"carton/format"
	"carton/ingest"
	quicingest "carton/ingest/quic"
	"carton/pipeline"
	"carton/y4m"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	formats := format.NewRegistry()
	if err := formats.Register(y4m.Descriptor()); err != nil {
		slog.Error("register format", "error", err)
		os.Exit(1)
	}

	slog.Info("generating self-signed certificate")
	cert, err := certs.Generate(14 * 24 * time.Hour)
	if err != nil {
		slog.Error("failed to generate cert", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	quicAddr := envOr("QUIC_ADDR", ":6121")

	slog.Info("cartond starting",
		"version", version,
		"quic", quicAddr,
		"cert_hash", cert.FingerprintBase64(),
		"cert_expires", cert.NotAfter.Format(time.RFC3339),
	)

	g, ctx := errgroup.WithContext(ctx)

	// The ingest registry dispatches each new publish connection to its own
	// pipeline goroutine; pipeline failures end that stream, not the daemon.
	registry := ingest.NewRegistry(func(key string, input io.Reader) {
		p := pipeline.New(key, input, formats, pipeline.Discard)
		go func() {
			if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("pipeline ended", "stream", key, "error", err)
			}
		}()
	})

	srv := quicingest.NewServer(quicAddr, cert, registry, slog.Default())
	g.Go(func() error {
		return srv.Start(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

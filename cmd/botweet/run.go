package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/botweet/botweet/bot"
	"github.com/botweet/botweet/botfile"
	"github.com/botweet/botweet/task"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"golang.org/x/sync/errgroup"
)

var cmdRun = &cli.Command{
	Name:      "run",
	Usage:     "run the behaviors declared in a botfile until interrupted",
	ArgsUsage: `<botfile>`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs (empty to disable)",
			Value:   ":3989",
			EnvVars: []string{"BOTWEET_METRICS_LISTEN"},
		},
	},
	Action: runBot,
}

func runBot(cctx *cli.Context) error {
	logger := configLogger(cctx, os.Stdout)

	if cctx.Args().Len() != 1 {
		return fmt.Errorf("expected a single botfile argument")
	}
	bf, err := botfile.Load(cctx.Args().First())
	if err != nil {
		return err
	}

	if shutdown, err := setupTracing(logger); err != nil {
		return err
	} else if shutdown != nil {
		defer shutdown()
	}

	b, err := newBot(cctx, logger)
	if err != nil {
		return err
	}

	var metricsServer *http.Server
	if addr := cctx.String("metrics-listen"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", "addr", addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	loops, err := bf.Start(b)
	if err != nil {
		return err
	}
	logger.Info("bot running", "behaviors", len(loops))

	// exits early only if every loop ends on its own
	var watchers errgroup.Group
	for _, l := range loops {
		watchers.Go(func() error {
			<-l.Done()
			if l.State() == task.Failed {
				logger.Error("loop died", "loop", l.Name(), "sinceID", l.SinceID(), "err", l.Err())
			}
			return nil
		})
	}
	allDone := make(chan struct{})
	go func() {
		_ = watchers.Wait()
		close(allDone)
	}()

	// Trap SIGINT to trigger a shutdown.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signals:
		logger.Info("received signal, stopping loops", "signal", sig)
	case <-allDone:
		logger.Warn("all loops ended")
	}

	bot.StopAll(loops...)
	for _, l := range loops {
		logger.Info("loop stopped", "loop", l.Name(), "state", l.State(), "sinceID", l.SinceID())
	}

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("failed to shut down metrics server", "err", err)
		}
	}

	for _, l := range loops {
		if l.State() == task.Failed {
			return fmt.Errorf("loop %s failed: %w", l.Name(), l.Err())
		}
	}
	return nil
}

// setupTracing enables the OTLP HTTP exporter when OTEL_EXPORTER_OTLP_ENDPOINT is
// set. The returned func flushes it.
func setupTracing(logger *slog.Logger) (func(), error) {
	ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if ep == "" {
		return nil, nil
	}
	logger.Info("setting up trace exporter", "endpoint", ep)

	exp, err := otlptracehttp.New(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("botweet"),
			attribute.String("environment", os.Getenv("ENVIRONMENT")),
		)),
	)
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown trace exporter", "err", err)
		}
	}, nil
}

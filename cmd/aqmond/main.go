// Package main is the entry point for the aqmon air-quality monitor
// daemon. It initializes configuration, wires the sensor pollers, network
// watcher, metrics endpoint and the watchdog liveness runner, and runs
// until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cleanair-labs/aqmon/internal/clock"
	"github.com/cleanair-labs/aqmon/internal/config"
	"github.com/cleanair-labs/aqmon/internal/device"
	"github.com/cleanair-labs/aqmon/internal/liveness"
	"github.com/cleanair-labs/aqmon/internal/metrics"
	"github.com/cleanair-labs/aqmon/internal/netwatch"
	"github.com/cleanair-labs/aqmon/internal/sensors"
	"github.com/cleanair-labs/aqmon/internal/store"
	"github.com/cleanair-labs/aqmon/internal/track"
	"github.com/cleanair-labs/aqmon/internal/watchdog"
	"github.com/cleanair-labs/aqmon/internal/web"
)

var (
	// version and commit are set at build time via -ldflags.
	version = "dev"
	commit  = "unknown"

	configPath  = flag.String("config", "aqmon.yaml", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("aqmond %s (%s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger.Info("Starting aqmond",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("http_addr", cfg.HTTP.Addr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))
		cancel()
	}()

	runDaemon(ctx, cfg, logger)
	logger.Info("Daemon stopped")
}

// runDaemon wires all components and blocks until the context is cancelled.
func runDaemon(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	clk := clock.System()
	bootTime := clk.Now()

	readings := store.New()
	connectivity := track.New()
	scrapes := track.New()

	dev := device.Resolve(ctx, version, commit)
	logger.Info("Device identity",
		zap.String("device_id", dev.DeviceID),
		zap.String("serial", dev.Serial),
		zap.String("reset_reason", dev.ResetReason))

	// Metrics surface: snapshot collector plus runtime and runner metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(metrics.NewCollector(metrics.NewBuilder(readings, dev, bootTime), clk))
	runnerMetrics := liveness.NewMetrics(registry)

	feeder := openFeeder(cfg, logger)

	evaluator := liveness.NewEvaluator(liveness.Policy{
		MaxConnectivityAge: cfg.Watchdog.MaxConnectivityAge.Duration,
		MaxSensorAge:       cfg.Watchdog.MaxSensorAge.Duration,
		MaxScrapeAge:       cfg.Watchdog.MaxScrapeAge.Duration,
		StartupGrace:       cfg.Watchdog.StartupGrace.Duration,
	}, bootTime, readings, connectivity, scrapes)
	runner := liveness.NewRunner(evaluator, feeder, clk, cfg.Watchdog.TickInterval.Duration, logger, runnerMetrics)

	watcher := netwatch.New(connectivity, clk, cfg.Network.ProbeInterval.Duration, cfg.Network.Interface, logger)
	server := web.New(cfg.HTTP.Addr, registry, scrapes, clk, logger)

	var wg sync.WaitGroup

	// One poller per channel keeps each channel single-writer.
	for i, id := range store.AllChannels() {
		driver := sensors.NewSimDriver(id, bootTime.UnixNano()+int64(i))
		poller := sensors.NewPoller(driver, readings, clk, cfg.Sensors.PollingInterval.Duration, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		watcher.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runner.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(ctx); err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}()

	logger.Info("Daemon running",
		zap.Duration("polling_interval", cfg.Sensors.PollingInterval.Duration),
		zap.Duration("watchdog_tick", cfg.Watchdog.TickInterval.Duration))

	wg.Wait()

	if closer, ok := feeder.(*watchdog.DeviceFeeder); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Watchdog disarm failed", zap.Error(err))
		}
	}
}

// openFeeder selects the watchdog feeder: the configured device, or a
// dry-run feeder when none is configured.
func openFeeder(cfg *config.Config, logger *zap.Logger) watchdog.Feeder {
	if cfg.Watchdog.Device == "" {
		logger.Info("No watchdog device configured, running dry")
		return watchdog.NewLogFeeder(logger)
	}
	feeder, err := watchdog.OpenDevice(cfg.Watchdog.Device)
	if err != nil {
		logger.Fatal("Failed to open watchdog device", zap.Error(err))
	}
	logger.Info("Watchdog device armed", zap.String("device", cfg.Watchdog.Device))
	return feeder
}

// initLogger creates a zap logger based on the configuration.
// It outputs to console and optionally a JSON log file.
func initLogger(cfg *config.Config) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			)
			cores = append(cores, fileCore)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}

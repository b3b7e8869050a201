// Command jukebox is a wiring example for internal/asynctask and
// internal/playback: it loads configuration, stands up the catalogue
// client, the gapless playback engine, the async callback manager, and
// the terminal frontend, and runs them together.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/basket/jukeboxcore/internal/asynctask"
	"github.com/basket/jukeboxcore/internal/backend"
	"github.com/basket/jukeboxcore/internal/bus"
	"github.com/basket/jukeboxcore/internal/config"
	otelpkg "github.com/basket/jukeboxcore/internal/otel"
	"github.com/basket/jukeboxcore/internal/playback"
	"github.com/basket/jukeboxcore/internal/tui"
)

// Version is set via ldflags at build time: -ldflags "-X main.Version=...".
var Version = "v0.1-dev"

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage of %s:

  %s                  Start the jukebox player TUI
  %s -backend <url>   Override the catalogue API base URL for this run

FLAGS:
`, os.Args[0], os.Args[0], os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
ENVIRONMENT VARIABLES:
  JUKEBOXCORE_HOME                    Data directory (default: ~/.jukeboxcore)
  JUKEBOXCORE_BACKEND_BASE_URL        Catalogue API base URL
  JUKEBOXCORE_BACKEND_TIMEOUT_SECONDS Catalogue API request timeout
  JUKEBOXCORE_SAMPLE_RATE             Audio sink sample rate
  JUKEBOXCORE_QUEUE_ID                Shared listening queue to join
`)
}

func main() {
	backendOverride := flag.String("backend", "", "override the catalogue API base URL")
	flag.Usage = printUsage
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fatalStartup(nil, "E_CONFIG_LOAD", err)
	}
	if *backendOverride != "" {
		cfg.Backend.BaseURL = *backendOverride
	}

	logLevel := slog.LevelInfo
	_ = logLevel.UnmarshalText([]byte(cfg.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	logger.Info("startup phase", "phase", "config_loaded", "fingerprint", cfg.Fingerprint())

	otelProvider, err := otelpkg.Init(ctx, otelpkg.Config{Enabled: false})
	if err != nil {
		fatalStartup(logger, "E_OTEL_INIT", err)
	}
	defer otelProvider.Shutdown(ctx)

	metrics, err := otelpkg.NewMetrics(otelProvider.Meter)
	if err != nil {
		fatalStartup(logger, "E_METRICS_INIT", err)
	}

	eventBus := bus.NewWithLogger(logger)

	watcher := config.NewWatcher(cfg.HomeDir, logger)
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("config watcher disabled", "error", err)
	} else {
		go watchConfigReloads(ctx, watcher, logger)
	}

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.BackendTimeout())

	sink, ready, err := playback.NewOtoSink(cfg.Playback.SampleRate)
	if err != nil {
		fatalStartup(logger, "E_SINK_INIT", err)
	}
	<-ready

	engine := playback.New[string](sink, playback.Config{
		ProgressInterval:  cfg.ProgressInterval(),
		UpdateBufferSize:  cfg.Playback.UpdateBufferSize,
		RequestBufferSize: cfg.Playback.RequestBufferSize,
	}, logger)
	defer engine.Close()

	mgr := asynctask.NewManager[tui.State](asynctask.ManagerConfig{
		IntakeBufferSize:  cfg.Manager.IntakeBufferSize,
		ResultsBufferSize: cfg.Manager.ResultsBufferSize,
		Tracer:            otelProvider.Tracer,
		Logger:            logger,
	})
	mgr.OnTaskSpawn(func(meta asynctask.TaskMeta) {
		metrics.TasksSpawned.Add(ctx, 1)
	})

	managerDone := make(chan error, 1)
	go func() {
		managerDone <- mgr.ProcessMessages(ctx, client)
	}()

	ctrl := tui.NewController(ctx, client, engine, eventBus, logger)
	sender := mgr.NewSender(64)
	defer sender.Close()

	model := tui.New(ctx, ctrl, sender, cfg.QueueID)
	if err := tui.Run(ctx, model); err != nil && ctx.Err() == nil {
		logger.Error("tui exited with error", "error", err)
		stop()
		<-managerDone
		os.Exit(1)
	}

	stop()
	<-managerDone
}

func watchConfigReloads(ctx context.Context, w *config.Watcher, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			logger.Info("config changed on disk", "path", ev.Path)
		}
	}
}

func fatalStartup(logger *slog.Logger, reasonCode string, err error) {
	message := ""
	if err != nil {
		message = err.Error()
	}
	if logger != nil {
		logger.Error("startup failure", "reason_code", reasonCode, "error", message)
	} else {
		fmt.Fprintf(os.Stderr, "startup failure: reason_code=%s error=%s\n", reasonCode, message)
	}
	os.Exit(1)
}

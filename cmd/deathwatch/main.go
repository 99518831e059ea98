// deathwatch counts game deaths by reading the death banner off the screen
// and attributing each one to the boss on screen.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/deathwatch/internal/app"
	"github.com/GriffinCanCode/deathwatch/internal/chime"
	"github.com/GriffinCanCode/deathwatch/internal/config"
	"github.com/GriffinCanCode/deathwatch/internal/debugdump"
	"github.com/GriffinCanCode/deathwatch/internal/history"
	"github.com/GriffinCanCode/deathwatch/internal/hotkey"
	"github.com/GriffinCanCode/deathwatch/internal/ocr"
	"github.com/GriffinCanCode/deathwatch/internal/recorder"
	"github.com/GriffinCanCode/deathwatch/internal/screen"
	"github.com/GriffinCanCode/deathwatch/internal/server"
	"github.com/GriffinCanCode/deathwatch/internal/storage"
	"github.com/GriffinCanCode/deathwatch/internal/worker"
)

// detectionRun ties an OCR engine to the worker that uses it.
type detectionRun struct {
	*worker.Worker
	engine ocr.Engine
}

func (r *detectionRun) Run(ctx context.Context) error {
	defer func() { _ = r.engine.Close() }()
	return r.Worker.Run(ctx)
}

func main() {
	cfg := config.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Detection settings are checked again when the worker starts and
	// reported through the status, so a bad zone does not stop the server.
	if err := cfg.Validate(); err != nil {
		slog.Warn("configuration invalid, detection will not start", "error", err)
	}

	loaded, err := storage.Load(cfg.StoragePath)
	if err != nil {
		slog.Error("failed to load recorders", "path", cfg.StoragePath, "error", err)
		os.Exit(1)
	}
	store := recorder.NewStore(loaded, cfg.BossMatchThreshold)
	saver := storage.NewSaver(cfg.StoragePath, storage.DefaultFlushDelay)

	var notifier chime.Notifier = chime.Nop{}
	if cfg.ChimeEnabled {
		opts := chime.DefaultOptions()
		opts.Device = cfg.ChimeDevice
		if p, err := chime.New(opts); err != nil {
			slog.Warn("chime disabled, no audio output", "error", err)
		} else {
			notifier = p
		}
	}

	var dumper *debugdump.Dumper
	if cfg.DebugDumpDir != "" {
		if dumper, err = debugdump.New(cfg.DebugDumpDir, debugdump.DefaultMaxFiles); err != nil {
			slog.Warn("debug dumps disabled", "dir", cfg.DebugDumpDir, "error", err)
			dumper = nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var presses <-chan struct{}
	if cfg.HotkeyEnabled {
		combo, err := hotkey.ParseCombo(cfg.Hotkey)
		if err != nil {
			slog.Warn("hotkey disabled", "error", err)
		} else {
			listener := hotkey.New(hotkey.NewBackend(), combo)
			presses = listener.Presses()
			go func() {
				if err := listener.Run(ctx); err != nil {
					slog.Error("hotkey listener stopped", "error", err)
				}
			}()
		}
	}

	capturer := screen.New()
	newRunner := func(ctx context.Context) (app.Runner, error) {
		eng, err := ocr.New(ctx, ocr.Options{
			Kind:       cfg.OCREngine,
			Languages:  cfg.OCRLanguages,
			RemoteAddr: cfg.OCRRemoteAddr,
		})
		if err != nil {
			return nil, err
		}
		opts := worker.OptionsFromConfig(cfg)
		if dumper != nil {
			opts.Sink = dumper
		}
		return &detectionRun{Worker: worker.New(capturer, eng, opts), engine: eng}, nil
	}

	a := app.New(app.Options{
		Store:            store,
		History:          history.NewStore(history.DefaultMaxEntries, history.DefaultEventBuffer),
		Chime:            notifier,
		Saver:            saver,
		NewRunner:        newRunner,
		Presses:          presses,
		AutosaveInterval: cfg.AutosaveInterval,
		StartOCR:         cfg.OCREnabled,
	})
	appDone := make(chan error, 1)
	go func() { appDone <- a.Run(ctx) }()

	srv := server.New(ctx, a)
	httpServer := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     srv.Handler(),
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("deathwatch starting", "http", cfg.HTTPAddr, "game", cfg.Detection.Game,
			"ocr_engine", cfg.OCREngine, "monitors", capturer.NumMonitors())
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	cancel()
	if err := <-appDone; err != nil {
		slog.Error("app error", "error", err)
	}
	if err := saver.Close(); err != nil {
		slog.Error("final save failed", "path", cfg.StoragePath, "error", err)
	}
	if dumper != nil {
		dumper.Close()
	}
	_ = notifier.Close()
	slog.Info("shutdown complete")
}

// Command recorder runs the continuous screen/audio recording engine: it
// wires the video, OCR, audio, and ASR workers to a local store and drives
// them until a host-delivered signal or control command stops it. The
// HTTP query surface, desktop shell, and CLI flag parsing that would
// normally sit in front of this process are out of scope here and owned
// by the host that spawns it.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/screenrec/internal/asr"
	"github.com/GriffinCanCode/screenrec/internal/audio"
	"github.com/GriffinCanCode/screenrec/internal/config"
	"github.com/GriffinCanCode/screenrec/internal/control"
	recerr "github.com/GriffinCanCode/screenrec/internal/errors"
	"github.com/GriffinCanCode/screenrec/internal/ocr"
	"github.com/GriffinCanCode/screenrec/internal/orchestrator"
	"github.com/GriffinCanCode/screenrec/internal/screen"
	"github.com/GriffinCanCode/screenrec/internal/store"
	"github.com/GriffinCanCode/screenrec/internal/video"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("RECORDER_CONFIG"))
	if err != nil {
		exitFatal(recerr.Fatal(err, "config load failed"))
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		exitFatal(recerr.Fatal(err, "failed to create output directory").WithField("dir", cfg.OutputDir))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Store.Path, cfg.Store.OpenRetry)
	if err != nil {
		exitFatal(recerr.Fatal(err, "store open failed"))
	}
	defer db.Close()

	bus := control.NewBus(4, 32)

	capturer := screen.New()
	defer capturer.Close()

	encoder, err := video.NewFFmpegEncoder(cfg.Tools.FFmpegPath, cfg.OutputDir, cfg.FPS, video.DefaultRotateInterval, func(path string) {
		if err := db.InsertVideoChunk(ctx, path); err != nil {
			slog.Error("failed to register new video chunk", "path", path, "error", err)
		}
	})
	if err != nil {
		exitFatal(recerr.Fatal(err, "video encoder unavailable"))
	}

	ocrEngine, err := ocr.NewTesseractEngine(cfg.Tools.OCRBinary)
	if err != nil {
		exitFatal(recerr.Fatal(err, "ocr engine unavailable"))
	}

	asrEngine, err := asr.NewWhisperEngine(cfg.Tools.ASRBinary, "")
	if err != nil {
		exitFatal(recerr.Fatal(err, "asr engine unavailable"))
	}

	recorder, err := audio.NewMalgoRecorder(48000, 1)
	if err != nil {
		exitFatal(recerr.Fatal(err, "audio capture unavailable"))
	}
	defer recorder.Close()

	enumerator, err := audio.NewEnumerator()
	if err != nil {
		exitFatal(recerr.Fatal(err, "audio device enumeration unavailable"))
	}
	defer enumerator.Close()

	seedInitialDevices(ctx, enumerator, cfg.InitialAudioDevices, bus.DeviceCtrl)

	params := orchestrator.Params{
		OutputDir:          cfg.OutputDir,
		FPS:                cfg.FPS,
		AudioChunkDuration: cfg.AudioChunkDuration,
		SaveTextFiles:      cfg.SaveTextFiles,
		QueueCapacity:      cfg.QueueCapacity(),
		Capturer:           capturer,
		Encoder:            encoder,
		OCREngine:          ocrEngine,
		AudioRecorder:      recorder,
		ASREngine:          asrEngine,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		select {
		case bus.Control <- control.RecorderControl{Tag: control.Stop}:
		case <-time.After(time.Second):
		}
	}()

	slog.Info("recording starting", "output_dir", cfg.OutputDir, "fps", cfg.FPS)
	if err := orchestrator.StartContinuousRecording(context.Background(), db, bus, params); err != nil {
		slog.Error("recording exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("recording exited cleanly")
}

// exitFatal logs a startup-fatal RecorderError and terminates the process.
func exitFatal(err *recerr.RecorderError) {
	slog.Error(err.Error())
	os.Exit(1)
}

// seedInitialDevices resolves the configured device names against what's
// actually enumerable and emits an initial enable event for each match.
// Devices named in config that aren't present are logged and skipped —
// never fatal, since external audio hardware comes and goes.
func seedInitialDevices(ctx context.Context, enumerator *audio.Enumerator, names []string, deviceCtrl chan<- control.DeviceEvent) {
	if len(names) == 0 {
		return
	}

	available, err := enumerator.Devices()
	if err != nil {
		slog.Warn("failed to enumerate audio devices", "error", err)
		return
	}

	byName := make(map[string]control.AudioDevice, len(available))
	for _, d := range available {
		byName[d.ID] = d
	}

	for _, name := range names {
		dev, ok := byName[name]
		if !ok {
			slog.Warn("configured audio device not found, skipping", "device", name)
			continue
		}
		ev := control.DeviceEvent{Device: dev, Control: control.DeviceControl{Running: true}}
		select {
		case deviceCtrl <- ev:
		case <-ctx.Done():
			return
		}
	}
}

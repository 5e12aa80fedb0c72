// Package orchestrator wires the capture, OCR, audio, and ASR workers
// together, owns their lifetimes, and implements the recorder's control
// loop (Section 4.1).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/screenrec/internal/asr"
	"github.com/GriffinCanCode/screenrec/internal/audio"
	"github.com/GriffinCanCode/screenrec/internal/control"
	"github.com/GriffinCanCode/screenrec/internal/ocr"
	"github.com/GriffinCanCode/screenrec/internal/video"
)

// Store is every Persistence Sink operation the wired workers need.
type Store interface {
	InsertVideoChunk(ctx context.Context, path string) error
	ocr.Store
	asr.Store
}

// Params bundles the constructed external collaborators and tunables a
// single recording session needs. The orchestrator owns none of their
// construction — main wiring picks concrete adapters (ffmpeg, tesseract,
// whisper, malgo) and hands them in here.
type Params struct {
	OutputDir          string
	FPS                float64
	AudioChunkDuration time.Duration
	SaveTextFiles      bool
	QueueCapacity      int

	Capturer video.Capturer
	Encoder  video.Encoder

	OCREngine ocr.Engine

	AudioRecorder Recorder
	ASREngine     asr.Engine
}

// Recorder is the audio-capture surface the orchestrator depends on; it is
// an alias for internal/audio.Recorder.
type Recorder = audio.Recorder

// StartContinuousRecording runs the pipeline until Stop is received on
// bus.Control, bus.Control is closed, or a worker returns an error. Workers
// that finish without an error (the video worker and OCR pump once the
// vision flag is cleared) do not end it on their own. The first error from
// any worker is returned once its peers have drained (Section 4.1 startup
// order and failure semantics).
func StartContinuousRecording(ctx context.Context, store Store, bus *control.Bus, p Params) error {
	asrInputs := make(chan asr.AudioInput, 16)
	asrResults := make(chan asr.TranscriptionResult, 16)

	queue := video.NewOCRFrameQueue(p.QueueCapacity)

	worker, err := video.NewWorker(p.Capturer, p.Encoder, queue, p.FPS, p.SaveTextFiles, p.OutputDir)
	if err != nil {
		return fmt.Errorf("construct video worker: %w", err)
	}

	pump := ocr.NewPump(queue, p.OCREngine, store, p.FPS, func(text string) {
		// Sidecar target chunk is whatever the encoder most recently opened;
		// AppendSidecarToCurrentChunk asks the encoder for its current path.
		worker.AppendSidecarToCurrentChunk(text)
	})

	asrPump := asr.NewPump(p.ASREngine, asrResults)
	supervisor := audio.NewSupervisor(p.OutputDir, p.AudioChunkDuration, p.AudioRecorder, asrInputs, asrResults, store)

	// innerCtx is what every worker actually runs on. The control loop is
	// the only thing that cancels it deliberately (on Stop or a closed
	// control channel); an error from any worker cancels gctx instead,
	// which is a child of innerCtx, giving the same effect without the
	// control loop needing to know about worker failures.
	innerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(innerCtx)

	g.Go(func() error {
		worker.Run(gctx, bus.Vision)
		return worker.Stop()
	})
	g.Go(func() error {
		pump.Run(gctx, bus.Vision)
		return nil
	})
	g.Go(func() error {
		return supervisor.Run(gctx, bus.DeviceCtrl)
	})
	g.Go(func() error {
		asrPump.Run(gctx, asrInputs)
		return nil
	})
	g.Go(func() error {
		err := runControlLoop(gctx, bus)
		if gctx.Err() == nil {
			cancel() // Stop (or a closed control channel) unwinds every other worker.
		}
		return err
	})

	err = g.Wait()
	slog.Info("recording stopped")
	if err != nil && innerCtx.Err() == nil {
		slog.Error("worker failed", "error", err)
		return err
	}
	return nil
}

// runControlLoop implements Section 4.1's control loop: Stop clears the
// vision flag and returns, unwinding the whole pipeline. Pause clears the
// vision flag too, which ends the video worker and OCR pump, but keeps the
// loop (and the shared context) alive, so audio/ASR, which are never gated
// by the vision flag, keep recording through a Pause. Resume sets the flag
// again; it does not restart a video worker or OCR pump that has already
// exited. A closed control channel is treated as Stop.
func runControlLoop(ctx context.Context, bus *control.Bus) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-bus.Control:
			if !ok {
				bus.Vision.Clear()
				return nil
			}
			switch cmd.Tag {
			case control.Stop:
				bus.Vision.Clear()
				return nil
			case control.Pause:
				bus.Vision.Clear()
			case control.Resume:
				bus.Vision.Resume()
			}
		}
	}
}

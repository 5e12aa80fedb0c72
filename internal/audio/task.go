package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/GriffinCanCode/screenrec/internal/asr"
	"github.com/GriffinCanCode/screenrec/internal/control"
	recerr "github.com/GriffinCanCode/screenrec/internal/errors"
)

// task is the per-device capture loop (Section 4.4). It implements
// suture.Service; a genuine capture error ends the task for good — the
// supervisor relies on suture.ErrDoNotRestart to honor the single-error
// kill rule instead of retrying a persistently broken device.
type task struct {
	device        control.AudioDevice
	outputDir     string
	chunkDuration time.Duration
	recorder      Recorder
	inputs        chan<- asr.AudioInput
}

// String names the service for suture's event hook and logs.
func (t *task) String() string {
	return t.device.ID
}

// Serve runs the indexed iteration loop until ctx is canceled or a
// recording error occurs.
func (t *task) Serve(ctx context.Context) error {
	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil
		}

		path := filepath.Join(t.outputDir, fmt.Sprintf("%s_%s.mp4", t.device.ID, time.Now().Format("2006-01-02_15-04-05")))

		slog.Debug("starting audio segment", "device", t.device.ID, "iteration", iteration, "path", path)
		err := t.recorder.RecordChunk(ctx, t.device, t.chunkDuration, path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			devErr := recerr.Device(err, t.device.ID, "audio capture failed, stopping device")
			slog.Error(devErr.Error(), "iteration", iteration)
			return fmt.Errorf("%w: %v", suture.ErrDoNotRestart, devErr)
		}

		slog.Debug("finished audio segment", "device", t.device.ID, "iteration", iteration)

		select {
		case t.inputs <- asr.AudioInput{Path: path, Device: t.device, SampleRate: 48000, Channels: 1}:
		case <-ctx.Done():
			return nil
		}
	}
}

package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/screenrec/internal/control"
)

// Capturer is the screen-grab source a Worker samples. Satisfied by
// internal/screen.Capturer.
type Capturer interface {
	CaptureAlways() []byte
	Close()
}

// Worker samples Capturer at a target FPS, feeding every grab to the
// Encoder and attempting to admit it into the bounded OCRFrameQueue
// (Section 4.2 of the recording engine design).
type Worker struct {
	capturer Capturer
	encoder  Encoder
	queue    *OCRFrameQueue

	interval      time.Duration
	saveTextFiles bool
	sidecarDir    string

	mu       sync.Mutex
	sequence uint64
}

// NewWorker constructs a Worker. fps must be > 0.
func NewWorker(capturer Capturer, encoder Encoder, queue *OCRFrameQueue, fps float64, saveTextFiles bool, sidecarDir string) (*Worker, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be > 0, got %v", fps)
	}
	return &Worker{
		capturer:      capturer,
		encoder:       encoder,
		queue:         queue,
		interval:      time.Duration(float64(time.Second) / fps),
		saveTextFiles: saveTextFiles,
		sidecarDir:    sidecarDir,
	}, nil
}

// Run samples the screen until ctx is done or vision is cleared, worst-case
// exiting within one tick interval of the flag clearing.
func (w *Worker) Run(ctx context.Context, vision *control.VisionFlag) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if !vision.Running() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !vision.Running() {
				return
			}
			w.tick()
		}
	}
}

func (w *Worker) tick() {
	data := w.capturer.CaptureAlways()
	if data == nil {
		return
	}

	if err := w.encoder.Write(Frame{Data: data}); err != nil {
		slog.Warn("failed to write frame to encoder", "error", err)
	}

	w.mu.Lock()
	w.sequence++
	seq := w.sequence
	w.mu.Unlock()

	if !w.queue.Push(Frame{Data: data, Sequence: seq}) {
		slog.Debug("frame dropped at capture boundary", "sequence", seq)
	}
}

// Stop idempotently flushes and closes the current video chunk.
func (w *Worker) Stop() error {
	return w.encoder.Stop()
}

// AppendSidecar best-effort appends text to the OCR sidecar file for the
// given chunk path's basename, when saveTextFiles is enabled. Errors are
// logged, never fatal (Section 4.3, step 5).
func (w *Worker) AppendSidecar(chunkPath, text string) {
	if !w.saveTextFiles {
		return
	}
	base := strings.TrimSuffix(filepath.Base(chunkPath), filepath.Ext(chunkPath))
	sidecar := filepath.Join(w.sidecarDir, base+".txt")

	f, err := os.OpenFile(sidecar, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("failed to open OCR sidecar file", "path", sidecar, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(text + "\n"); err != nil {
		slog.Warn("failed to write OCR sidecar file", "path", sidecar, "error", err)
	}
}

// AppendSidecarToCurrentChunk appends text to the sidecar file for
// whichever chunk the encoder currently has open. OCR runs asynchronously
// relative to capture, so by the time a frame's text is ready the worker
// may already be writing a later chunk than the one the frame belonged
// to; this is accepted as an approximation (Section 4.3 is best-effort).
func (w *Worker) AppendSidecarToCurrentChunk(text string) {
	path := w.encoder.CurrentPath()
	if path == "" {
		return
	}
	w.AppendSidecar(path, text)
}

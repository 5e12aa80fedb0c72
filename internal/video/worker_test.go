package video

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/screenrec/internal/control"
)

type fakeCapturer struct {
	mu    sync.Mutex
	frame []byte
	calls int
}

func (f *fakeCapturer) CaptureAlways() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.frame
}
func (f *fakeCapturer) Close() {}

type fakeEncoder struct {
	mu     sync.Mutex
	writes int
	stops  int
	path   string
}

func (e *fakeEncoder) Write(Frame) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writes++
	return nil
}
func (e *fakeEncoder) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	return nil
}
func (e *fakeEncoder) CurrentPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

func TestNewWorkerRejectsNonPositiveFPS(t *testing.T) {
	_, err := NewWorker(&fakeCapturer{}, &fakeEncoder{}, NewOCRFrameQueue(2), 0, false, "")
	if err == nil {
		t.Error("NewWorker(fps=0) = nil error, want error")
	}
}

func TestWorkerRunStopsOnVisionClear(t *testing.T) {
	cap := &fakeCapturer{frame: []byte{1, 2, 3}}
	enc := &fakeEncoder{}
	q := NewOCRFrameQueue(8)
	w, err := NewWorker(cap, enc, q, 50, false, "")
	if err != nil {
		t.Fatalf("NewWorker() = %v", err)
	}

	vision := control.NewVisionFlag()
	done := make(chan struct{})
	go func() {
		w.Run(context.Background(), vision)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	vision.Clear()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not exit after vision flag cleared")
	}

	cap.mu.Lock()
	calls := cap.calls
	cap.mu.Unlock()
	if calls == 0 {
		t.Error("expected at least one capture tick")
	}
}

func TestWorkerRunStopsOnContextCancel(t *testing.T) {
	w, err := NewWorker(&fakeCapturer{frame: []byte{1}}, &fakeEncoder{}, NewOCRFrameQueue(8), 50, false, "")
	if err != nil {
		t.Fatalf("NewWorker() = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	vision := control.NewVisionFlag()

	done := make(chan struct{})
	go func() {
		w.Run(ctx, vision)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not exit after context cancel")
	}
}

func TestAppendSidecarToCurrentChunkUsesEncoderPath(t *testing.T) {
	dir := t.TempDir()
	enc := &fakeEncoder{path: dir + "/seg_2026-01-01_00-00-00.mp4"}
	w, err := NewWorker(&fakeCapturer{}, enc, NewOCRFrameQueue(2), 1, true, dir)
	if err != nil {
		t.Fatalf("NewWorker() = %v", err)
	}

	w.AppendSidecarToCurrentChunk("hello")

	data, err := os.ReadFile(dir + "/seg_2026-01-01_00-00-00.txt")
	if err != nil {
		t.Fatalf("sidecar file not written: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("sidecar contents = %q, want %q", data, "hello\n")
	}
}

func TestAppendSidecarToCurrentChunkNoopWhenNoChunkOpen(t *testing.T) {
	w, err := NewWorker(&fakeCapturer{}, &fakeEncoder{}, NewOCRFrameQueue(2), 1, true, t.TempDir())
	if err != nil {
		t.Fatalf("NewWorker() = %v", err)
	}
	w.AppendSidecarToCurrentChunk("ignored") // must not panic
}

func TestWorkerStopDelegatesToEncoder(t *testing.T) {
	enc := &fakeEncoder{}
	w, err := NewWorker(&fakeCapturer{}, enc, NewOCRFrameQueue(2), 1, false, "")
	if err != nil {
		t.Fatalf("NewWorker() = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() = %v, want nil", err)
	}
	if enc.stops != 1 {
		t.Errorf("encoder.stops = %d, want 1", enc.stops)
	}
}

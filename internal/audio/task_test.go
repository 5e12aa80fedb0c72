package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/GriffinCanCode/screenrec/internal/asr"
	"github.com/GriffinCanCode/screenrec/internal/control"
)

type fakeRecorder struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (r *fakeRecorder) RecordChunk(ctx context.Context, _ control.AudioDevice, _ time.Duration, _ string) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.err
}

func TestTaskServeEmitsAudioInputPerIteration(t *testing.T) {
	rec := &fakeRecorder{}
	inputs := make(chan asr.AudioInput, 4)
	tsk := &task{device: control.AudioDevice{ID: "mic-1"}, chunkDuration: time.Millisecond, recorder: rec, inputs: inputs, outputDir: "/tmp"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tsk.Serve(ctx) }()

	select {
	case in := <-inputs:
		if in.Device.ID != "mic-1" {
			t.Errorf("Device.ID = %q, want mic-1", in.Device.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no AudioInput emitted")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestTaskServeReturnsDoNotRestartOnError(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("device unplugged")}
	inputs := make(chan asr.AudioInput, 1)
	tsk := &task{device: control.AudioDevice{ID: "mic-2"}, chunkDuration: time.Millisecond, recorder: rec, inputs: inputs, outputDir: "/tmp"}

	err := tsk.Serve(context.Background())
	if !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() = %v, want wrapping suture.ErrDoNotRestart", err)
	}
}

func TestTaskStringIsDeviceID(t *testing.T) {
	tsk := &task{device: control.AudioDevice{ID: "mic-3"}}
	if tsk.String() != "mic-3" {
		t.Errorf("String() = %q, want mic-3", tsk.String())
	}
}

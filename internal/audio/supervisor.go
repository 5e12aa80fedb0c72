package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/GriffinCanCode/screenrec/internal/asr"
	"github.com/GriffinCanCode/screenrec/internal/control"
)

// tickInterval is the supervisor's poll cadence for draining the
// device-control and ASR-result channels (Section 4.4).
const tickInterval = 100 * time.Millisecond

// Supervisor owns one capture task per enabled AudioDevice and reacts to
// dynamic enable/disable events without ever blocking on a single device.
type Supervisor struct {
	outputDir     string
	chunkDuration time.Duration
	recorder      Recorder
	inputs        chan<- asr.AudioInput
	results       <-chan asr.TranscriptionResult
	store         asr.Store

	root *suture.Supervisor

	mu     sync.Mutex
	active map[string]suture.ServiceToken
}

// NewSupervisor constructs a Supervisor. inputs is the channel per-device
// tasks publish finalized AudioInputs to; results is the channel the ASR
// pump publishes TranscriptionResults to for persistence.
func NewSupervisor(outputDir string, chunkDuration time.Duration, recorder Recorder, inputs chan<- asr.AudioInput, results <-chan asr.TranscriptionResult, store asr.Store) *Supervisor {
	s := &Supervisor{
		outputDir:     outputDir,
		chunkDuration: chunkDuration,
		recorder:      recorder,
		inputs:        inputs,
		results:       results,
		store:         store,
		active:        make(map[string]suture.ServiceToken),
	}
	s.root = suture.New("audio-devices", suture.Spec{
		EventHook: s.onEvent,
	})
	return s
}

// Run drives the supervisor until ctx is done or deviceCtrl is closed
// (treated equivalently to Stop by the orchestrator).
func (s *Supervisor) Run(ctx context.Context, deviceCtrl <-chan control.DeviceEvent) error {
	rootCtx, cancelRoot := context.WithCancel(ctx)
	defer cancelRoot()

	rootErr := make(chan error, 1)
	go func() { rootErr <- s.root.Serve(rootCtx) }()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-rootErr
			return ctx.Err()
		case err := <-rootErr:
			return err
		case <-ticker.C:
			if !s.drainDeviceCtrl(deviceCtrl) {
				cancelRoot()
				<-rootErr
				return nil
			}
			s.drainResults(ctx)
		}
	}
}

// drainDeviceCtrl handles every pending device event and reports whether
// deviceCtrl is still open.
func (s *Supervisor) drainDeviceCtrl(deviceCtrl <-chan control.DeviceEvent) bool {
	for {
		select {
		case ev, ok := <-deviceCtrl:
			if !ok {
				return false
			}
			s.handleEvent(ev)
		default:
			return true
		}
	}
}

func (s *Supervisor) drainResults(ctx context.Context) {
	for {
		select {
		case r, ok := <-s.results:
			if !ok {
				return
			}
			asr.ProcessResult(ctx, s.store, r)
		default:
			return
		}
	}
}

func (s *Supervisor) handleEvent(ev control.DeviceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, running := s.active[ev.Device.ID]

	switch {
	case ev.Control.Running && !running:
		t := &task{
			device:        ev.Device,
			outputDir:     s.outputDir,
			chunkDuration: s.chunkDuration,
			recorder:      s.recorder,
			inputs:        s.inputs,
		}
		s.active[ev.Device.ID] = s.root.Add(t)
		slog.Info("audio device capture started", "device", ev.Device.ID)
	case ev.Control.Running && running:
		// already running; no-op.
	case !ev.Control.Running && running:
		_ = s.root.Remove(s.active[ev.Device.ID])
		delete(s.active, ev.Device.ID)
		slog.Info("audio device capture stopped", "device", ev.Device.ID)
	default:
		// disable for a device with no active task; no-op.
	}
}

// onEvent prunes finished handles from the active map as suture reports
// them, so a device that killed itself via ErrDoNotRestart can be
// re-enabled later without the supervisor believing it is still running.
func (s *Supervisor) onEvent(e suture.Event) {
	term, ok := e.(suture.EventServiceTerminate)
	if !ok || term.Restarting {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, term.ServiceName)
}

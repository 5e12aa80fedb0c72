package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/GriffinCanCode/screenrec/internal/control"
)

// Recorder captures exactly one fixed-duration segment from a device into
// a file on disk.
type Recorder interface {
	RecordChunk(ctx context.Context, device control.AudioDevice, duration time.Duration, path string) error
}

// MalgoRecorder implements Recorder via miniaudio capture devices opened
// and torn down once per segment. It does not run continuously between
// segments — the per-device task owns the cadence.
type MalgoRecorder struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32
	channels   uint32
}

// NewMalgoRecorder allocates a shared malgo context used for every segment
// this recorder captures.
func NewMalgoRecorder(sampleRate, channels int) (*MalgoRecorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &MalgoRecorder{ctx: ctx, sampleRate: uint32(sampleRate), channels: uint32(channels)}, nil
}

// Close releases the shared malgo context.
func (r *MalgoRecorder) Close() error {
	return r.ctx.Uninit()
}

// RecordChunk opens device, captures for duration (or until ctx is done),
// and writes the accumulated samples to path.
func (r *MalgoRecorder) RecordChunk(ctx context.Context, device control.AudioDevice, duration time.Duration, path string) error {
	info, err := r.findDevice(device.ID)
	if err != nil {
		return err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = r.channels
	deviceConfig.SampleRate = r.sampleRate
	deviceConfig.Capture.DeviceID = info.ID.Pointer()

	var mu sync.Mutex
	var samples []float32

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pSamples []byte, _ uint32) {
			chunk := bytesToFloat32(pSamples)
			if len(chunk) == 0 {
				return
			}
			mu.Lock()
			samples = append(samples, chunk...)
			mu.Unlock()
		},
	}

	dev, err := malgo.InitDevice(r.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("init capture device %s: %w", device.ID, err)
	}
	defer dev.Uninit()

	if err := dev.Start(); err != nil {
		return fmt.Errorf("start capture device %s: %w", device.ID, err)
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
		_ = dev.Stop()
		return ctx.Err()
	}

	if err := dev.Stop(); err != nil {
		return fmt.Errorf("stop capture device %s: %w", device.ID, err)
	}

	mu.Lock()
	captured := samples
	mu.Unlock()

	if err := writeWAV(path, captured, int(r.sampleRate), int(r.channels)); err != nil {
		return fmt.Errorf("write segment %s: %w", path, err)
	}
	return nil
}

func (r *MalgoRecorder) findDevice(id string) (malgo.DeviceInfo, error) {
	infos, err := r.ctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceInfo{}, fmt.Errorf("enumerate capture devices: %w", err)
	}
	for _, info := range infos {
		if info.Name() == id {
			return info, nil
		}
	}
	return malgo.DeviceInfo{}, fmt.Errorf("capture device %q not found", id)
}

func bytesToFloat32(b []byte) []float32 {
	if len(b)%bytesPerFloat32 != 0 {
		return nil
	}
	samples := make([]float32, len(b)/bytesPerFloat32)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(b[i*bytesPerFloat32:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}

// Package control defines the recorder's control-plane types: the
// process-wide vision cancellation flag, the recorder command bus, and
// per-device control events.
package control

import "sync/atomic"

// DeviceKind classifies an AudioDevice's capture backend.
type DeviceKind int

const (
	KindInput DeviceKind = iota
	KindOutputLoopback
)

func (k DeviceKind) String() string {
	if k == KindOutputLoopback {
		return "output-loopback"
	}
	return "input"
}

// AudioDevice is a value-typed device identity; equality is by ID.
type AudioDevice struct {
	ID   string
	Kind DeviceKind
}

func (d AudioDevice) String() string { return d.ID }

// DeviceControl carries the desired run state for one AudioDevice.
type DeviceControl struct {
	Running bool
	// Paused is plumbed through but currently a no-op: audio Pause is
	// reserved, per the vision-only Pause semantics.
	Paused bool
}

// DeviceEvent pairs a device with its desired control state, sent on the
// bounded device-control channel.
type DeviceEvent struct {
	Device  AudioDevice
	Control DeviceControl
}

// Tag identifies a RecorderControl command.
type Tag int

const (
	Pause Tag = iota
	Resume
	Stop
)

func (t Tag) String() string {
	switch t {
	case Pause:
		return "pause"
	case Resume:
		return "resume"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// RecorderControl is a one-shot command consumed by the orchestrator's
// control loop.
type RecorderControl struct {
	Tag Tag
}

// VisionFlag is the process-wide run/pause signal for the video/OCR half
// of the pipeline: write-only by the orchestrator's control loop, read-only
// by workers. Pause/Stop clear it; Resume sets it again.
type VisionFlag struct {
	set atomic.Bool
}

// NewVisionFlag returns a flag initialized to running.
func NewVisionFlag() *VisionFlag {
	f := &VisionFlag{}
	f.set.Store(true)
	return f
}

// Running reports whether vision capture should continue.
func (f *VisionFlag) Running() bool { return f.set.Load() }

// Clear stops vision capture. Idempotent.
func (f *VisionFlag) Clear() { f.set.Store(false) }

// Resume resumes vision capture.
func (f *VisionFlag) Resume() { f.set.Store(true) }

// Bus bundles the three control-plane channels the core is instantiated
// with: the recorder command channel, the device-control channel, and the
// shared vision flag.
type Bus struct {
	Control    chan RecorderControl
	DeviceCtrl chan DeviceEvent
	Vision     *VisionFlag
}

// NewBus creates a Bus with the given channel capacities.
func NewBus(controlCap, deviceCtrlCap int) *Bus {
	return &Bus{
		Control:    make(chan RecorderControl, controlCap),
		DeviceCtrl: make(chan DeviceEvent, deviceCtrlCap),
		Vision:     NewVisionFlag(),
	}
}

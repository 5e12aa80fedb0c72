package audio

import (
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/GriffinCanCode/screenrec/internal/control"
)

// loopbackKeywords and inputKeywords classify a raw device name into an
// AudioDevice kind, adapted from the keyword lists used by the original
// continuous capturer.
var (
	loopbackKeywords = []string{"blackhole", "vb-cable", "loopback", "monitor", "soundflower"}
	inputKeywords    = []string{"microphone", "input", "mic", "built-in"}
)

// Enumerator lists capture-capable audio devices via malgo.
type Enumerator struct {
	ctx *malgo.AllocatedContext
}

// NewEnumerator allocates a malgo context for device enumeration and
// capture. Callers must Close it on shutdown.
func NewEnumerator() (*Enumerator, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &Enumerator{ctx: ctx}, nil
}

// Close releases the underlying malgo context.
func (e *Enumerator) Close() error {
	return e.ctx.Uninit()
}

// Devices returns every capture device whose name classifies as either a
// microphone input or a system-audio loopback. Devices that don't match
// either keyword set are skipped — they aren't collaborators this pipeline
// knows how to label.
func (e *Enumerator) Devices() ([]control.AudioDevice, error) {
	infos, err := e.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate capture devices: %w", err)
	}

	var devices []control.AudioDevice
	for _, info := range infos {
		kind, ok := classify(info.Name())
		if !ok {
			continue
		}
		devices = append(devices, control.AudioDevice{ID: info.Name(), Kind: kind})
	}
	return devices, nil
}

func classify(name string) (control.DeviceKind, bool) {
	lower := strings.ToLower(name)
	for _, kw := range loopbackKeywords {
		if strings.Contains(lower, kw) {
			return control.KindOutputLoopback, true
		}
	}
	for _, kw := range inputKeywords {
		if strings.Contains(lower, kw) {
			return control.KindInput, true
		}
	}
	return control.KindInput, false
}

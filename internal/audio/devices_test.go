package audio

import (
	"testing"

	"github.com/GriffinCanCode/screenrec/internal/control"
)

func TestClassifyLoopbackKeywords(t *testing.T) {
	for _, name := range []string{"BlackHole 2ch", "VB-Cable Output", "Monitor of Built-in Audio"} {
		kind, ok := classify(name)
		if !ok || kind != control.KindOutputLoopback {
			t.Errorf("classify(%q) = (%v, %v), want (KindOutputLoopback, true)", name, kind, ok)
		}
	}
}

func TestClassifyInputKeywords(t *testing.T) {
	for _, name := range []string{"Built-in Microphone", "USB Mic", "External Input"} {
		kind, ok := classify(name)
		if !ok || kind != control.KindInput {
			t.Errorf("classify(%q) = (%v, %v), want (KindInput, true)", name, kind, ok)
		}
	}
}

func TestClassifyUnrecognizedIsSkipped(t *testing.T) {
	_, ok := classify("Bluetooth Headset XYZ")
	if ok {
		t.Errorf("classify(unrecognized) ok = true, want false")
	}
}

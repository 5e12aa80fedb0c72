package control

import "testing"

func TestVisionFlagDefaultsRunning(t *testing.T) {
	f := NewVisionFlag()
	if !f.Running() {
		t.Error("Running() = false, want true at creation")
	}
}

func TestVisionFlagClearResume(t *testing.T) {
	f := NewVisionFlag()
	f.Clear()
	if f.Running() {
		t.Error("Running() = true after Clear()")
	}
	f.Resume()
	if !f.Running() {
		t.Error("Running() = false after Resume()")
	}
}

func TestDeviceKindString(t *testing.T) {
	if KindInput.String() != "input" {
		t.Errorf("KindInput.String() = %q, want input", KindInput.String())
	}
	if KindOutputLoopback.String() != "output-loopback" {
		t.Errorf("KindOutputLoopback.String() = %q, want output-loopback", KindOutputLoopback.String())
	}
}

func TestTagString(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{Pause, "pause"},
		{Resume, "resume"},
		{Stop, "stop"},
	}
	for _, tt := range tests {
		if got := tt.tag.String(); got != tt.want {
			t.Errorf("Tag(%d).String() = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestNewBusChannelCapacities(t *testing.T) {
	b := NewBus(4, 8)
	if cap(b.Control) != 4 {
		t.Errorf("cap(Control) = %d, want 4", cap(b.Control))
	}
	if cap(b.DeviceCtrl) != 8 {
		t.Errorf("cap(DeviceCtrl) = %d, want 8", cap(b.DeviceCtrl))
	}
	if !b.Vision.Running() {
		t.Error("new bus's vision flag should start running")
	}
}

func TestAudioDeviceString(t *testing.T) {
	d := AudioDevice{ID: "dev-A", Kind: KindInput}
	if d.String() != "dev-A" {
		t.Errorf("String() = %q, want dev-A", d.String())
	}
}
